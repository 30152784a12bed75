package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/dto"
	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/internal/service"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

// StudentHandler exposes student record endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param name query string false "Filter by name"
// @Param class query string false "Filter by class"
// @Param section query string false "Filter by section"
// @Param roll query int false "Filter by roll"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.List(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, detailErr := h.students.Detail(c.Request.Context(), id)
	if detailErr != nil {
		response.Error(c, detailErr)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Create godoc
// @Summary Add student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.StudentPayload true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var payload dto.StudentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.students.Add(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.StudentPayload true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload dto.StudentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, updateErr := h.students.Update(c.Request.Context(), id, payload)
	if updateErr != nil {
		response.Error(c, updateErr)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// SetStatus godoc
// @Summary Enable or disable a student account
// @Tags Students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.SetStatusPayload true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/status [post]
func (h *StudentHandler) SetStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload dto.SetStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Status == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status is required"))
		return
	}
	result, statusErr := h.students.SetStatus(c.Request.Context(), id, *payload.Status, claimsFromContext(c))
	if statusErr != nil {
		response.Error(c, statusErr)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, deleteErr := h.students.Delete(c.Request.Context(), id)
	if deleteErr != nil {
		response.Error(c, deleteErr)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Export student roster
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Router /students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	payload, contentType, err := h.students.ExportRoster(c.Request.Context(), filterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("students.%s", format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func filterFromQuery(c *gin.Context) models.StudentFilter {
	filter := models.StudentFilter{
		Name:    strings.TrimSpace(c.Query("name")),
		Class:   strings.TrimSpace(c.Query("class")),
		Section: strings.TrimSpace(c.Query("section")),
	}
	if raw := c.Query("roll"); raw != "" {
		if roll, err := strconv.Atoi(raw); err == nil {
			filter.Roll = &roll
		}
	}
	return filter
}

func pathID(c *gin.Context) (int64, *appErrors.Error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer")
	}
	return id, nil
}
