package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/dto"
	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/config"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
	"github.com/noah-isme/school-mgmt-api/pkg/export"
)

// Messages returned by the add operation. Email failure softens the message
// but never fails the add.
const (
	msgStudentAdded          = "Student added and verification email sent successfully."
	msgStudentAddedMailFail  = "Student added, but failed to send verification email."
	msgStudentUpdated        = "Student updated successfully"
	msgStudentStatusChanged  = "Student status changed successfully"
	msgStudentDeleted        = "Student deleted successfully"
	msgStudentNotFound       = "Student not found"
	msgStudentsNotFound      = "Students not found"
	msgEmailAlreadyExists    = "Email already exists"
	msgUnableToChangeStatus  = "Unable to change student status"
	msgUnableToDeleteStudent = "Unable to delete student"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter, roleID int64) ([]models.StudentSummary, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateStudent(ctx context.Context, rec *models.StudentRecord, roleID, reporterID int64) (int64, error)
	UpdateStudent(ctx context.Context, rec *models.StudentRecord) error
	FindStudentDetail(ctx context.Context, id int64) (*models.StudentDetail, error)
	SetStatus(ctx context.Context, update models.StatusUpdate) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type referenceValidator interface {
	ValidateClassAndSection(ctx context.Context, className, sectionName string) (*models.Class, *models.Section, error)
}

type verificationMailer interface {
	SendAccountVerificationEmail(ctx context.Context, userID int64, email string) error
}

// StudentService orchestrates the student-record pipeline: normalization,
// reference validation, authorization and compound persistence.
type StudentService struct {
	repo      studentRepository
	refs      referenceValidator
	mailer    verificationMailer
	cfg       config.StudentsConfig
	validator *validator.Validate
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, refs referenceValidator, mailer verificationMailer, cfg config.StudentsConfig, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	RegisterStudentRules(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:      repo,
		refs:      refs,
		mailer:    mailer,
		cfg:       cfg,
		validator: validate,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// List returns students matching the filter. An empty result is surfaced as
// not-found when the policy flag says so; this mirrors the legacy behaviour
// callers may depend on.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, error) {
	students, err := s.repo.List(ctx, filter, s.cfg.RoleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if len(students) == 0 && s.cfg.EmptyListAsNotFound {
		return nil, appErrors.Clone(appErrors.ErrNotFound, msgStudentsNotFound)
	}
	return students, nil
}

// Detail returns the joined student record.
func (s *StudentService) Detail(ctx context.Context, id int64) (*models.StudentDetail, error) {
	if err := s.checkStudentExists(ctx, id); err != nil {
		return nil, err
	}
	detail, err := s.repo.FindStudentDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgStudentNotFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student detail")
	}
	return detail, nil
}

// Add creates a new student account. The verification email is best-effort:
// delivery failure downgrades the message, never the operation.
func (s *StudentService) Add(ctx context.Context, payload dto.StudentPayload) (*models.OperationResult, error) {
	rec, violations := NormalizeStudent(s.validator, payload, time.Now().UTC())
	if len(violations) > 0 {
		return nil, appErrors.Validation(violations)
	}

	if _, _, err := s.refs.ValidateClassAndSection(ctx, rec.Class, rec.Section); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindUserByEmail(ctx, rec.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, msgEmailAlreadyExists)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	userID, err := s.repo.CreateStudent(ctx, rec, s.cfg.RoleID, s.cfg.ReporterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add student")
	}

	message := msgStudentAdded
	if err := s.mailer.SendAccountVerificationEmail(ctx, userID, rec.Email); err != nil {
		s.logger.Warn("verification email failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		message = msgStudentAddedMailFail
	}

	return &models.OperationResult{UserID: userID, Message: message}, nil
}

// Update replaces both rows of an existing student.
func (s *StudentService) Update(ctx context.Context, id int64, payload dto.StudentPayload) (*models.OperationResult, error) {
	rec, violations := NormalizeStudent(s.validator, payload, time.Now().UTC())
	if len(violations) > 0 {
		return nil, appErrors.Validation(violations)
	}
	rec.UserID = &id

	if err := s.checkStudentExists(ctx, id); err != nil {
		return nil, err
	}

	if _, _, err := s.refs.ValidateClassAndSection(ctx, rec.Class, rec.Section); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStudent(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	return &models.OperationResult{UserID: id, Message: msgStudentUpdated}, nil
}

// SetStatus toggles system access for a student, recording the reviewing
// identity and timestamp atomically with the flag.
func (s *StudentService) SetStatus(ctx context.Context, subjectID int64, status bool, reviewer *models.JWTClaims) (*models.OperationResult, error) {
	if err := s.checkStudentExists(ctx, subjectID); err != nil {
		return nil, err
	}

	if err := CanChangeStatus(reviewer, subjectID, s.cfg.PrivilegedReviewRole); err != nil {
		return nil, err
	}

	affected, err := s.repo.SetStatus(ctx, models.StatusUpdate{
		UserID:     subjectID,
		ReviewerID: reviewer.UserID,
		Status:     status,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msgUnableToChangeStatus)
	}
	if affected <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInternal, msgUnableToChangeStatus)
	}

	return &models.OperationResult{UserID: subjectID, Message: msgStudentStatusChanged}, nil
}

// Delete removes a student's profile and user rows. Not reversible.
func (s *StudentService) Delete(ctx context.Context, id int64) (*models.OperationResult, error) {
	if err := s.checkStudentExists(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInternal, msgUnableToDeleteStudent)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msgUnableToDeleteStudent)
	}

	return &models.OperationResult{UserID: id, Message: msgStudentDeleted}, nil
}

// ExportRoster renders the filtered student roster as CSV or PDF.
func (s *StudentService) ExportRoster(ctx context.Context, filter models.StudentFilter, format string) ([]byte, string, error) {
	students, err := s.repo.List(ctx, filter, s.cfg.RoleID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export students")
	}

	dataset := export.Dataset{
		Title:   "Student Roster",
		Headers: []string{"ID", "Name", "Email", "System Access", "Last Login"},
	}
	for _, st := range students {
		lastLogin := ""
		if st.LastLogin != nil {
			lastLogin = st.LastLogin.UTC().Format(time.RFC3339)
		}
		access := "disabled"
		if st.SystemAccess {
			access = "enabled"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":            formatInt64(st.ID),
			"Name":          st.Name,
			"Email":         st.Email,
			"System Access": access,
			"Last Login":    lastLogin,
		})
	}

	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv roster")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf roster")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *StudentService) checkStudentExists(ctx context.Context, id int64) error {
	if _, err := s.repo.FindUserByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, msgStudentNotFound)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return nil
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}
