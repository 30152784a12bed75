package service

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/school-mgmt-api/internal/dto"
	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

const studentDateLayout = "2006-01-02"

const (
	studentMinAgeYears = 3
	studentMaxAgeYears = 25
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\-() ]{5,18}[0-9]$`)

// studentFields carries the normalized payload through struct validation.
// Field checks are independent so every violation is reported in one pass.
type studentFields struct {
	Name               string `json:"name" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	Gender             string `json:"gender" validate:"required,oneof=male female other"`
	Dob                string `json:"dob" validate:"required"`
	Class              string `json:"class" validate:"required"`
	Section            string `json:"section" validate:"required"`
	Roll               string `json:"roll" validate:"required"`
	FatherName         string `json:"fatherName" validate:"required"`
	GuardianName       string `json:"guardianName" validate:"required"`
	GuardianPhone      string `json:"guardianPhone" validate:"required"`
	RelationOfGuardian string `json:"relationOfGuardian" validate:"required"`
	CurrentAddress     string `json:"currentAddress" validate:"required"`
	PermanentAddress   string `json:"permanentAddress" validate:"required"`
}

// RegisterStudentRules wires the payload field names into validator output so
// violations reference the JSON fields clients actually sent.
func RegisterStudentRules(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// NormalizeStudent converts an untrusted payload into a canonical
// StudentRecord, or the complete list of field violations. It is a pure
// function over its inputs; the reference clock is passed in for the age
// checks.
func NormalizeStudent(v *validator.Validate, payload dto.StudentPayload, now time.Time) (*models.StudentRecord, []appErrors.FieldViolation) {
	fields := studentFields{
		Name:               strings.TrimSpace(payload.Name),
		Email:              strings.ToLower(strings.TrimSpace(payload.Email)),
		Gender:             strings.ToLower(strings.TrimSpace(payload.Gender)),
		Dob:                strings.TrimSpace(payload.Dob),
		Class:              strings.TrimSpace(payload.Class),
		Section:            strings.TrimSpace(payload.Section),
		Roll:               strings.TrimSpace(payload.Roll.String()),
		FatherName:         strings.TrimSpace(payload.FatherName),
		GuardianName:       strings.TrimSpace(payload.GuardianName),
		GuardianPhone:      strings.TrimSpace(payload.GuardianPhone),
		RelationOfGuardian: strings.TrimSpace(payload.RelationOfGuardian),
		CurrentAddress:     strings.TrimSpace(payload.CurrentAddress),
		PermanentAddress:   strings.TrimSpace(payload.PermanentAddress),
	}

	var violations []appErrors.FieldViolation
	if err := v.Struct(fields); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				violations = append(violations, appErrors.FieldViolation{
					Field:   fe.Field(),
					Message: violationMessage(fe),
				})
			}
		} else {
			violations = append(violations, appErrors.FieldViolation{Field: "payload", Message: err.Error()})
		}
	}

	rec := &models.StudentRecord{
		Name:               fields.Name,
		Email:              fields.Email,
		Gender:             fields.Gender,
		Phone:              strings.TrimSpace(payload.Phone),
		Class:              fields.Class,
		Section:            fields.Section,
		FatherName:         fields.FatherName,
		FatherPhone:        strings.TrimSpace(payload.FatherPhone),
		MotherName:         strings.TrimSpace(payload.MotherName),
		MotherPhone:        strings.TrimSpace(payload.MotherPhone),
		GuardianName:       fields.GuardianName,
		GuardianPhone:      fields.GuardianPhone,
		RelationOfGuardian: fields.RelationOfGuardian,
		CurrentAddress:     fields.CurrentAddress,
		PermanentAddress:   fields.PermanentAddress,
		SystemAccess:       payload.SystemAccess,
	}

	if fields.Roll != "" {
		roll, err := strconv.Atoi(fields.Roll)
		if err != nil || roll <= 0 {
			violations = append(violations, appErrors.FieldViolation{Field: "roll", Message: "must be a positive integer"})
		} else {
			rec.Roll = roll
		}
	}

	if fields.Dob != "" {
		dob, err := time.Parse(studentDateLayout, fields.Dob)
		switch {
		case err != nil:
			violations = append(violations, appErrors.FieldViolation{Field: "dob", Message: "must be a valid date in YYYY-MM-DD format"})
		case dob.After(now):
			violations = append(violations, appErrors.FieldViolation{Field: "dob", Message: "must not be in the future"})
		default:
			// Age is the calendar-year difference on purpose: a coarse
			// bound, not an exact day count.
			age := now.Year() - dob.Year()
			if age < studentMinAgeYears || age > studentMaxAgeYears {
				violations = append(violations, appErrors.FieldViolation{Field: "dob", Message: "must imply an age between 3 and 25 years"})
			} else {
				rec.Dob = dob
			}
		}
	}

	if raw := strings.TrimSpace(payload.AdmissionDate); raw != "" {
		admission, err := time.Parse(studentDateLayout, raw)
		if err != nil {
			violations = append(violations, appErrors.FieldViolation{Field: "admissionDate", Message: "must be a valid date in YYYY-MM-DD format"})
		} else {
			rec.AdmissionDate = &admission
		}
	}

	for _, optional := range []struct {
		field string
		value string
	}{
		{"phone", rec.Phone},
		{"fatherPhone", rec.FatherPhone},
		{"motherPhone", rec.MotherPhone},
	} {
		if optional.value != "" && !phonePattern.MatchString(optional.value) {
			violations = append(violations, appErrors.FieldViolation{Field: optional.field, Message: "must be a valid phone number"})
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return rec, nil
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of male, female or other"
	default:
		return "is invalid"
	}
}
