package models

import "time"

// StudentRecord is the canonical post-normalization student: the logical unit
// persisted across the users and user_profiles rows.
type StudentRecord struct {
	UserID             *int64
	Name               string
	Email              string
	Gender             string
	Phone              string
	Dob                time.Time
	Class              string
	Section            string
	Roll               int
	FatherName         string
	FatherPhone        string
	MotherName         string
	MotherPhone        string
	GuardianName       string
	GuardianPhone      string
	RelationOfGuardian string
	CurrentAddress     string
	PermanentAddress   string
	AdmissionDate      *time.Time
	SystemAccess       bool
}

// StudentFilter encapsulates the conjunctive search parameters for listing
// students. The student role predicate is always applied on top of these.
type StudentFilter struct {
	Name    string
	Class   string
	Section string
	Roll    *int
}

// StudentSummary is the row shape returned by the list operation.
type StudentSummary struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	SystemAccess bool       `db:"is_active" json:"systemAccess"`
}

// StudentDetail joins the user row, its profile row and the reporting user.
type StudentDetail struct {
	ID                 int64      `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	Email              string     `db:"email" json:"email"`
	SystemAccess       bool       `db:"is_active" json:"systemAccess"`
	Phone              *string    `db:"phone" json:"phone,omitempty"`
	Gender             *string    `db:"gender" json:"gender,omitempty"`
	Dob                *time.Time `db:"dob" json:"dob,omitempty"`
	Class              *string    `db:"class_name" json:"class,omitempty"`
	Section            *string    `db:"section_name" json:"section,omitempty"`
	Roll               *int       `db:"roll" json:"roll,omitempty"`
	FatherName         *string    `db:"father_name" json:"fatherName,omitempty"`
	FatherPhone        *string    `db:"father_phone" json:"fatherPhone,omitempty"`
	MotherName         *string    `db:"mother_name" json:"motherName,omitempty"`
	MotherPhone        *string    `db:"mother_phone" json:"motherPhone,omitempty"`
	GuardianName       *string    `db:"guardian_name" json:"guardianName,omitempty"`
	GuardianPhone      *string    `db:"guardian_phone" json:"guardianPhone,omitempty"`
	RelationOfGuardian *string    `db:"relation_of_guardian" json:"relationOfGuardian,omitempty"`
	CurrentAddress     *string    `db:"current_address" json:"currentAddress,omitempty"`
	PermanentAddress   *string    `db:"permanent_address" json:"permanentAddress,omitempty"`
	AdmissionDate      *time.Time `db:"admission_dt" json:"admissionDate,omitempty"`
	ReporterName       *string    `db:"reporter_name" json:"reporterName,omitempty"`
}

// StatusUpdate carries the inputs for an audited status transition.
type StatusUpdate struct {
	UserID     int64
	ReviewerID int64
	Status     bool
}

// OperationResult is the uniform success shape for mutating operations.
type OperationResult struct {
	UserID  int64  `json:"userId,omitempty"`
	Message string `json:"message"`
}
