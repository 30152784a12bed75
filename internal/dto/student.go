package dto

import "encoding/json"

// StudentPayload is the untrusted request body for add/update. Every field
// arrives as free text; NormalizeStudent turns it into a models.StudentRecord
// or a full list of violations.
type StudentPayload struct {
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	Gender             string      `json:"gender"`
	Phone              string      `json:"phone"`
	Dob                string      `json:"dob"`
	Class              string      `json:"class"`
	Section            string      `json:"section"`
	Roll               json.Number `json:"roll"`
	FatherName         string      `json:"fatherName"`
	FatherPhone        string      `json:"fatherPhone"`
	MotherName         string      `json:"motherName"`
	MotherPhone        string      `json:"motherPhone"`
	GuardianName       string      `json:"guardianName"`
	GuardianPhone      string      `json:"guardianPhone"`
	RelationOfGuardian string      `json:"relationOfGuardian"`
	CurrentAddress     string      `json:"currentAddress"`
	PermanentAddress   string      `json:"permanentAddress"`
	AdmissionDate      string      `json:"admissionDate"`
	SystemAccess       bool        `json:"systemAccess"`
}

// SetStatusPayload toggles a student's system access.
type SetStatusPayload struct {
	Status *bool `json:"status"`
}
