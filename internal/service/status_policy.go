package service

import (
	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

// CanChangeStatus is the single authorization gate for student status
// transitions: the reviewer must be authenticated, must not be the subject,
// and must hold one of the privileged review roles. Returns nil when the
// change is allowed.
func CanChangeStatus(reviewer *models.JWTClaims, subjectID int64, privilegedRoles []string) *appErrors.Error {
	if reviewer == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "reviewer identity is required")
	}
	if reviewer.UserID == subjectID {
		return appErrors.Clone(appErrors.ErrSelfStatusChange, "")
	}
	for _, role := range privilegedRoles {
		if string(reviewer.Role) == role {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only privileged reviewers can change student status")
}
