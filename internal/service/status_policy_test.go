package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

func TestCanChangeStatus(t *testing.T) {
	privileged := []string{"ADMIN", "SUPERADMIN"}

	t.Run("nil reviewer is unauthorized", func(t *testing.T) {
		err := CanChangeStatus(nil, 42, privileged)
		require.NotNil(t, err)
		assert.Equal(t, appErrors.ErrUnauthorized.Code, err.Code)
	})

	t.Run("self change is rejected", func(t *testing.T) {
		reviewer := &models.JWTClaims{UserID: 42, Role: models.RoleAdmin}
		err := CanChangeStatus(reviewer, 42, privileged)
		require.NotNil(t, err)
		assert.Equal(t, appErrors.ErrSelfStatusChange.Code, err.Code)
	})

	t.Run("unprivileged role is forbidden", func(t *testing.T) {
		reviewer := &models.JWTClaims{UserID: 7, Role: models.RoleTeacher}
		err := CanChangeStatus(reviewer, 42, privileged)
		require.NotNil(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, err.Code)
	})

	t.Run("privileged reviewer is allowed", func(t *testing.T) {
		for _, role := range []models.UserRole{models.RoleAdmin, models.RoleSuperAdmin} {
			reviewer := &models.JWTClaims{UserID: 7, Role: role}
			assert.Nil(t, CanChangeStatus(reviewer, 42, privileged))
		}
	})

	t.Run("self change outranks role check", func(t *testing.T) {
		// Even a superadmin cannot review their own account.
		reviewer := &models.JWTClaims{UserID: 42, Role: models.RoleSuperAdmin}
		err := CanChangeStatus(reviewer, 42, privileged)
		require.NotNil(t, err)
		assert.Equal(t, appErrors.ErrSelfStatusChange.Code, err.Code)
	})
}
