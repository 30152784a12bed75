package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-mgmt-api/internal/dto"
	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/config"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

type mockStudentRepo struct {
	users        map[int64]models.User
	usersByEmail map[string]models.User
	summaries    []models.StudentSummary
	detail       *models.StudentDetail
	nextID       int64
	created      []*models.StudentRecord
	updated      []*models.StudentRecord
	statusCalls  []models.StatusUpdate
	deleted      []int64
	statusRows   int64
	listErr      error
	deleteErr    error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter, roleID int64) ([]models.StudentSummary, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.summaries, nil
}

func (m *mockStudentRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) CreateStudent(ctx context.Context, rec *models.StudentRecord, roleID, reporterID int64) (int64, error) {
	m.created = append(m.created, rec)
	if m.nextID == 0 {
		m.nextID = 100
	}
	return m.nextID, nil
}

func (m *mockStudentRepo) UpdateStudent(ctx context.Context, rec *models.StudentRecord) error {
	m.updated = append(m.updated, rec)
	return nil
}

func (m *mockStudentRepo) FindStudentDetail(ctx context.Context, id int64) (*models.StudentDetail, error) {
	if m.detail == nil {
		return nil, sql.ErrNoRows
	}
	return m.detail, nil
}

func (m *mockStudentRepo) SetStatus(ctx context.Context, update models.StatusUpdate) (int64, error) {
	m.statusCalls = append(m.statusCalls, update)
	return m.statusRows, nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockReferenceValidator struct {
	err   error
	calls int
}

func (m *mockReferenceValidator) ValidateClassAndSection(ctx context.Context, className, sectionName string) (*models.Class, *models.Section, error) {
	m.calls++
	if m.err != nil {
		return nil, nil, m.err
	}
	return &models.Class{ID: 1, Name: className}, &models.Section{ID: 1, Name: sectionName}, nil
}

type mockMailer struct {
	sent []int64
	err  error
}

func (m *mockMailer) SendAccountVerificationEmail(ctx context.Context, userID int64, email string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, userID)
	return nil
}

func testStudentsConfig() config.StudentsConfig {
	return config.StudentsConfig{
		RoleID:               3,
		ReporterID:           1,
		EmptyListAsNotFound:  true,
		PrivilegedReviewRole: []string{"ADMIN", "SUPERADMIN"},
	}
}

func TestStudentServiceListEmptyIsNotFound(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)

	_, err := svc.List(context.Background(), models.StudentFilter{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "Students not found", appErr.Message)
}

func TestStudentServiceListEmptyPolicyOff(t *testing.T) {
	repo := &mockStudentRepo{}
	cfg := testStudentsConfig()
	cfg.EmptyListAsNotFound = false
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, cfg, nil, nil)

	students, err := svc.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestStudentServiceAdd(t *testing.T) {
	repo := &mockStudentRepo{nextID: 42}
	refs := &mockReferenceValidator{}
	mail := &mockMailer{}
	svc := NewStudentService(repo, refs, mail, testStudentsConfig(), nil, nil)

	result, err := svc.Add(context.Background(), validStudentPayload())
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.UserID)
	assert.Equal(t, "Student added and verification email sent successfully.", result.Message)
	assert.Equal(t, 1, refs.calls)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "jane.doe@example.com", repo.created[0].Email)
	assert.Equal(t, []int64{42}, mail.sent)
}

func TestStudentServiceAddMailFailureSoftensMessage(t *testing.T) {
	repo := &mockStudentRepo{nextID: 42}
	mail := &mockMailer{err: errors.New("smtp down")}
	svc := NewStudentService(repo, &mockReferenceValidator{}, mail, testStudentsConfig(), nil, nil)

	result, err := svc.Add(context.Background(), validStudentPayload())
	require.NoError(t, err)
	assert.Equal(t, "Student added, but failed to send verification email.", result.Message)
	assert.Len(t, repo.created, 1)
}

func TestStudentServiceAddDuplicateEmail(t *testing.T) {
	repo := &mockStudentRepo{
		usersByEmail: map[string]models.User{"jane.doe@example.com": {ID: 9}},
	}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)

	_, err := svc.Add(context.Background(), validStudentPayload())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "Email already exists", appErr.Message)
	assert.Empty(t, repo.created)
}

func TestStudentServiceAddValidationShortCircuits(t *testing.T) {
	repo := &mockStudentRepo{}
	refs := &mockReferenceValidator{}
	svc := NewStudentService(repo, refs, &mockMailer{}, testStudentsConfig(), nil, nil)

	_, err := svc.Add(context.Background(), dto.StudentPayload{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.NotEmpty(t, appErr.Details)
	// No persistence or reference traffic on invalid input.
	assert.Equal(t, 0, refs.calls)
	assert.Empty(t, repo.created)
}

func TestStudentServiceAddReferenceFailure(t *testing.T) {
	repo := &mockStudentRepo{}
	refs := &mockReferenceValidator{err: appErrors.Clone(appErrors.ErrValidation, "no such class")}
	svc := NewStudentService(repo, refs, &mockMailer{}, testStudentsConfig(), nil, nil)

	_, err := svc.Add(context.Background(), validStudentPayload())
	require.Error(t, err)
	assert.Equal(t, "no such class", appErrors.FromError(err).Message)
	assert.Empty(t, repo.created)
}

func TestStudentServiceAddThenDetailRoundTrip(t *testing.T) {
	repo := &mockStudentRepo{nextID: 42}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)

	result, err := svc.Add(context.Background(), validStudentPayload())
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	// Serve the detail back from what the repository was asked to persist.
	rec := repo.created[0]
	roll := rec.Roll
	dob := rec.Dob
	repo.users = map[int64]models.User{result.UserID: {ID: result.UserID}}
	repo.detail = &models.StudentDetail{
		ID:           result.UserID,
		Name:         rec.Name,
		Email:        rec.Email,
		SystemAccess: rec.SystemAccess,
		Gender:       &rec.Gender,
		Dob:          &dob,
		Class:        &rec.Class,
		Section:      &rec.Section,
		Roll:         &roll,
	}

	detail, err := svc.Detail(context.Background(), result.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", detail.Name)
	assert.Equal(t, "jane.doe@example.com", detail.Email)
	assert.Equal(t, "female", *detail.Gender)
	assert.Equal(t, "Grade 5", *detail.Class)
	assert.Equal(t, "A", *detail.Section)
	assert.Equal(t, 25, *detail.Roll)
	assert.True(t, detail.SystemAccess)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := &mockStudentRepo{users: map[int64]models.User{7: {ID: 7}}}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)

	result, err := svc.Update(context.Background(), 7, validStudentPayload())
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.UserID)
	assert.Equal(t, "Student updated successfully", result.Message)
	require.Len(t, repo.updated, 1)
	require.NotNil(t, repo.updated[0].UserID)
	assert.Equal(t, int64(7), *repo.updated[0].UserID)
}

func TestStudentServiceUpdateMissingStudent(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)

	_, err := svc.Update(context.Background(), 7, validStudentPayload())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "Student not found", appErr.Message)
}

func TestStudentServiceSetStatus(t *testing.T) {
	repo := &mockStudentRepo{users: map[int64]models.User{7: {ID: 7}}, statusRows: 1}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)
	reviewer := &models.JWTClaims{UserID: 2, Role: models.RoleAdmin}

	result, err := svc.SetStatus(context.Background(), 7, false, reviewer)
	require.NoError(t, err)
	assert.Equal(t, "Student status changed successfully", result.Message)
	require.Len(t, repo.statusCalls, 1)
	assert.Equal(t, int64(7), repo.statusCalls[0].UserID)
	assert.Equal(t, int64(2), repo.statusCalls[0].ReviewerID)
	assert.False(t, repo.statusCalls[0].Status)
}

func TestStudentServiceSetStatusSelf(t *testing.T) {
	repo := &mockStudentRepo{users: map[int64]models.User{7: {ID: 7}}, statusRows: 1}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)
	reviewer := &models.JWTClaims{UserID: 7, Role: models.RoleAdmin}

	_, err := svc.SetStatus(context.Background(), 7, false, reviewer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSelfStatusChange.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusCalls)
}

func TestStudentServiceSetStatusUnprivileged(t *testing.T) {
	repo := &mockStudentRepo{users: map[int64]models.User{7: {ID: 7}}, statusRows: 1}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)
	reviewer := &models.JWTClaims{UserID: 2, Role: models.RoleTeacher}

	_, err := svc.SetStatus(context.Background(), 7, true, reviewer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceSetStatusNoRowsAffected(t *testing.T) {
	repo := &mockStudentRepo{users: map[int64]models.User{7: {ID: 7}}, statusRows: 0}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)
	reviewer := &models.JWTClaims{UserID: 2, Role: models.RoleAdmin}

	_, err := svc.SetStatus(context.Background(), 7, true, reviewer)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, "Unable to change student status", appErr.Message)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := &mockStudentRepo{users: map[int64]models.User{7: {ID: 7}}}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)

	result, err := svc.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Student deleted successfully", result.Message)
	assert.Equal(t, []int64{7}, repo.deleted)
}

func TestStudentServiceDeleteMissing(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)

	_, err := svc.Delete(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDetailMissing(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)

	_, err := svc.Detail(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceExportRoster(t *testing.T) {
	repo := &mockStudentRepo{summaries: []models.StudentSummary{
		{ID: 1, Name: "Jane", Email: "jane@example.com", SystemAccess: true},
	}}
	svc := NewStudentService(repo, &mockReferenceValidator{}, &mockMailer{}, testStudentsConfig(), nil, nil)

	payload, contentType, err := svc.ExportRoster(context.Background(), models.StudentFilter{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "jane@example.com")

	payload, contentType, err = svc.ExportRoster(context.Background(), models.StudentFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.NotEmpty(t, payload)

	_, _, err = svc.ExportRoster(context.Background(), models.StudentFilter{}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
