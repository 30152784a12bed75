package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// StudentRepository manages the two-row (user + profile) persistence of
// student records. The compound operations wrap both statements in a single
// transaction so a crash can never leave an orphaned half of the pair.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the conjunctive filter. The student role
// predicate is always present; results are ordered by identity ascending.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter, roleID int64) ([]models.StudentSummary, error) {
	query := `SELECT u.id, u.name, u.email, u.last_login, u.is_active
        FROM users u
        LEFT JOIN user_profiles p ON u.id = p.user_id
        WHERE u.role_id = $1`
	args := []interface{}{roleID}

	if filter.Name != "" {
		query += fmt.Sprintf(" AND u.name = $%d", len(args)+1)
		args = append(args, filter.Name)
	}
	if filter.Class != "" {
		query += fmt.Sprintf(" AND p.class_name = $%d", len(args)+1)
		args = append(args, filter.Class)
	}
	if filter.Section != "" {
		query += fmt.Sprintf(" AND p.section_name = $%d", len(args)+1)
		args = append(args, filter.Section)
	}
	if filter.Roll != nil {
		query += fmt.Sprintf(" AND p.roll = $%d", len(args)+1)
		args = append(args, *filter.Roll)
	}

	query += " ORDER BY u.id"

	var students []models.StudentSummary
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindUserByEmail is the uniqueness probe for the add operation. Emails are
// stored lowercase so the caller passes the normalized value.
func (r *StudentRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, name, email, role_id, is_active, reporter_id, last_login,
        status_last_reviewed_dt, status_last_reviewer_id, created_dt, updated_dt
        FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindUserByID is the existence probe shared by update, detail, status and
// delete.
func (r *StudentRepository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT id, name, email, role_id, is_active, reporter_id, last_login,
        status_last_reviewed_dt, status_last_reviewer_id, created_dt, updated_dt
        FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// CreateStudent inserts the user row and its profile row as one unit and
// returns the new user id.
func (r *StudentRepository) CreateStudent(ctx context.Context, rec *models.StudentRecord, roleID, reporterID int64) (userID int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertUser = `INSERT INTO users (name, email, role_id, is_active, reporter_id, created_dt)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now().UTC()
	if err = tx.GetContext(ctx, &userID, insertUser, rec.Name, rec.Email, roleID, rec.SystemAccess, reporterID, now); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	const insertProfile = `INSERT INTO user_profiles (
            user_id, gender, phone, dob, admission_dt, class_name, section_name, roll,
            current_address, permanent_address, father_name, father_phone, mother_name,
            mother_phone, guardian_name, guardian_phone, relation_of_guardian
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	if _, err = tx.ExecContext(ctx, insertProfile,
		userID, rec.Gender, nullable(rec.Phone), rec.Dob, rec.AdmissionDate, rec.Class, rec.Section, rec.Roll,
		rec.CurrentAddress, rec.PermanentAddress, rec.FatherName, nullable(rec.FatherPhone), nullable(rec.MotherName),
		nullable(rec.MotherPhone), rec.GuardianName, rec.GuardianPhone, rec.RelationOfGuardian,
	); err != nil {
		return 0, fmt.Errorf("insert user profile: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create student: %w", err)
	}
	return userID, nil
}

// UpdateStudent replaces both rows of an existing student as one unit.
func (r *StudentRepository) UpdateStudent(ctx context.Context, rec *models.StudentRecord) (err error) {
	if rec.UserID == nil {
		return fmt.Errorf("update student: missing user id")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateUser = `UPDATE users SET name = $1, email = $2, is_active = $3, updated_dt = $4 WHERE id = $5`
	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, updateUser, rec.Name, rec.Email, rec.SystemAccess, now, *rec.UserID); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	const updateProfile = `UPDATE user_profiles SET
            gender = $1, phone = $2, dob = $3, admission_dt = $4, class_name = $5,
            section_name = $6, roll = $7, current_address = $8, permanent_address = $9,
            father_name = $10, father_phone = $11, mother_name = $12, mother_phone = $13,
            guardian_name = $14, guardian_phone = $15, relation_of_guardian = $16
        WHERE user_id = $17`
	if _, err = tx.ExecContext(ctx, updateProfile,
		rec.Gender, nullable(rec.Phone), rec.Dob, rec.AdmissionDate, rec.Class,
		rec.Section, rec.Roll, rec.CurrentAddress, rec.PermanentAddress,
		rec.FatherName, nullable(rec.FatherPhone), nullable(rec.MotherName), nullable(rec.MotherPhone),
		rec.GuardianName, rec.GuardianPhone, rec.RelationOfGuardian, *rec.UserID,
	); err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	return nil
}

// FindStudentDetail joins user, profile and reporting-user name.
func (r *StudentRepository) FindStudentDetail(ctx context.Context, id int64) (*models.StudentDetail, error) {
	const query = `SELECT
            u.id, u.name, u.email, u.is_active,
            p.phone, p.gender, p.dob, p.class_name, p.section_name, p.roll,
            p.father_name, p.father_phone, p.mother_name, p.mother_phone,
            p.guardian_name, p.guardian_phone, p.relation_of_guardian,
            p.current_address, p.permanent_address, p.admission_dt,
            r.name AS reporter_name
        FROM users u
        LEFT JOIN user_profiles p ON u.id = p.user_id
        LEFT JOIN users r ON u.reporter_id = r.id
        WHERE u.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SetStatus atomically updates is_active together with the review audit
// fields, returning the number of affected rows.
func (r *StudentRepository) SetStatus(ctx context.Context, update models.StatusUpdate) (int64, error) {
	const query = `UPDATE users
        SET is_active = $1, status_last_reviewed_dt = $2, status_last_reviewer_id = $3
        WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, update.Status, time.Now().UTC(), update.ReviewerID, update.UserID)
	if err != nil {
		return 0, fmt.Errorf("set student status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("set student status rows: %w", err)
	}
	return affected, nil
}

// Delete removes the profile row then the user row inside one transaction.
// A user-row delete affecting zero rows aborts the transaction.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("delete user profile: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}

// nullable maps empty optional strings to SQL NULL.
func nullable(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
