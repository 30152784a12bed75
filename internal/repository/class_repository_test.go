package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassRepositoryListClasses(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "sections"}).
		AddRow(int64(1), "Grade 5", "A, B").
		AddRow(int64(2), "Grade 6", "A")
	mock.ExpectQuery(`SELECT id, name, sections FROM classes ORDER BY name`).
		WillReturnRows(rows)

	classes, err := repo.ListClasses(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, "Grade 5", classes[0].Name)
	assert.Equal(t, []string{"A", "B"}, classes[0].SectionNames())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListSections(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), "A").
		AddRow(int64(2), "B")
	mock.ExpectQuery(`SELECT id, name FROM sections ORDER BY name`).
		WillReturnRows(rows)

	sections, err := repo.ListSections(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "B", sections[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
