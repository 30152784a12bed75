package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// ClassRepository is a read-only projection over the administrator-managed
// class and section catalogs. This module never mutates them.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListClasses returns the full class catalog ordered by name.
func (r *ClassRepository) ListClasses(ctx context.Context) ([]models.Class, error) {
	const query = `SELECT id, name, sections FROM classes ORDER BY name`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListSections returns the global section catalog ordered by name.
func (r *ClassRepository) ListSections(ctx context.Context) ([]models.Section, error) {
	const query = `SELECT id, name FROM sections ORDER BY name`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}
