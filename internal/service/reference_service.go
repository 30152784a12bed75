package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

const (
	cacheKeyClasses  = "reference:classes"
	cacheKeySections = "reference:sections"
)

type classCatalog interface {
	ListClasses(ctx context.Context) ([]models.Class, error)
	ListSections(ctx context.Context) ([]models.Section, error)
}

type referenceCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReferenceService exposes the class/section catalogs and the cross-field
// validation used before any student write. Catalogs are cached because they
// change rarely and every add/update consults them.
type ReferenceService struct {
	repo    classCatalog
	cache   referenceCache
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReferenceService constructs a ReferenceService. Cache and metrics may be
// nil.
func NewReferenceService(repo classCatalog, cache referenceCache, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{repo: repo, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

// ListClasses returns the class catalog, served from cache when warm.
func (s *ReferenceService) ListClasses(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if s.lookupCache(ctx, cacheKeyClasses, &classes) {
		return classes, nil
	}

	classes, err := s.repo.ListClasses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class catalog")
	}
	s.storeCache(ctx, cacheKeyClasses, classes)
	return classes, nil
}

// ListSections returns the global section catalog, served from cache when warm.
func (s *ReferenceService) ListSections(ctx context.Context) ([]models.Section, error) {
	var sections []models.Section
	if s.lookupCache(ctx, cacheKeySections, &sections) {
		return sections, nil
	}

	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section catalog")
	}
	s.storeCache(ctx, cacheKeySections, sections)
	return sections, nil
}

// GetClassByName returns the class with the given name, or nil when absent.
func (s *ReferenceService) GetClassByName(ctx context.Context, name string) (*models.Class, error) {
	classes, err := s.ListClasses(ctx)
	if err != nil {
		return nil, err
	}
	for i := range classes {
		if strings.EqualFold(classes[i].Name, name) {
			return &classes[i], nil
		}
	}
	return nil, nil
}

// GetSectionByName returns the section with the given name, or nil when absent.
func (s *ReferenceService) GetSectionByName(ctx context.Context, name string) (*models.Section, error) {
	sections, err := s.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if strings.EqualFold(sections[i].Name, name) {
			return &sections[i], nil
		}
	}
	return nil, nil
}

// ValidateClassAndSection runs the three-stage reference check: the class must
// exist, the section must exist globally, and the section must be assigned to
// the class. Each stage fails with a message enumerating the valid options so
// callers can correct their input.
func (s *ReferenceService) ValidateClassAndSection(ctx context.Context, className, sectionName string) (*models.Class, *models.Section, error) {
	classes, err := s.ListClasses(ctx)
	if err != nil {
		return nil, nil, err
	}

	var class *models.Class
	for i := range classes {
		if strings.EqualFold(classes[i].Name, className) {
			class = &classes[i]
			break
		}
	}
	if class == nil {
		names := make([]string, 0, len(classes))
		for _, c := range classes {
			names = append(names, c.Name)
		}
		return nil, nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("Class %q does not exist. Available classes: %s", className, joinOrNone(names)))
	}

	sections, err := s.ListSections(ctx)
	if err != nil {
		return nil, nil, err
	}

	var section *models.Section
	for i := range sections {
		if strings.EqualFold(sections[i].Name, sectionName) {
			section = &sections[i]
			break
		}
	}
	if section == nil {
		names := make([]string, 0, len(sections))
		for _, sec := range sections {
			names = append(names, sec.Name)
		}
		return nil, nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("Section %q does not exist. Available sections: %s", sectionName, joinOrNone(names)))
	}

	if !class.HasSection(sectionName) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("Section %q is not assigned to class %q. Assigned sections: %s", sectionName, class.Name, joinOrNone(class.SectionNames())))
	}

	return class, section, nil
}

func (s *ReferenceService) lookupCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	start := time.Now()
	err := s.cache.Get(ctx, key, dest)
	hit := err == nil
	s.metrics.RecordCacheOperation(hit, time.Since(start))
	if err != nil && err != appErrors.ErrCacheMiss {
		s.logger.Warn("reference cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	return hit
}

func (s *ReferenceService) storeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("reference cache store failed", zap.String("key", key), zap.Error(err))
	}
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}
