package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupanel/personnel-api/internal/models"
	appErrors "github.com/edupanel/personnel-api/pkg/errors"
)

type directoryRepository interface {
	List(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.DirectoryRecord, error)
	Create(ctx context.Context, record *models.DirectoryRecord) error
	Update(ctx context.Context, record *models.DirectoryRecord) error
	Delete(ctx context.Context, id string) error
}

// CreateTeacherRequest represents payload for creating directory records.
// Email is optional: directory records without one simply never auto-merge
// in the unified view.
type CreateTeacherRequest struct {
	FullName    string  `json:"full_name" validate:"required,max=200"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Designation *string `json:"designation" validate:"omitempty,max=100"`
	Subject     *string `json:"subject" validate:"omitempty,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	PhotoURL    *string `json:"photo_url" validate:"omitempty,max=500"`
	Intro       *string `json:"intro" validate:"omitempty,max=2000"`
}

// UpdateTeacherRequest represents payload for updating directory records.
type UpdateTeacherRequest struct {
	FullName    string  `json:"full_name" validate:"required,max=200"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Designation *string `json:"designation" validate:"omitempty,max=100"`
	Subject     *string `json:"subject" validate:"omitempty,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	PhotoURL    *string `json:"photo_url" validate:"omitempty,max=500"`
	Intro       *string `json:"intro" validate:"omitempty,max=2000"`
}

// DirectoryService orchestrates teacher directory operations.
type DirectoryService struct {
	repo      directoryRepository
	audit     auditWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(repo directoryRepository, audit auditWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DirectoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns directory records plus pagination data.
func (s *DirectoryService) List(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a directory record by id.
func (s *DirectoryService) Get(ctx context.Context, id string) (*models.DirectoryRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher record no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return record, nil
}

// Create registers a new directory record.
func (s *DirectoryService) Create(ctx context.Context, req CreateTeacherRequest, actorID string) (*models.DirectoryRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	record := &models.DirectoryRecord{
		FullName:    strings.TrimSpace(req.FullName),
		Email:       strings.TrimSpace(req.Email),
		Designation: normalizeOptional(req.Designation),
		Subject:     normalizeOptional(req.Subject),
		Phone:       normalizeOptional(req.Phone),
		PhotoURL:    normalizeOptional(req.PhotoURL),
		Intro:       normalizeOptional(req.Intro),
		LinkedUser:  models.Unlinked(),
	}

	defer s.cache.InvalidatePersonnel(ctx)

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.recordAudit(ctx, actorID, models.AuditActionTeacherCreate, record.ID, nil)
	return record, nil
}

// Update modifies an existing directory record. The link marker is not
// editable here; only the link workflow writes it.
func (s *DirectoryService) Update(ctx context.Context, id string, req UpdateTeacherRequest, actorID string) (*models.DirectoryRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher record no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	record.FullName = strings.TrimSpace(req.FullName)
	record.Email = strings.TrimSpace(req.Email)
	record.Designation = normalizeOptional(req.Designation)
	record.Subject = normalizeOptional(req.Subject)
	record.Phone = normalizeOptional(req.Phone)
	record.PhotoURL = normalizeOptional(req.PhotoURL)
	record.Intro = normalizeOptional(req.Intro)

	defer s.cache.InvalidatePersonnel(ctx)

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}

	s.recordAudit(ctx, actorID, models.AuditActionTeacherUpdate, record.ID, nil)
	return record, nil
}

// Delete removes a directory record.
func (s *DirectoryService) Delete(ctx context.Context, id string, actorID string) error {
	defer s.cache.InvalidatePersonnel(ctx)

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher record no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}

	s.recordAudit(ctx, actorID, models.AuditActionTeacherDelete, id, nil)
	return nil
}

func (s *DirectoryService) recordAudit(ctx context.Context, actorID string, action models.AuditAction, resourceID string, detail json.RawMessage) {
	entry := &models.AuditEntry{
		Action:   action,
		Resource: "teachers",
		Detail:   detail,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record teacher audit entry", zap.Error(err))
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
