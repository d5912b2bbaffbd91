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

type accountRepository interface {
	List(ctx context.Context, filter models.AccountFilter) ([]models.AccountRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.AccountRecord, error)
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	Update(ctx context.Context, record *models.AccountRecord) error
	Delete(ctx context.Context, id string) error
}

// UpdateAccountRequest represents payload for editing an account.
type UpdateAccountRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=50"`
	Email    string      `json:"email" validate:"omitempty,email"`
	Phone    *string     `json:"phone" validate:"omitempty,max=50"`
	Role     models.Role `json:"role" validate:"required,oneof=TEACHER STUDENT ADMIN GENERAL"`
	Active   *bool       `json:"is_active"`
}

// AccountService handles account management outside of provisioning.
type AccountService struct {
	repo      accountRepository
	audit     auditWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo accountRepository, audit auditWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns accounts plus pagination data.
func (s *AccountService) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
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

// Get returns an account by id.
func (s *AccountService) Get(ctx context.Context, id string) (*models.AccountRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account record no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return record, nil
}

// Update modifies an existing account's profile attributes.
func (s *AccountService) Update(ctx context.Context, id string, req UpdateAccountRequest, actorID string) (*models.AccountRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account record no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}

	username := strings.TrimSpace(req.Username)
	exists, err := s.repo.ExistsByUsername(ctx, username, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}

	record.Username = username
	record.Email = strings.ToLower(strings.TrimSpace(req.Email))
	record.Phone = normalizeOptional(req.Phone)
	record.Role = req.Role
	if req.Active != nil {
		record.Active = *req.Active
	}

	defer s.cache.InvalidatePersonnel(ctx)

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}

	detail, _ := json.Marshal(map[string]interface{}{"role": record.Role, "active": record.Active})
	s.recordAudit(ctx, actorID, models.AuditActionUserUpdate, record.ID, detail)
	return record, nil
}

// Delete removes an account record.
func (s *AccountService) Delete(ctx context.Context, id string, actorID string) error {
	defer s.cache.InvalidatePersonnel(ctx)

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account record no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account")
	}

	s.recordAudit(ctx, actorID, models.AuditActionUserDelete, id, nil)
	return nil
}

func (s *AccountService) recordAudit(ctx context.Context, actorID string, action models.AuditAction, resourceID string, detail json.RawMessage) {
	entry := &models.AuditEntry{
		Action:   action,
		Resource: "users",
		Detail:   detail,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record account audit entry", zap.Error(err))
	}
}
