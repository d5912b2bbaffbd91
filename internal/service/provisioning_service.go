package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupanel/personnel-api/internal/models"
	"github.com/edupanel/personnel-api/pkg/config"
	"github.com/edupanel/personnel-api/pkg/credentials"
	appErrors "github.com/edupanel/personnel-api/pkg/errors"
)

type provisioningRepository interface {
	FindByID(ctx context.Context, id string) (*models.AccountRecord, error)
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	Create(ctx context.Context, record *models.AccountRecord) error
	UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error
}

// CreateAccountRequest represents payload for provisioning a new account.
type CreateAccountRequest struct {
	Username           string      `json:"username" validate:"required,min=3,max=50"`
	Role               models.Role `json:"role" validate:"required,oneof=TEACHER STUDENT ADMIN GENERAL"`
	Email              string      `json:"email" validate:"omitempty,email"`
	Phone              *string     `json:"phone" validate:"omitempty,max=50"`
	Password           string      `json:"password" validate:"omitempty,min=6"`
	Active             *bool       `json:"is_active"`
	MustChangePassword *bool       `json:"must_change_password"`
}

// ProvisionedAccount is the create response. TempPassword is present only
// when the service generated the credential, and only in this response; it
// is never stored or re-readable.
type ProvisionedAccount struct {
	Account      models.AccountRecord `json:"account"`
	TempPassword string               `json:"temp_password,omitempty"`
}

// TempCredential is the reset-password response. The value is write-once:
// no subsequent read ever exposes it again.
type TempCredential struct {
	TempPassword string `json:"temp_password"`
}

// ProvisioningService creates accounts and reissues one-time credentials.
type ProvisioningService struct {
	repo      provisioningRepository
	audit     auditWriter
	cache     *CacheService
	cfg       config.ProvisioningConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProvisioningService constructs a ProvisioningService.
func NewProvisioningService(repo provisioningRepository, audit auditWriter, cache *CacheService, cfg config.ProvisioningConfig, validate *validator.Validate, logger *zap.Logger) *ProvisioningService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisioningService{repo: repo, audit: audit, cache: cache, cfg: cfg, validator: validate, logger: logger}
}

// CreateAccount provisions a new account. When no explicit password is
// supplied a temporary credential is generated and returned exactly once.
func (s *ProvisioningService) CreateAccount(ctx context.Context, req CreateAccountRequest, actorID string) (*ProvisionedAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}

	username := strings.TrimSpace(req.Username)
	exists, err := s.repo.ExistsByUsername(ctx, username, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}

	password := req.Password
	generated := false
	if password == "" {
		password, err = credentials.NewTempPassword(s.cfg.TempPasswordLength)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate credential")
		}
		generated = true
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	account := &models.AccountRecord{
		Username:           username,
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:              req.Phone,
		Role:               req.Role,
		Active:             true,
		MustChangePassword: true,
		PasswordHash:       string(hash),
	}
	if req.Active != nil {
		account.Active = *req.Active
	}
	if req.MustChangePassword != nil {
		account.MustChangePassword = *req.MustChangePassword
	}

	defer s.cache.InvalidatePersonnel(ctx)

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	detail, _ := json.Marshal(map[string]interface{}{"username": account.Username, "role": account.Role, "generated_credential": generated})
	s.recordAudit(ctx, actorID, models.AuditActionUserCreate, account.ID, detail)

	result := &ProvisionedAccount{Account: *account}
	if generated {
		result.TempPassword = password
	}
	return result, nil
}

// ResetPassword issues a fresh one-time credential for an existing account,
// overwriting the previous one. Repeated calls each succeed and each return
// a new credential.
func (s *ProvisioningService) ResetPassword(ctx context.Context, accountID, actorID string) (*TempCredential, error) {
	if _, err := s.repo.FindByID(ctx, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account record no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "account store unreachable")
	}

	password, err := credentials.NewTempPassword(s.cfg.TempPasswordLength)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate credential")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	defer s.cache.InvalidatePersonnel(ctx)

	if err := s.repo.UpdatePassword(ctx, accountID, string(hash), true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset password")
	}

	s.recordAudit(ctx, actorID, models.AuditActionUserReset, accountID, nil)

	return &TempCredential{TempPassword: password}, nil
}

func (s *ProvisioningService) bcryptCost() int {
	if s.cfg.BcryptCost >= bcrypt.MinCost && s.cfg.BcryptCost <= bcrypt.MaxCost {
		return s.cfg.BcryptCost
	}
	return bcrypt.DefaultCost
}

func (s *ProvisioningService) recordAudit(ctx context.Context, actorID string, action models.AuditAction, resourceID string, detail json.RawMessage) {
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
		s.logger.Warn("failed to record provisioning audit entry", zap.Error(err))
	}
}
