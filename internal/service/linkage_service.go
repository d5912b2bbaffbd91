package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edupanel/personnel-api/internal/models"
	appErrors "github.com/edupanel/personnel-api/pkg/errors"
)

type linkageDirectoryRepository interface {
	Snapshot(ctx context.Context) ([]models.DirectoryRecord, error)
	FindByID(ctx context.Context, id string) (*models.DirectoryRecord, error)
	SetLink(ctx context.Context, teacherID, userID string) (bool, error)
}

type linkageAccountRepository interface {
	Snapshot(ctx context.Context) ([]models.AccountRecord, error)
	FindByID(ctx context.Context, id string) (*models.AccountRecord, error)
}

type auditWriter interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
}

// EligibleTeachers filters a directory snapshot down to records that may be
// bound to an account: the link marker is explicitly unlinked or absent.
// Unknown markers are excluded.
func EligibleTeachers(records []models.DirectoryRecord) []models.DirectoryRecord {
	eligible := make([]models.DirectoryRecord, 0, len(records))
	for _, rec := range records {
		if rec.LinkedUser.Eligible() {
			eligible = append(eligible, rec)
		}
	}
	return eligible
}

// EligibleAccounts filters an account snapshot down to teacher-eligible
// roles whose derived link marker is unlinked.
func EligibleAccounts(records []models.AccountRecord) []models.AccountRecord {
	eligible := make([]models.AccountRecord, 0, len(records))
	for _, rec := range records {
		if rec.Role.TeacherEligible() && rec.LinkedTeacher.Eligible() {
			eligible = append(eligible, rec)
		}
	}
	return eligible
}

// SearchTeachers narrows records by case-insensitive substring match over
// the display name and contact email. It never mutates eligibility state.
func SearchTeachers(records []models.DirectoryRecord, query string) []models.DirectoryRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	matched := make([]models.DirectoryRecord, 0, len(records))
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.FullName), query) ||
			strings.Contains(strings.ToLower(rec.Email), query) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// SearchAccounts narrows records by case-insensitive substring match over
// the username and email.
func SearchAccounts(records []models.AccountRecord, query string) []models.AccountRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	matched := make([]models.AccountRecord, 0, len(records))
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Username), query) ||
			strings.Contains(strings.ToLower(rec.Email), query) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// LinkResult reports a successful bind operation.
type LinkResult struct {
	TeacherID string    `json:"teacher_id"`
	UserID    string    `json:"user_id"`
	LinkedAt  time.Time `json:"linked_at"`
}

// LinkageService performs the explicit bind between a directory record and
// an account record.
type LinkageService struct {
	directory linkageDirectoryRepository
	accounts  linkageAccountRepository
	audit     auditWriter
	cache     *CacheService
	logger    *zap.Logger
}

// NewLinkageService constructs a LinkageService.
func NewLinkageService(directory linkageDirectoryRepository, accounts linkageAccountRepository, audit auditWriter, cache *CacheService, logger *zap.Logger) *LinkageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkageService{directory: directory, accounts: accounts, audit: audit, cache: cache, logger: logger}
}

// ListEligibleTeachers returns the unlinked directory pool, optionally
// narrowed by a search query.
func (s *LinkageService) ListEligibleTeachers(ctx context.Context, search string) ([]models.DirectoryRecord, error) {
	records, err := s.directory.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "directory store unreachable")
	}
	return SearchTeachers(EligibleTeachers(records), search), nil
}

// ListEligibleAccounts returns the unlinked teacher-eligible account pool,
// optionally narrowed by a search query.
func (s *LinkageService) ListEligibleAccounts(ctx context.Context, search string) ([]models.AccountRecord, error) {
	records, err := s.accounts.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "account store unreachable")
	}
	return SearchAccounts(EligibleAccounts(records), search), nil
}

// Link binds one directory record to one account record. Only the directory
// side is written; the account-side marker is derived on read, which leaves
// a documented eventual-consistency window rather than a two-store write.
// Callers must rebuild their pools from fresh snapshots afterwards.
func (s *LinkageService) Link(ctx context.Context, teacherID, userID, actorID string) (*LinkResult, error) {
	// The caller operates on a possibly stale snapshot, so every
	// precondition is rechecked against the stores here.
	defer s.cache.InvalidatePersonnel(ctx)

	teacher, err := s.directory.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher record no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "directory store unreachable")
	}
	if !teacher.LinkedUser.Eligible() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is already linked to an account")
	}

	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account record no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "account store unreachable")
	}
	if !account.Role.TeacherEligible() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "account role is not linkable to a teacher")
	}
	if !account.LinkedTeacher.Eligible() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "account is already linked to another teacher")
	}

	updated, err := s.directory.SetLink(ctx, teacherID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link teacher")
	}
	if !updated {
		// Someone else linked this record between the precondition check
		// and the conditional write.
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is already linked to an account")
	}

	result := &LinkResult{TeacherID: teacherID, UserID: userID, LinkedAt: time.Now().UTC()}

	detail, _ := json.Marshal(map[string]string{"user_id": userID})
	s.recordAudit(ctx, actorID, models.AuditActionTeacherLink, "teachers", teacherID, detail)

	return result, nil
}

func (s *LinkageService) recordAudit(ctx context.Context, actorID string, action models.AuditAction, resource, resourceID string, detail json.RawMessage) {
	entry := &models.AuditEntry{
		Action:   action,
		Resource: resource,
		Detail:   detail,
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record link audit entry", zap.Error(err))
	}
}
