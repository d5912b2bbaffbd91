package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edupanel/personnel-api/internal/models"
	appErrors "github.com/edupanel/personnel-api/pkg/errors"
)

type directorySnapshotter interface {
	Snapshot(ctx context.Context) ([]models.DirectoryRecord, error)
}

type accountSnapshotter interface {
	Snapshot(ctx context.Context) ([]models.AccountRecord, error)
}

// IdentityKey computes the dedup key for a personnel record. Records with a
// non-empty email share a case-insensitive key; everything else gets a
// synthetic per-record key and is never auto-merged.
func IdentityKey(email, source, id string, ordinal int) string {
	norm := strings.ToLower(strings.TrimSpace(email))
	if norm != "" {
		return norm
	}
	if strings.TrimSpace(id) != "" {
		return fmt.Sprintf("%s:%s", source, id)
	}
	// Malformed record without an id: fall back to its position so it still
	// surfaces as a standalone entry.
	return fmt.Sprintf("%s:#%d", source, ordinal)
}

func roleAllowed(role models.Role, filter []models.Role) bool {
	if len(filter) == 0 {
		return role.TeacherEligible()
	}
	for _, r := range filter {
		if role == r {
			return true
		}
	}
	return false
}

// BuildUnifiedView reconciles full snapshots of both stores into one entry
// per real-world person. It is a pure function: callers must re-fetch both
// snapshots and call it again after any mutation.
//
// Accounts are inserted first so their fields win on merge; directory
// records then either fill the gaps of a colliding entry or stand alone.
// No input record is ever dropped.
func BuildUnifiedView(directory []models.DirectoryRecord, accounts []models.AccountRecord, roleFilter []models.Role) []models.UnifiedPersonView {
	index := make(map[string]*models.UnifiedPersonView, len(directory)+len(accounts))
	order := make([]string, 0, len(directory)+len(accounts))

	for i, acct := range accounts {
		if !roleAllowed(acct.Role, roleFilter) {
			continue
		}
		key := IdentityKey(acct.Email, "account", acct.ID, i)
		if _, exists := index[key]; exists {
			// Duplicate email inside the account store itself; the first
			// record keeps precedence.
			continue
		}
		view := &models.UnifiedPersonView{
			IdentityKey: key,
			DisplayName: acct.Username,
			Email:       strings.TrimSpace(acct.Email),
			Phone:       acct.Phone,
			Provenance:  models.ProvenanceAccount,
			SourceID:    acct.ID,
			AccountID:   acct.ID,
		}
		index[key] = view
		order = append(order, key)
	}

	for i, rec := range directory {
		key := IdentityKey(rec.Email, "directory", rec.ID, i)
		if existing, ok := index[key]; ok {
			// Merge only across stores. A second directory record with the
			// same email keeps first-record precedence and must not capture
			// the entry's edit routing.
			if existing.DirectoryID == "" {
				mergeDirectoryInto(existing, rec)
			}
			continue
		}
		view := &models.UnifiedPersonView{
			IdentityKey: key,
			DisplayName: rec.FullName,
			Designation: rec.Designation,
			Subject:     rec.Subject,
			Email:       strings.TrimSpace(rec.Email),
			Phone:       rec.Phone,
			PhotoURL:    rec.PhotoURL,
			Provenance:  models.ProvenanceDirectory,
			SourceID:    rec.ID,
			DirectoryID: rec.ID,
		}
		index[key] = view
		order = append(order, key)
	}

	views := make([]models.UnifiedPersonView, 0, len(order))
	for _, key := range order {
		views = append(views, *index[key])
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].DisplayName != views[j].DisplayName {
			return views[i].DisplayName < views[j].DisplayName
		}
		return views[i].IdentityKey < views[j].IdentityKey
	})

	return views
}

// mergeDirectoryInto fills fields the account-sourced entry lacks. The
// account record keeps precedence; provenance stays with the account store.
func mergeDirectoryInto(view *models.UnifiedPersonView, rec models.DirectoryRecord) {
	view.DirectoryID = rec.ID
	if view.DisplayName == "" {
		view.DisplayName = rec.FullName
	}
	if view.Designation == nil {
		view.Designation = rec.Designation
	}
	if view.Subject == nil {
		view.Subject = rec.Subject
	}
	if view.Phone == nil {
		view.Phone = rec.Phone
	}
	if view.PhotoURL == nil {
		view.PhotoURL = rec.PhotoURL
	}
}

// ReconciliationService materializes the unified personnel view from fresh
// store snapshots.
type ReconciliationService struct {
	directory directorySnapshotter
	accounts  accountSnapshotter
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewReconciliationService constructs a ReconciliationService.
func NewReconciliationService(directory directorySnapshotter, accounts accountSnapshotter, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{directory: directory, accounts: accounts, cache: cache, metrics: metrics, logger: logger}
}

// Snapshots fetches both stores concurrently. The reads are independent, so
// they run in parallel; anything downstream of them must not.
func (s *ReconciliationService) Snapshots(ctx context.Context) ([]models.DirectoryRecord, []models.AccountRecord, error) {
	var (
		directory []models.DirectoryRecord
		accounts  []models.AccountRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if directory, err = s.directory.Snapshot(gctx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "directory store unreachable")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if accounts, err = s.accounts.Snapshot(gctx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "account store unreachable")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return directory, accounts, nil
}

// UnifiedView returns the deduplicated personnel view, optionally scoped to
// the given account roles. A short-lived cache may serve repeated reads;
// every mutating operation busts it, so no view survives a mutation.
func (s *ReconciliationService) UnifiedView(ctx context.Context, roleFilter []models.Role) ([]models.UnifiedPersonView, error) {
	key := personnelViewKey(roleFilter)

	var cached []models.UnifiedPersonView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	start := time.Now()
	directory, accounts, err := s.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	views := BuildUnifiedView(directory, accounts, roleFilter)
	s.metrics.ObserveRebuild(time.Since(start))

	if err := s.cache.Set(ctx, key, views, 0); err != nil {
		s.logger.Warn("failed to cache unified view", zap.Error(err))
	}

	return views, nil
}

func personnelViewKey(roleFilter []models.Role) string {
	if len(roleFilter) == 0 {
		return "personnel:view:default"
	}
	parts := make([]string, len(roleFilter))
	for i, r := range roleFilter {
		parts[i] = string(r)
	}
	sort.Strings(parts)
	return "personnel:view:" + strings.Join(parts, ",")
}
