package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edupanel/personnel-api/internal/models"
	appErrors "github.com/edupanel/personnel-api/pkg/errors"
)

type mockAccountRepo struct {
	records map[string]*models.AccountRecord
}

func newMockAccountRepo(records ...*models.AccountRecord) *mockAccountRepo {
	m := &mockAccountRepo{records: make(map[string]*models.AccountRecord)}
	for _, rec := range records {
		m.records[rec.ID] = rec
	}
	return m
}

func (m *mockAccountRepo) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountRecord, int, error) {
	out := make([]models.AccountRecord, 0, len(m.records))
	for _, rec := range m.records {
		if filter.Role != nil && rec.Role != *filter.Role {
			continue
		}
		out = append(out, *rec)
	}
	return out, len(out), nil
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*models.AccountRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *rec
	return &copied, nil
}

func (m *mockAccountRepo) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	for _, rec := range m.records {
		if rec.ID != excludeID && rec.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) Update(ctx context.Context, record *models.AccountRecord) error {
	if _, ok := m.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

func (m *mockAccountRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.records, id)
	return nil
}

func TestAccountUpdate(t *testing.T) {
	repo := newMockAccountRepo(&models.AccountRecord{ID: "1", Username: "old", Role: models.RoleGeneral, Active: true})
	audit := &mockAuditRepo{}
	svc := NewAccountService(repo, audit, nil, nil, zap.NewNop())

	inactive := false
	updated, err := svc.Update(context.Background(), "1", UpdateAccountRequest{
		Username: "renamed",
		Email:    "Renamed@School.EDU",
		Role:     models.RoleTeacher,
		Active:   &inactive,
	}, "admin")
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Username)
	assert.Equal(t, "renamed@school.edu", updated.Email)
	assert.Equal(t, models.RoleTeacher, updated.Role)
	assert.False(t, updated.Active)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionUserUpdate, audit.entries[0].Action)
}

func TestAccountUpdateDuplicateUsername(t *testing.T) {
	repo := newMockAccountRepo(
		&models.AccountRecord{ID: "1", Username: "one", Role: models.RoleTeacher},
		&models.AccountRecord{ID: "2", Username: "two", Role: models.RoleTeacher},
	)
	svc := NewAccountService(repo, &mockAuditRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), "1", UpdateAccountRequest{Username: "two", Role: models.RoleTeacher}, "")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict.Code))

	// Keeping your own username is not a conflict.
	_, err = svc.Update(context.Background(), "1", UpdateAccountRequest{Username: "one", Role: models.RoleTeacher}, "")
	require.NoError(t, err)
}

func TestAccountUpdateNotFound(t *testing.T) {
	svc := NewAccountService(newMockAccountRepo(), &mockAuditRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), "gone", UpdateAccountRequest{Username: "abc", Role: models.RoleTeacher}, "")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestAccountDelete(t *testing.T) {
	repo := newMockAccountRepo(&models.AccountRecord{ID: "1", Username: "a", Role: models.RoleTeacher})
	svc := NewAccountService(repo, &mockAuditRepo{}, nil, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "1", ""))

	err := svc.Delete(context.Background(), "1", "")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestAccountGet(t *testing.T) {
	repo := newMockAccountRepo(&models.AccountRecord{ID: "1", Username: "a", Role: models.RoleTeacher})
	svc := NewAccountService(repo, &mockAuditRepo{}, nil, nil, zap.NewNop())

	record, err := svc.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "a", record.Username)

	_, err = svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}
