package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edupanel/personnel-api/internal/models"
	appErrors "github.com/edupanel/personnel-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestBuildUnifiedViewMatchedPair(t *testing.T) {
	directory := []models.DirectoryRecord{
		{ID: "1", Email: "a@x.com", FullName: "A", Subject: strPtr("Math")},
	}
	accounts := []models.AccountRecord{
		{ID: "9", Email: "a@x.com", Username: "a", Role: models.RoleTeacher},
	}

	views := BuildUnifiedView(directory, accounts, nil)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, "a@x.com", view.IdentityKey)
	assert.Equal(t, models.ProvenanceAccount, view.Provenance)
	assert.Equal(t, "a", view.DisplayName)
	assert.Equal(t, "9", view.SourceID)
	assert.Equal(t, "9", view.AccountID)
	assert.Equal(t, "1", view.DirectoryID)
	// Fields the account lacks fall back to the directory record.
	require.NotNil(t, view.Subject)
	assert.Equal(t, "Math", *view.Subject)
}

func TestBuildUnifiedViewEmailCaseInsensitive(t *testing.T) {
	directory := []models.DirectoryRecord{{ID: "1", Email: "  A@X.COM ", FullName: "A"}}
	accounts := []models.AccountRecord{{ID: "9", Email: "a@x.com", Username: "a", Role: models.RoleTeacher}}

	views := BuildUnifiedView(directory, accounts, nil)
	require.Len(t, views, 1)
	assert.Equal(t, "a@x.com", views[0].IdentityKey)
}

func TestBuildUnifiedViewNoAccidentalGrouping(t *testing.T) {
	directory := []models.DirectoryRecord{
		{ID: "2", Email: "", FullName: "B"},
		{ID: "3", Email: "", FullName: "C"},
	}
	accounts := []models.AccountRecord{
		{ID: "10", Email: "", Username: "d", Role: models.RoleTeacher},
	}

	views := BuildUnifiedView(directory, accounts, nil)
	require.Len(t, views, 3)

	keys := make(map[string]bool)
	for _, v := range views {
		keys[v.IdentityKey] = true
	}
	assert.True(t, keys["directory:2"])
	assert.True(t, keys["directory:3"])
	assert.True(t, keys["account:10"])
}

func TestBuildUnifiedViewDuplicateDirectoryEmailFirstWins(t *testing.T) {
	directory := []models.DirectoryRecord{
		{ID: "1", Email: "dup@x.com", FullName: "First", Subject: strPtr("Math")},
		{ID: "2", Email: "dup@x.com", FullName: "Second", Phone: strPtr("555")},
	}

	views := BuildUnifiedView(directory, nil, nil)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, "First", view.DisplayName)
	// Edits and deletes route to the first record; the duplicate must not
	// capture the entry or leak its fields into it.
	assert.Equal(t, "1", view.DirectoryID)
	assert.Equal(t, "1", view.SourceID)
	assert.Nil(t, view.Phone)
}

func TestBuildUnifiedViewDuplicateAccountEmailFirstWins(t *testing.T) {
	accounts := []models.AccountRecord{
		{ID: "9", Email: "dup@x.com", Username: "first", Role: models.RoleTeacher},
		{ID: "10", Email: "dup@x.com", Username: "second", Role: models.RoleTeacher},
	}

	views := BuildUnifiedView(nil, accounts, nil)
	require.Len(t, views, 1)
	assert.Equal(t, "first", views[0].DisplayName)
	assert.Equal(t, "9", views[0].AccountID)
	assert.Equal(t, "9", views[0].SourceID)
}

func TestBuildUnifiedViewDirectoryDuplicateOfMergedPair(t *testing.T) {
	directory := []models.DirectoryRecord{
		{ID: "1", Email: "a@x.com", FullName: "First", Subject: strPtr("Math")},
		{ID: "2", Email: "a@x.com", FullName: "Second", Subject: strPtr("Art")},
	}
	accounts := []models.AccountRecord{
		{ID: "9", Email: "a@x.com", Username: "a", Role: models.RoleTeacher},
	}

	views := BuildUnifiedView(directory, accounts, nil)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, "9", view.AccountID)
	assert.Equal(t, "1", view.DirectoryID)
	require.NotNil(t, view.Subject)
	assert.Equal(t, "Math", *view.Subject)
}

func TestBuildUnifiedViewNoDataLoss(t *testing.T) {
	directory := []models.DirectoryRecord{
		{ID: "1", Email: "a@x.com", FullName: "A"},
		{ID: "2", Email: "b@x.com", FullName: "B"},
		{ID: "3", Email: "", FullName: "C"},
	}
	accounts := []models.AccountRecord{
		{ID: "9", Email: "a@x.com", Username: "a", Role: models.RoleTeacher},
		{ID: "10", Email: "d@x.com", Username: "d", Role: models.RoleTeacher},
		{ID: "11", Email: "e@x.com", Username: "e", Role: models.RoleStudent},
	}

	views := BuildUnifiedView(directory, accounts, nil)
	// 1 matched pair + 2 unmatched directory + 1 unmatched account after
	// the role filter drops the student.
	assert.Len(t, views, 4)
}

func TestBuildUnifiedViewRoleFilterExcludes(t *testing.T) {
	accounts := []models.AccountRecord{
		{ID: "10", Email: "s@x.com", Username: "s", Role: models.RoleStudent},
		{ID: "11", Email: "t@x.com", Username: "t", Role: models.RoleTeacher},
		{ID: "12", Email: "", Username: "perm"},
	}

	views := BuildUnifiedView(nil, accounts, nil)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.NotEqual(t, "10", v.AccountID)
	}
}

func TestBuildUnifiedViewExplicitRoleFilter(t *testing.T) {
	accounts := []models.AccountRecord{
		{ID: "10", Email: "s@x.com", Username: "s", Role: models.RoleStudent},
		{ID: "11", Email: "t@x.com", Username: "t", Role: models.RoleTeacher},
	}

	views := BuildUnifiedView(nil, accounts, []models.Role{models.RoleStudent})
	require.Len(t, views, 1)
	assert.Equal(t, "10", views[0].AccountID)
}

func TestBuildUnifiedViewMissingIDFallbackKey(t *testing.T) {
	directory := []models.DirectoryRecord{
		{ID: "", Email: "", FullName: "X"},
		{ID: "", Email: "", FullName: "Y"},
	}

	views := BuildUnifiedView(directory, nil, nil)
	// Malformed records still surface, each under its own fallback key.
	require.Len(t, views, 2)
	assert.NotEqual(t, views[0].IdentityKey, views[1].IdentityKey)
}

func TestBuildUnifiedViewSortedByDisplayName(t *testing.T) {
	directory := []models.DirectoryRecord{
		{ID: "1", Email: "z@x.com", FullName: "Zed"},
		{ID: "2", Email: "a@x.com", FullName: "Amy"},
	}

	views := BuildUnifiedView(directory, nil, nil)
	require.Len(t, views, 2)
	assert.Equal(t, "Amy", views[0].DisplayName)
	assert.Equal(t, "Zed", views[1].DisplayName)
}

type mockDirectorySnapshotter struct {
	records []models.DirectoryRecord
	err     error
	calls   int
}

func (m *mockDirectorySnapshotter) Snapshot(ctx context.Context) ([]models.DirectoryRecord, error) {
	m.calls++
	return m.records, m.err
}

type mockAccountSnapshotter struct {
	records []models.AccountRecord
	err     error
	calls   int
}

func (m *mockAccountSnapshotter) Snapshot(ctx context.Context) ([]models.AccountRecord, error) {
	m.calls++
	return m.records, m.err
}

func TestUnifiedViewFetchesBothSnapshots(t *testing.T) {
	dir := &mockDirectorySnapshotter{records: []models.DirectoryRecord{{ID: "1", Email: "a@x.com", FullName: "A"}}}
	acc := &mockAccountSnapshotter{records: []models.AccountRecord{{ID: "9", Email: "a@x.com", Username: "a", Role: models.RoleTeacher}}}
	svc := NewReconciliationService(dir, acc, nil, nil, zap.NewNop())

	views, err := svc.UnifiedView(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, 1, dir.calls)
	assert.Equal(t, 1, acc.calls)

	// No cache configured: a second read re-fetches fresh snapshots.
	_, err = svc.UnifiedView(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, dir.calls)
	assert.Equal(t, 2, acc.calls)
}

func TestUnifiedViewStoreUnreachable(t *testing.T) {
	dir := &mockDirectorySnapshotter{err: errors.New("connection refused")}
	acc := &mockAccountSnapshotter{}
	svc := NewReconciliationService(dir, acc, nil, nil, zap.NewNop())

	_, err := svc.UnifiedView(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNetwork.Code))
}
