package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/personnel-api/internal/models"
)

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "phone", "role", "active", "must_change_password", "password_hash", "linked_teacher_id", "created_at", "updated_at"})
}

func TestAccountRepositorySnapshotDerivesMarker(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	rows := accountRows().
		AddRow("u-1", "alice", "alice@x.com", nil, "TEACHER", true, false, "hash", sql.NullString{String: "t-7", Valid: true}, time.Now(), time.Now()).
		AddRow("u-2", "bob", "bob@x.com", nil, "TEACHER", true, true, "hash", sql.NullString{Valid: false}, time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u LEFT JOIN teachers t ON t.linked_user_id = u.id ORDER BY u.username ASC")).
		WillReturnRows(rows)

	records, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].LinkedTeacher.Bound())
	assert.Equal(t, "t-7", records[0].LinkedTeacher.TargetID)
	assert.True(t, records[1].LinkedTeacher.Eligible())
}

func TestAccountRepositoryListRoleAndLinkedFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	rows := accountRows().
		AddRow("u-2", "bob", "bob@x.com", nil, "TEACHER", true, true, "hash", sql.NullString{Valid: false}, time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND u.role = $1 AND t.id IS NULL")).
		WithArgs("TEACHER").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("TEACHER").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	role := models.RoleTeacher
	unlinked := false
	records, total, err := repo.List(context.Background(), models.AccountFilter{Role: &role, Linked: &unlinked})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "bob", records[0].Username)
}

func TestAccountRepositoryExistsByUsername(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1")).
		WithArgs("Alice").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByUsername(context.Background(), "Alice", "")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAccountRepositoryExistsByUsernameExcludesSelf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND id <> $2 LIMIT 1")).
		WithArgs("alice", "u-1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByUsername(context.Background(), "alice", "u-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAccountRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.AccountRecord{Username: "alice", Role: models.RoleTeacher, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
}

func TestAccountRepositoryUpdatePassword(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $2, must_change_password = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("u-1", "newhash", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "u-1", "newhash", true))
}

func TestAccountRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
