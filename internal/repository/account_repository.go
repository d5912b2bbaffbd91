package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupanel/personnel-api/internal/models"
)

// accountColumns selects account fields plus the derived link marker. The
// account store carries no link column of its own; the marker is computed
// from the directory side on every read.
const accountColumns = "u.id, u.username, u.email, u.phone, u.role, u.active, u.must_change_password, u.password_hash, t.id AS linked_teacher_id, u.created_at, u.updated_at"

const accountJoin = "FROM users u LEFT JOIN teachers t ON t.linked_user_id = u.id"

// AccountRepository manages persistence for the authentication account store.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Snapshot returns every account record with derived link markers.
func (r *AccountRepository) Snapshot(ctx context.Context) ([]models.AccountRecord, error) {
	query := fmt.Sprintf("SELECT %s %s ORDER BY u.username ASC", accountColumns, accountJoin)
	var records []models.AccountRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("snapshot users: %w", err)
	}
	return records, nil
}

// List returns accounts matching filters along with total count.
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountRecord, int, error) {
	base := accountJoin + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("u.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Linked != nil {
		if *filter.Linked {
			conditions = append(conditions, "t.id IS NOT NULL")
		} else {
			conditions = append(conditions, "t.id IS NULL")
		}
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.username) LIKE $%d OR LOWER(u.email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]string{
		"username":   "u.username",
		"email":      "u.email",
		"created_at": "u.created_at",
		"updated_at": "u.updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "u.created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", accountColumns, base, column, order, size, offset)
	var records []models.AccountRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return records, total, nil
}

// FindByID fetches an account by ID, including the derived link marker.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.AccountRecord, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE u.id = $1", accountColumns, accountJoin)
	var record models.AccountRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ExistsByUsername checks if another account uses the same username.
func (r *AccountRepository) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	query := "SELECT 1 FROM users WHERE LOWER(username) = LOWER($1)"
	args := []interface{}{username}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check username: %w", err)
	}
	return true, nil
}

// Create inserts a new account record.
func (r *AccountRepository) Create(ctx context.Context, record *models.AccountRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO users (id, username, email, phone, role, active, must_change_password, password_hash, created_at, updated_at)
		VALUES (:id, :username, :email, :phone, :role, :active, :must_change_password, :password_hash, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update modifies an existing account record. Password changes go through
// UpdatePassword.
func (r *AccountRepository) Update(ctx context.Context, record *models.AccountRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET username = :username, email = :email, phone = :phone, role = :role, active = :active, must_change_password = :must_change_password, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored credential hash and flags the account
// for a forced password change.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error {
	const query = `UPDATE users SET password_hash = $2, must_change_password = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, mustChange, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete removes an account record.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
