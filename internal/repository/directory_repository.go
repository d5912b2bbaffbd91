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

const directoryColumns = "id, full_name, designation, subject, email, phone, photo_url, intro, linked_user_id, created_at, updated_at"

// DirectoryRepository manages persistence for the teacher directory store.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs a DirectoryRepository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// Snapshot returns every directory record. Reconciliation and linkage reads
// always start from a full snapshot.
func (r *DirectoryRepository) Snapshot(ctx context.Context) ([]models.DirectoryRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers ORDER BY full_name ASC", directoryColumns)
	var records []models.DirectoryRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("snapshot teachers: %w", err)
	}
	return records, nil
}

// List returns directory records matching filters along with total count.
func (r *DirectoryRepository) List(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryRecord, int, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Linked != nil {
		if *filter.Linked {
			conditions = append(conditions, "linked_user_id IS NOT NULL")
		} else {
			conditions = append(conditions, "linked_user_id IS NULL")
		}
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
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
		"full_name":  "full_name",
		"email":      "email",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", directoryColumns, base, column, order, size, offset)
	var records []models.DirectoryRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return records, total, nil
}

// FindByID fetches a directory record by ID.
func (r *DirectoryRepository) FindByID(ctx context.Context, id string) (*models.DirectoryRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", directoryColumns)
	var record models.DirectoryRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new directory record.
func (r *DirectoryRepository) Create(ctx context.Context, record *models.DirectoryRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO teachers (id, full_name, designation, subject, email, phone, photo_url, intro, linked_user_id, created_at, updated_at)
		VALUES (:id, :full_name, :designation, :subject, :email, :phone, :photo_url, :intro, :linked_user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing directory record. The link marker is owned by
// SetLink and is deliberately not touched here.
func (r *DirectoryRepository) Update(ctx context.Context, record *models.DirectoryRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET full_name = :full_name, designation = :designation, subject = :subject, email = :email, phone = :phone, photo_url = :photo_url, intro = :intro, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// SetLink binds a directory record to an account id. The write is
// conditional on the record being unlinked so a double-link loses the race
// at the store instead of silently overwriting.
func (r *DirectoryRepository) SetLink(ctx context.Context, teacherID, userID string) (bool, error) {
	const query = `UPDATE teachers SET linked_user_id = $2, updated_at = $3 WHERE id = $1 AND linked_user_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, teacherID, userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("link teacher: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("link teacher rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a directory record.
func (r *DirectoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete teacher rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
