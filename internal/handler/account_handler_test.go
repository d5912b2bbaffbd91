package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupanel/personnel-api/internal/models"
	"github.com/edupanel/personnel-api/internal/service"
	"github.com/edupanel/personnel-api/pkg/config"
)

func (f *fakeAccountStore) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountRecord, int, error) {
	out := make([]models.AccountRecord, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	return out, len(out), nil
}

func (f *fakeAccountStore) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	for _, rec := range f.records {
		if rec.ID != excludeID && rec.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccountStore) Create(ctx context.Context, record *models.AccountRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	copied := *record
	f.records[record.ID] = &copied
	return nil
}

func (f *fakeAccountStore) Update(ctx context.Context, record *models.AccountRecord) error {
	if _, ok := f.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *record
	f.records[record.ID] = &copied
	return nil
}

func (f *fakeAccountStore) UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error {
	rec, ok := f.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	rec.PasswordHash = passwordHash
	rec.MustChangePassword = mustChange
	return nil
}

func (f *fakeAccountStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.records, id)
	return nil
}

func newAccountFixture() (*AccountHandler, *fakeAccountStore) {
	acc := &fakeAccountStore{records: map[string]*models.AccountRecord{
		"u-1": {ID: "u-1", Username: "existing", Role: models.RoleTeacher, Active: true},
	}}
	audit := &fakeAuditStore{}
	cfg := config.ProvisioningConfig{TempPasswordLength: 12, BcryptCost: bcrypt.MinCost}
	accounts := service.NewAccountService(acc, audit, nil, nil, zap.NewNop())
	provisioning := service.NewProvisioningService(acc, audit, nil, cfg, nil, zap.NewNop())
	return NewAccountHandler(accounts, provisioning), acc
}

func TestAccountHandlerCreateGeneratesCredential(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newAccountFixture()

	payload, _ := json.Marshal(service.CreateAccountRequest{Username: "newteacher", Role: models.RoleTeacher})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/users", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data struct {
			Account      models.AccountRecord `json:"account"`
			TempPassword string               `json:"temp_password"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.TempPassword)
	assert.True(t, body.Data.Account.MustChangePassword)
	// The hash never leaves the service.
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestAccountHandlerCreateDuplicateUsername(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newAccountFixture()

	payload, _ := json.Marshal(service.CreateAccountRequest{Username: "existing", Role: models.RoleTeacher})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/users", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestAccountHandlerResetPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, acc := newAccountFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPatch, "/users/u-1/reset-password", nil)
	c.Params = gin.Params{{Key: "id", Value: "u-1"}}

	handler.ResetPassword(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data service.TempCredential `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.TempPassword)
	assert.True(t, acc.records["u-1"].MustChangePassword)
}

func TestAccountHandlerResetPasswordMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newAccountFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPatch, "/users/missing/reset-password", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.ResetPassword(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccountHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newAccountFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/users", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data       []models.AccountRecord `json:"data"`
		Pagination *models.Pagination     `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.NotNil(t, body.Pagination)
	assert.Equal(t, 1, body.Pagination.TotalCount)
}
