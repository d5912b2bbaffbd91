package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edupanel/personnel-api/internal/models"
	"github.com/edupanel/personnel-api/internal/service"
	"github.com/edupanel/personnel-api/pkg/response"
)

// PersonnelHandler exposes the unified personnel view and the linkage pools.
type PersonnelHandler struct {
	reconciliation *service.ReconciliationService
	linkage        *service.LinkageService
	exports        *service.ExportService
}

// NewPersonnelHandler constructs a PersonnelHandler.
func NewPersonnelHandler(reconciliation *service.ReconciliationService, linkage *service.LinkageService, exports *service.ExportService) *PersonnelHandler {
	return &PersonnelHandler{reconciliation: reconciliation, linkage: linkage, exports: exports}
}

// rolesFromQuery parses the optional comma-separated role scope. An empty
// scope means the default teacher-like filter.
func rolesFromQuery(c *gin.Context) []models.Role {
	raw := strings.TrimSpace(c.Query("roles"))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	roles := make([]models.Role, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToUpper(strings.TrimSpace(part))
		if trimmed != "" {
			roles = append(roles, models.Role(trimmed))
		}
	}
	return roles
}

// Unified godoc
// @Summary Unified personnel view
// @Description One deduplicated entry per person across directory and
// @Description account stores, recomputed from fresh snapshots.
// @Tags Personnel
// @Produce json
// @Param roles query string false "Comma-separated account role scope (default: teacher-like)"
// @Success 200 {object} response.Envelope
// @Router /personnel [get]
func (h *PersonnelHandler) Unified(c *gin.Context) {
	views, err := h.reconciliation.UnifiedView(c.Request.Context(), rolesFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil, map[string]interface{}{"count": len(views)})
}

// EligibleTeachers godoc
// @Summary Directory records eligible for linking
// @Tags Personnel
// @Produce json
// @Param search query string false "Substring match on name/email"
// @Success 200 {object} response.Envelope
// @Router /personnel/eligible-teachers [get]
func (h *PersonnelHandler) EligibleTeachers(c *gin.Context) {
	records, err := h.linkage.ListEligibleTeachers(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// EligibleAccounts godoc
// @Summary Accounts eligible for linking
// @Tags Personnel
// @Produce json
// @Param search query string false "Substring match on username/email"
// @Success 200 {object} response.Envelope
// @Router /personnel/eligible-accounts [get]
func (h *PersonnelHandler) EligibleAccounts(c *gin.Context) {
	records, err := h.linkage.ListEligibleAccounts(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Export godoc
// @Summary Export the staff roster
// @Tags Personnel
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf (default csv)"
// @Param roles query string false "Comma-separated account role scope"
// @Success 200 {file} file
// @Router /personnel/export [get]
func (h *PersonnelHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.Roster(c.Request.Context(), rolesFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
