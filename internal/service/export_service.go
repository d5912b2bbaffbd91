package service

import (
	"context"
	"fmt"
	"time"

	"github.com/edupanel/personnel-api/internal/models"
	"github.com/edupanel/personnel-api/pkg/export"
	appErrors "github.com/edupanel/personnel-api/pkg/errors"
)

// ExportFormat selects the roster output encoding.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered roster bytes plus transport metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the unified personnel view as a downloadable roster.
type ExportService struct {
	reconciliation *ReconciliationService
}

// NewExportService constructs an ExportService.
func NewExportService(reconciliation *ReconciliationService) *ExportService {
	return &ExportService{reconciliation: reconciliation}
}

// Roster builds a fresh unified view and renders it in the requested format.
func (s *ExportService) Roster(ctx context.Context, roleFilter []models.Role, format ExportFormat) (*ExportResult, error) {
	views, err := s.reconciliation.UnifiedView(ctx, roleFilter)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Columns: []string{"Name", "Designation", "Subject", "Email", "Phone", "Source"},
		Rows:    make([][]string, 0, len(views)),
	}
	for _, v := range views {
		table.Rows = append(table.Rows, []string{
			v.DisplayName,
			deref(v.Designation),
			deref(v.Subject),
			v.Email,
			deref(v.Phone),
			string(v.Provenance),
		})
	}

	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case FormatCSV:
		content, err := export.RenderCSV(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv roster")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("staff-roster-%s.csv", stamp),
		}, nil
	case FormatPDF:
		content, err := export.RenderPDF(table, "Staff Roster")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf roster")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("staff-roster-%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
