package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/store"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/export"
)

type rollupSource interface {
	Rollups(ctx context.Context, query dto.ViewQuery) ([]store.ItemRollup, error)
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// ExportFile is a rendered export ready to be served as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders per-item rollups to CSV or PDF.
type ExportService struct {
	rollups rollupSource
	csv     csvRenderer
	pdf     pdfRenderer
	enabled bool
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(rollups rollupSource, csv csvRenderer, pdf pdfRenderer, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{rollups: rollups, csv: csv, pdf: pdf, enabled: enabled, logger: logger, now: time.Now}
}

var rollupColumns = []export.Column{
	{Header: "Item", Weight: 2},
	{Header: "Season", Weight: 1.5},
	{Header: "Repairs", Right: true},
	{Header: "Maintenance", Right: true},
	{Header: "Inspections", Right: true},
	{Header: "Records", Right: true},
	{Header: "Total Cost", Weight: 1.5, Right: true},
	{Header: "Criticality"},
	{Header: "Last Record", Weight: 1.5},
}

// Export renders the rollups selected by query.
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*ExportFile, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "exports are disabled")
	}
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	rollups, err := s.rollups.Rollups(ctx, query.ViewQuery)
	if err != nil {
		return nil, err
	}

	table := export.Table{Title: "Maintenance rollup by item", Columns: rollupColumns, Rows: make([][]string, 0, len(rollups))}
	for _, r := range rollups {
		last := ""
		if !r.LastRecordDate.IsZero() {
			last = r.LastRecordDate.Format(dto.DateLayout)
		}
		criticality := string(r.Criticality)
		if criticality == "" {
			criticality = "none"
		}
		table.Rows = append(table.Rows, []string{
			r.ItemID,
			r.Season,
			strconv.Itoa(r.Repairs),
			strconv.Itoa(r.Maintenance),
			strconv.Itoa(r.Inspections),
			strconv.Itoa(r.RecordCount),
			r.TotalCost.StringFixed(2),
			criticality,
			last,
		})
	}

	var data []byte
	switch format {
	case export.FormatPDF:
		data, err = s.pdf.Render(table)
	default:
		data, err = s.csv.Render(table)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("rollup export rendered", zap.String("format", string(format)), zap.Int("rows", len(table.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("maintenance-rollup-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}
