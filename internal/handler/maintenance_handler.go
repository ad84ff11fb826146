package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/service"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/response"
)

type viewLoader interface {
	Load(ctx context.Context, query dto.ViewQuery) (*dto.ViewResult, error)
}

type rollupExporter interface {
	Export(ctx context.Context, query dto.ExportQuery) (*service.ExportFile, error)
}

// MaintenanceHandler serves the filtered maintenance view and its exports.
type MaintenanceHandler struct {
	views   viewLoader
	exports rollupExporter
}

// NewMaintenanceHandler constructs the handler.
func NewMaintenanceHandler(views viewLoader, exports rollupExporter) *MaintenanceHandler {
	return &MaintenanceHandler{views: views, exports: exports}
}

// View godoc
// @Summary Filtered maintenance view
// @Description Records for the selected tab plus per-item rollups, tab counts and schedule stats. Multi-value filters accept repeated or comma separated values.
// @Tags Maintenance
// @Produce json
// @Param tab query string false "all, repairs, maintenance, inspections or items"
// @Param season query []string false "Season filter"
// @Param recordType query []string false "Record type filter"
// @Param status query []string false "Status filter"
// @Param criticality query []string false "Criticality filter, none matches records without one"
// @Param itemId query string false "Item id substring"
// @Param dateFrom query string false "Created on or after (YYYY-MM-DD)"
// @Param dateTo query string false "Created on or before (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /maintenance/view [get]
func (h *MaintenanceHandler) View(c *gin.Context) {
	var query dto.ViewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid view query"))
		return
	}
	result, err := h.views.Load(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"count": len(result.Records)})
}

// Export godoc
// @Summary Export per-item rollups
// @Tags Maintenance
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /maintenance/export [get]
func (h *MaintenanceHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.exports.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
