package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/response"
)

type templateService interface {
	List(ctx context.Context, query dto.TemplateQuery) ([]models.ScheduleTemplate, error)
	Get(ctx context.Context, id string) (*models.ScheduleTemplate, error)
	Validate(draft dto.TemplateDraft) dto.ValidationResult
	Create(ctx context.Context, draft dto.TemplateDraft, actor string) (*models.ScheduleTemplate, []string, error)
	Update(ctx context.Context, id string, patch dto.TemplatePatch, actor string) (*dto.TemplateUpdateResult, error)
	Delete(ctx context.Context, id, actor string) (*dto.TemplateDeleteResult, error)
	NextDue(ctx context.Context, id string, query dto.NextDueQuery) (*dto.NextDueResponse, error)
}

type templateApplier interface {
	Apply(ctx context.Context, templateID string, req dto.ApplyTemplateRequest, actor string) (*dto.ApplyTemplateResult, error)
}

// TemplateHandler exposes schedule template endpoints.
type TemplateHandler struct {
	templates templateService
	applier   templateApplier
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(templates templateService, applier templateApplier) *TemplateHandler {
	return &TemplateHandler{templates: templates, applier: applier}
}

// List godoc
// @Summary List schedule templates
// @Tags Templates
// @Produce json
// @Param classType query string false "Item class"
// @Param taskKind query string false "repair, maintenance or inspection"
// @Param enabled query bool false "Enabled flag"
// @Param isDefault query bool false "Default flag"
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	var query dto.TemplateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template query"))
		return
	}
	templates, err := h.templates.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Get godoc
// @Summary Get schedule template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// Validate godoc
// @Summary Validate a template draft without saving it
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.TemplateDraft true "Template draft"
// @Success 200 {object} response.Envelope
// @Router /templates/validate [post]
func (h *TemplateHandler) Validate(c *gin.Context) {
	var draft dto.TemplateDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.templates.Validate(draft), nil)
}

// Create godoc
// @Summary Create schedule template
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.TemplateDraft true "Template draft"
// @Success 201 {object} response.Envelope
// @Router /templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var draft dto.TemplateDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	template, warnings, err := h.templates.Create(c.Request.Context(), draft, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if len(warnings) > 0 {
		meta = map[string]interface{}{"warnings": warnings}
	}
	response.JSON(c, http.StatusCreated, template, nil, meta)
}

// Update godoc
// @Summary Update schedule template
// @Description Title, description and cost changes are copied to scheduled records generated from the template. Disabling cancels them.
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.TemplatePatch true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	var patch dto.TemplatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid template payload"))
		return
	}
	result, err := h.templates.Update(c.Request.Context(), c.Param("id"), patch, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete schedule template
// @Description Cancels scheduled and in-progress generated records; completed history is kept.
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	result, err := h.templates.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Apply godoc
// @Summary Apply a template to items
// @Description Generates scheduled records per item. Per-item failures are reported in details and never fail the batch.
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.ApplyTemplateRequest true "Target items"
// @Success 200 {object} response.Envelope
// @Router /templates/{id}/apply [post]
func (h *TemplateHandler) Apply(c *gin.Context) {
	var req dto.ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid apply payload"))
		return
	}
	result, err := h.applier.Apply(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// NextDue godoc
// @Summary Preview upcoming due dates of a template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Param from query string false "Anchor date (YYYY-MM-DD)"
// @Param count query int false "Number of occurrences (1-24)"
// @Success 200 {object} response.Envelope
// @Router /templates/{id}/next-due [get]
func (h *TemplateHandler) NextDue(c *gin.Context) {
	var query dto.NextDueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preview query"))
		return
	}
	preview, err := h.templates.NextDue(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}
