package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	"github.com/noah-isme/seasonal-upkeep-api/internal/scheduling"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
)

type templateRepository interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.ScheduleTemplate, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleTemplate, error)
	Create(ctx context.Context, template *models.ScheduleTemplate) error
	Update(ctx context.Context, exec sqlx.ExtContext, template *models.ScheduleTemplate) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type templateRecordCascader interface {
	CascadeTemplateFields(ctx context.Context, exec sqlx.ExtContext, templateID, title, description string, cost decimal.NullDecimal, statuses []models.RecordStatus, updatedBy string) (int, error)
	CancelByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string, statuses []models.RecordStatus, updatedBy string) (int, error)
}

type templateItemDetacher interface {
	RemoveAppliedTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]string, error)
}

type itemCacheInvalidator interface {
	Invalidate(ctx context.Context, itemIDs ...string)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Generated records that have not been started follow template edits; anything already under way
// is left alone.
var cascadeStatuses = []models.RecordStatus{models.RecordScheduled}

// Deleting a template cancels every generated record that is not yet history.
var deleteCancelStatuses = []models.RecordStatus{models.RecordScheduled, models.RecordInProgress}

const defaultPreviewCount = 4

// TemplateService manages schedule templates and keeps their generated records consistent.
type TemplateService struct {
	repo      templateRepository
	records   templateRecordCascader
	items     templateItemDetacher
	itemCache itemCacheInvalidator
	tx        txProvider
	validator *TemplateValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewTemplateService constructs the service.
func NewTemplateService(repo templateRepository, records templateRecordCascader, items templateItemDetacher, itemCache itemCacheInvalidator, tx txProvider, validator *TemplateValidator, logger *zap.Logger) *TemplateService {
	if validator == nil {
		validator = NewTemplateValidator(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{
		repo:      repo,
		records:   records,
		items:     items,
		itemCache: itemCache,
		tx:        tx,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns templates matching the query.
func (s *TemplateService) List(ctx context.Context, query dto.TemplateQuery) ([]models.ScheduleTemplate, error) {
	filter := models.TemplateFilter{
		ClassType: models.ClassType(strings.TrimSpace(query.ClassType)),
		TaskKind:  models.TaskKind(strings.ToLower(strings.TrimSpace(query.TaskKind))),
		Enabled:   query.Enabled,
		IsDefault: query.IsDefault,
	}
	templates, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// Get fetches a template by id.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.ScheduleTemplate, error) {
	template, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("template %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return template, nil
}

// Validate checks a draft without saving it.
func (s *TemplateService) Validate(draft dto.TemplateDraft) dto.ValidationResult {
	return s.validator.Validate(draft)
}

// Create validates and persists a new template. Validation warnings are returned alongside it.
func (s *TemplateService) Create(ctx context.Context, draft dto.TemplateDraft, actor string) (*models.ScheduleTemplate, []string, error) {
	result := s.validator.Validate(draft)
	if !result.Valid {
		return nil, result.Warnings, appErrors.Validation("invalid template", result.Errors)
	}

	template, err := templateFromDraft(draft)
	if err != nil {
		return nil, result.Warnings, appErrors.Validation("invalid template", []string{err.Error()})
	}
	template.UpdatedBy = actor

	if err := s.repo.Create(ctx, template); err != nil {
		return nil, result.Warnings, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	s.logger.Info("template created", zap.String("template_id", template.ID), zap.String("short_name", template.ShortName))
	return template, result.Warnings, nil
}

// Update applies a patch. Title, description and cost changes flow to generated records that
// have not started; disabling the template cancels them instead.
func (s *TemplateService) Update(ctx context.Context, id string, patch dto.TemplatePatch, actor string) (*dto.TemplateUpdateResult, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	draft := applyTemplatePatch(DraftFromTemplate(current), patch)
	result := s.validator.Validate(draft)
	if !result.Valid {
		return nil, appErrors.Validation("invalid template", result.Errors)
	}
	next, err := templateFromDraft(draft)
	if err != nil {
		return nil, appErrors.Validation("invalid template", []string{err.Error()})
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedBy = actor

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repo.Update(ctx, tx, next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("template %s not found", id))
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
		return nil, err
	}

	var touched int
	switch {
	case current.Enabled && !next.Enabled:
		touched, err = s.records.CancelByTemplate(ctx, tx, id, cascadeStatuses, actor)
		if err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel scheduled records")
			return nil, err
		}
	case templateDisplayChanged(current, next):
		touched, err = s.records.CascadeTemplateFields(ctx, tx, id, next.Title, next.Description, next.EstimatedCost, cascadeStatuses, actor)
		if err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update scheduled records")
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit template update")
		return nil, err
	}

	s.logger.Info("template updated", zap.String("template_id", id), zap.Int("records_updated", touched))
	return &dto.TemplateUpdateResult{Template: next, UpdatedRecordsCount: touched}, nil
}

// Delete removes a template. Scheduled and in-progress generated records are cancelled, completed
// history is kept and the template id is removed from every item's applied set.
func (s *TemplateService) Delete(ctx context.Context, id, actor string) (*dto.TemplateDeleteResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cancelled, err := s.records.CancelByTemplate(ctx, tx, id, deleteCancelStatuses, actor)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel template records")
		return nil, err
	}
	itemIDs, err := s.items.RemoveAppliedTemplate(ctx, tx, id)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach template from items")
		return nil, err
	}
	if err = s.repo.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("template %s not found", id))
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit template delete")
		return nil, err
	}

	if s.itemCache != nil {
		s.itemCache.Invalidate(ctx, itemIDs...)
	}
	s.logger.Info("template deleted",
		zap.String("template_id", id),
		zap.Int("records_cancelled", cancelled),
		zap.Int("items_detached", len(itemIDs)),
	)
	return &dto.TemplateDeleteResult{CancelledRecordsCount: cancelled}, nil
}

// NextDue previews the next occurrences of a template starting from query.From (or its start date, or today).
func (s *TemplateService) NextDue(ctx context.Context, id string, query dto.NextDueQuery) (*dto.NextDueResponse, error) {
	if err := s.validator.validate.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview query")
	}
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	anchor := now
	if template.StartDate != nil {
		anchor = *template.StartDate
	}
	if query.From != "" {
		from, err := dto.ParseDate(&query.From)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		anchor = *from
	}
	count := query.Count
	if count <= 0 {
		count = defaultPreviewCount
	}

	task := scheduling.TaskFromTemplate(template)
	dates := scheduling.Occurrences(task, anchor, count, now)
	resp := &dto.NextDueResponse{
		TemplateID: template.ID,
		Frequency:  string(template.Frequency),
		Entries:    make([]dto.NextDueEntry, 0, len(dates)),
	}
	for i, due := range dates {
		resp.Entries = append(resp.Entries, dto.NextDueEntry{
			Occurrence:   i + 1,
			DueDate:      due.Format(dto.DateLayout),
			InWorkWindow: scheduling.IsWithinWorkWindow(due),
			DaysUntilDue: scheduling.DaysUntilDue(due, now),
			Status:       string(scheduling.DeriveStatus(due, template.DaysBeforeReminder, now)),
		})
	}
	return resp, nil
}

// templateFromDraft converts a validated draft. Season is dropped unless the frequency uses it.
func templateFromDraft(draft dto.TemplateDraft) (*models.ScheduleTemplate, error) {
	start, err := dto.ParseDate(draft.StartDate)
	if err != nil {
		return nil, err
	}
	frequency := models.Frequency(strings.ToLower(strings.TrimSpace(draft.Frequency)))

	template := &models.ScheduleTemplate{
		ClassType:                models.ClassType(strings.TrimSpace(draft.ClassType)),
		TaskKind:                 models.TaskKind(strings.ToLower(strings.TrimSpace(draft.TaskKind))),
		Category:                 strings.TrimSpace(draft.Category),
		ShortName:                draft.ShortName,
		Title:                    strings.TrimSpace(draft.Title),
		Description:              draft.Description,
		Frequency:                frequency,
		StartDate:                start,
		IsDefault:                draft.IsDefault,
		Enabled:                  true,
		EstimatedDurationMinutes: draft.EstimatedDurationMinutes,
		DaysBeforeReminder:       models.DefaultDaysBeforeReminder,
	}
	if frequency.RequiresSeason() && draft.Season != nil {
		season := models.Season(strings.TrimSpace(*draft.Season))
		template.Season = &season
	}
	if draft.Enabled != nil {
		template.Enabled = *draft.Enabled
	}
	if draft.EstimatedCost != nil {
		template.EstimatedCost = decimal.NewNullDecimal(*draft.EstimatedCost)
	}
	if draft.DaysBeforeReminder != nil {
		template.DaysBeforeReminder = *draft.DaysBeforeReminder
	}
	return template, nil
}

func applyTemplatePatch(draft dto.TemplateDraft, patch dto.TemplatePatch) dto.TemplateDraft {
	if patch.ClassType != nil {
		draft.ClassType = *patch.ClassType
	}
	if patch.TaskKind != nil {
		draft.TaskKind = *patch.TaskKind
	}
	if patch.Category != nil {
		draft.Category = *patch.Category
	}
	if patch.ShortName != nil {
		draft.ShortName = *patch.ShortName
	}
	if patch.Title != nil {
		draft.Title = *patch.Title
	}
	if patch.Description != nil {
		draft.Description = *patch.Description
	}
	if patch.Frequency != nil {
		draft.Frequency = *patch.Frequency
	}
	if patch.Season != nil {
		draft.Season = patch.Season
	}
	if patch.StartDate != nil {
		draft.StartDate = patch.StartDate
	}
	if patch.IsDefault != nil {
		draft.IsDefault = *patch.IsDefault
	}
	if patch.Enabled != nil {
		draft.Enabled = patch.Enabled
	}
	if patch.EstimatedCost != nil {
		draft.EstimatedCost = patch.EstimatedCost
	}
	if patch.EstimatedDurationMinutes != nil {
		draft.EstimatedDurationMinutes = patch.EstimatedDurationMinutes
	}
	if patch.DaysBeforeReminder != nil {
		draft.DaysBeforeReminder = patch.DaysBeforeReminder
	}
	return draft
}

func templateDisplayChanged(before, after *models.ScheduleTemplate) bool {
	if before.Title != after.Title || before.Description != after.Description {
		return true
	}
	if before.EstimatedCost.Valid != after.EstimatedCost.Valid {
		return true
	}
	return before.EstimatedCost.Valid && !before.EstimatedCost.Decimal.Equal(after.EstimatedCost.Decimal)
}
