package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	"github.com/noah-isme/seasonal-upkeep-api/internal/scheduling"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/logger"
)

const defaultOccurrencesPerItem = 2

type applicationTemplateSource interface {
	Get(ctx context.Context, id string) (*models.ScheduleTemplate, error)
	List(ctx context.Context, query dto.TemplateQuery) ([]models.ScheduleTemplate, error)
}

type applicationItemStore interface {
	Get(ctx context.Context, id string) (*models.Item, error)
	UpdateAppliedTemplates(ctx context.Context, itemID string, templateIDs []string) error
}

type recordWriter interface {
	Create(ctx context.Context, record *models.MaintenanceRecord) error
}

// ApplicationOptions tunes template application.
type ApplicationOptions struct {
	OccurrencesPerItem int
	Workers            int
}

// TemplateApplicationService generates scheduled records for items from a template.
type TemplateApplicationService struct {
	templates applicationTemplateSource
	items     applicationItemStore
	records   recordWriter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	opts      ApplicationOptions
	now       func() time.Time
}

// NewTemplateApplicationService constructs the orchestrator. A zero worker count processes items one at a time.
func NewTemplateApplicationService(templates applicationTemplateSource, items applicationItemStore, records recordWriter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, opts ApplicationOptions) *TemplateApplicationService {
	if opts.OccurrencesPerItem <= 0 {
		opts.OccurrencesPerItem = defaultOccurrencesPerItem
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateApplicationService{
		templates: templates,
		items:     items,
		records:   records,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// Apply schedules templateID on every requested item. Failures are isolated per item and reported in
// the result; only a bad request or an unknown template fails the whole call.
func (s *TemplateApplicationService) Apply(ctx context.Context, templateID string, req dto.ApplyTemplateRequest, actor string) (*dto.ApplyTemplateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid apply payload")
	}
	start, err := dto.ParseDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	template, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return s.applyTemplate(ctx, template, req.ItemIDs, start, actor), nil
}

// ApplyDefaults applies every enabled default template for the item's class.
func (s *TemplateApplicationService) ApplyDefaults(ctx context.Context, itemID, actor string) (*dto.ApplyDefaultsResult, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	enabled, isDefault := true, true
	templates, err := s.templates.List(ctx, dto.TemplateQuery{
		ClassType: string(item.ClassType),
		Enabled:   &enabled,
		IsDefault: &isDefault,
	})
	if err != nil {
		return nil, err
	}

	result := &dto.ApplyDefaultsResult{ItemID: itemID, Templates: make([]dto.ApplyTemplateResult, 0, len(templates))}
	for i := range templates {
		result.Templates = append(result.Templates, *s.applyTemplate(ctx, &templates[i], []string{itemID}, nil, actor))
	}
	s.logger.Info("default templates applied", zap.String("item_id", itemID), zap.Int("templates", len(templates)))
	return result, nil
}

type itemOutcome struct {
	detail  dto.ApplyItemDetail
	warning string
}

func (s *TemplateApplicationService) applyTemplate(ctx context.Context, template *models.ScheduleTemplate, itemIDs []string, start *time.Time, actor string) *dto.ApplyTemplateResult {
	began := time.Now()
	now := s.now()
	anchor := now
	switch {
	case start != nil:
		anchor = *start
	case template.StartDate != nil:
		anchor = *template.StartDate
	}

	result := &dto.ApplyTemplateResult{
		TemplateID: template.ID,
		Warnings:   []string{},
		Errors:     []string{},
		Details:    make([]dto.ApplyItemDetail, len(itemIDs)),
	}
	if !template.Enabled {
		result.Warnings = append(result.Warnings, fmt.Sprintf("template %s is disabled", template.ShortName))
	}

	// Each distinct item is dispatched once; later repeats are reported as skipped.
	outcomes := make([]itemOutcome, len(itemIDs))
	firstSeen := make(map[string]int, len(itemIDs))
	dispatch := make([]int, 0, len(itemIDs))
	for i, id := range itemIDs {
		if first, dup := firstSeen[id]; dup {
			outcomes[i].detail = dto.ApplyItemDetail{
				ItemID: id,
				Status: dto.ApplySkipped,
				Reason: fmt.Sprintf("duplicate of item at position %d", first+1),
			}
			continue
		}
		firstSeen[id] = i
		dispatch = append(dispatch, i)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	workers := s.opts.Workers
	if workers > len(dispatch) {
		workers = len(dispatch)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				outcomes[i] = s.applyToItem(ctx, template, itemIDs[i], anchor, now, actor)
			}
		}()
	}
	for _, i := range dispatch {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	statusCounts := map[string]int{}
	for i, outcome := range outcomes {
		result.Details[i] = outcome.detail
		result.RecordsCreated += outcome.detail.RecordsCreated
		statusCounts[string(outcome.detail.Status)]++
		if outcome.warning != "" {
			result.Warnings = append(result.Warnings, outcome.warning)
		}
		switch outcome.detail.Status {
		case dto.ApplySuccess:
			result.ItemsUpdated++
		case dto.ApplyError:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", outcome.detail.ItemID, outcome.detail.Error))
		}
	}

	s.metrics.ObserveTemplateApplication(statusCounts, result.RecordsCreated, time.Since(began))
	logger.WithContext(ctx, s.logger).Info("template applied",
		zap.String("template_id", template.ID),
		zap.Int("items_requested", len(itemIDs)),
		zap.Int("items_updated", result.ItemsUpdated),
		zap.Int("records_created", result.RecordsCreated),
	)
	return result
}

// applyToItem never lets a failure escape; whatever was written before the failure stays written.
func (s *TemplateApplicationService) applyToItem(ctx context.Context, template *models.ScheduleTemplate, itemID string, anchor, now time.Time, actor string) (outcome itemOutcome) {
	outcome.detail = dto.ApplyItemDetail{ItemID: itemID}
	fail := func(err error) itemOutcome {
		outcome.detail.Status = dto.ApplyError
		outcome.detail.Error = err.Error()
		logger.WithContext(ctx, s.logger).Warn("template application failed for item",
			zap.String("template_id", template.ID),
			zap.String("item_id", itemID),
			zap.Int("records_written", outcome.detail.RecordsCreated),
			zap.Error(err),
		)
		return outcome
	}
	defer func() {
		if r := recover(); r != nil {
			outcome = fail(fmt.Errorf("panic: %v", r))
		}
	}()

	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return fail(err)
	}
	if item.HasTemplate(template.ID) {
		outcome.detail.Status = dto.ApplySkipped
		outcome.detail.Reason = "template already applied"
		return outcome
	}
	if item.ClassType != template.ClassType {
		outcome.warning = fmt.Sprintf("item %s is %s but template %s targets %s", itemID, item.ClassType, template.ShortName, template.ClassType)
	}

	task := scheduling.TaskFromTemplate(template)
	for i, due := range scheduling.Occurrences(task, anchor, s.opts.OccurrencesPerItem, now) {
		record := generatedRecord(template, itemID, i+1, due, actor)
		if err := s.records.Create(ctx, record); err != nil {
			return fail(err)
		}
		outcome.detail.RecordsCreated++
	}

	applied := make([]string, 0, len(item.AppliedTemplates)+1)
	applied = append(applied, item.AppliedTemplates...)
	applied = append(applied, template.ID)
	if err := s.items.UpdateAppliedTemplates(ctx, itemID, applied); err != nil {
		return fail(err)
	}

	outcome.detail.Status = dto.ApplySuccess
	return outcome
}

func generatedRecord(template *models.ScheduleTemplate, itemID string, occurrence int, due time.Time, actor string) *models.MaintenanceRecord {
	templateID := template.ID
	dueDate := due
	record := &models.MaintenanceRecord{
		ItemID:           itemID,
		TemplateID:       &templateID,
		OccurrenceNumber: &occurrence,
		IsScheduledTask:  true,
		RecordType:       template.TaskKind,
		Status:           models.RecordScheduled,
		Title:            template.Title,
		Description:      template.Description,
		DateScheduled:    &dueDate,
		UpdatedBy:        actor,
	}
	if template.EstimatedCost.Valid {
		record.TotalCost = template.EstimatedCost.Decimal
	}
	if template.TaskKind == models.TaskRepair {
		record.Criticality = models.CriticalityMedium
	}
	return record
}
