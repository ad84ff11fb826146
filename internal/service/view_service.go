package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	"github.com/noah-isme/seasonal-upkeep-api/internal/scheduling"
	"github.com/noah-isme/seasonal-upkeep-api/internal/store"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
)

type viewRecordSource interface {
	ListAll(ctx context.Context) ([]models.MaintenanceRecord, error)
	ListByItem(ctx context.Context, itemID string) ([]models.MaintenanceRecord, error)
}

type viewItemSource interface {
	GetMany(ctx context.Context, ids []string) ([]models.Item, error)
}

type viewTemplateSource interface {
	List(ctx context.Context, query dto.TemplateQuery) ([]models.ScheduleTemplate, error)
}

// ViewOptions configures due-date annotation.
type ViewOptions struct {
	DefaultReminderDays int
	UpcomingWindowDays  int
}

// ViewService assembles the maintenance screen from a record store built for each request.
type ViewService struct {
	records   viewRecordSource
	items     viewItemSource
	templates viewTemplateSource
	metrics   *MetricsService
	logger    *zap.Logger
	opts      ViewOptions
	now       func() time.Time
}

// NewViewService constructs the view service.
func NewViewService(records viewRecordSource, items viewItemSource, templates viewTemplateSource, metrics *MetricsService, logger *zap.Logger, opts ViewOptions) *ViewService {
	if opts.DefaultReminderDays <= 0 {
		opts.DefaultReminderDays = models.DefaultDaysBeforeReminder
	}
	if opts.UpcomingWindowDays <= 0 {
		opts.UpcomingWindowDays = 7
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewService{
		records:   records,
		items:     items,
		templates: templates,
		metrics:   metrics,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// Load builds the filtered view described by query.
func (s *ViewService) Load(ctx context.Context, query dto.ViewQuery) (*dto.ViewResult, error) {
	st, release, err := s.populate(ctx, query)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	reminders := make(map[string]int)
	templates, err := s.templates.List(ctx, dto.TemplateQuery{})
	if err != nil {
		return nil, err
	}
	st.IngestTemplates(templates)
	for _, t := range templates {
		reminders[t.ID] = t.DaysBeforeReminder
	}

	filtered := st.FilteredRecords()
	annotated := make([]dto.AnnotatedRecord, 0, len(filtered))
	for _, rec := range filtered {
		annotated = append(annotated, s.annotate(rec, reminders, now))
	}

	return &dto.ViewResult{
		Tab:       st.ActiveTab(),
		Records:   annotated,
		Rollups:   st.GroupedByItem(),
		TabCounts: st.TabCounts(),
		Stats:     st.ScheduleStats(now, s.opts.UpcomingWindowDays),
	}, nil
}

// Rollups returns only the per-item aggregates for query.
func (s *ViewService) Rollups(ctx context.Context, query dto.ViewQuery) ([]store.ItemRollup, error) {
	st, release, err := s.populate(ctx, query)
	if err != nil {
		return nil, err
	}
	defer release()
	return st.GroupedByItem(), nil
}

// populate ingests the record feeds and item metadata, then applies the query. The returned
// release func detaches the metrics subscriber.
func (s *ViewService) populate(ctx context.Context, query dto.ViewQuery) (*store.RecordStore, func(), error) {
	st := store.New(s.logger)
	release := st.Subscribe(func(evt store.Event) {
		s.metrics.RecordStoreMutation(string(evt.Kind))
	})

	all, err := s.records.ListAll(ctx)
	if err != nil {
		release()
		return nil, nil, err
	}
	st.Ingest(all)

	// The per-item feed overlaps the full feed; the store collapses the copies.
	if itemID := strings.TrimSpace(query.ItemID); itemID != "" {
		perItem, err := s.records.ListByItem(ctx, itemID)
		if err != nil {
			release()
			return nil, nil, err
		}
		st.Ingest(perItem)
	}

	ids := make([]string, 0)
	for _, rec := range st.AllRecords() {
		ids = append(ids, rec.ItemID)
	}
	if len(ids) > 0 {
		items, err := s.items.GetMany(ctx, ids)
		if err != nil {
			release()
			return nil, nil, err
		}
		infos := make([]store.ItemInfo, len(items))
		for i, item := range items {
			infos[i] = store.ItemInfoFromModel(item)
		}
		st.CacheItems(infos...)
	}

	if err := applyViewQuery(st, query); err != nil {
		release()
		return nil, nil, err
	}
	s.logger.Debug("maintenance view populated",
		zap.Int("records", st.Len()),
		zap.Bool("filtered", !st.Filters().Empty()),
		zap.String("tab", string(st.ActiveTab())),
	)
	return st, release, nil
}

func applyViewQuery(st *store.RecordStore, query dto.ViewQuery) error {
	selectors := []struct {
		field  store.Field
		values []string
	}{
		{store.FieldSeason, query.Season},
		{store.FieldRecordType, query.RecordType},
		{store.FieldStatus, query.Status},
		{store.FieldCriticality, query.Criticality},
		{store.FieldItemID, []string{query.ItemID}},
		{store.FieldDateFrom, []string{query.DateFrom}},
		{store.FieldDateTo, []string{query.DateTo}},
	}
	var errs []string
	for _, sel := range selectors {
		if err := st.SetFilter(sel.field, sel.values...); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return appErrors.Validation("invalid view filters", errs)
	}
	st.SetActiveTab(store.ParseTab(query.Tab))
	return nil
}

// annotate attaches due information to pending records that carry a scheduled date.
func (s *ViewService) annotate(rec models.MaintenanceRecord, reminders map[string]int, now time.Time) dto.AnnotatedRecord {
	out := dto.AnnotatedRecord{MaintenanceRecord: rec}
	due, ok := rec.DueDate()
	if !ok || !rec.Status.Pending() {
		return out
	}
	threshold := s.opts.DefaultReminderDays
	if rec.TemplateID != nil {
		if days, found := reminders[*rec.TemplateID]; found {
			threshold = days
		}
	}
	days := scheduling.DaysUntilDue(due, now)
	out.DaysUntilDue = &days
	out.DueStatus = string(scheduling.DeriveStatus(due, threshold, now))
	return out
}
