package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
)

type templateSourceStub struct {
	templates map[string]*models.ScheduleTemplate
}

func (s *templateSourceStub) Get(ctx context.Context, id string) (*models.ScheduleTemplate, error) {
	t, ok := s.templates[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
	}
	clone := *t
	return &clone, nil
}

func (s *templateSourceStub) List(ctx context.Context, query dto.TemplateQuery) ([]models.ScheduleTemplate, error) {
	var out []models.ScheduleTemplate
	for _, id := range []string{"tpl-1", "tpl-2", "tpl-3"} {
		t, ok := s.templates[id]
		if !ok {
			continue
		}
		if string(t.ClassType) != query.ClassType {
			continue
		}
		if query.IsDefault != nil && t.IsDefault != *query.IsDefault {
			continue
		}
		if query.Enabled != nil && t.Enabled != *query.Enabled {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

type itemStoreStub struct {
	mu      sync.Mutex
	items   map[string]*models.Item
	getErr  map[string]error
	updates map[string][]string
}

func newItemStoreStub(items ...models.Item) *itemStoreStub {
	stub := &itemStoreStub{items: map[string]*models.Item{}, getErr: map[string]error{}, updates: map[string][]string{}}
	for i := range items {
		item := items[i]
		stub.items[item.ID] = &item
	}
	return stub
}

func (s *itemStoreStub) Get(ctx context.Context, id string) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.getErr[id]; err != nil {
		return nil, err
	}
	item, ok := s.items[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("item %s not found", id))
	}
	clone := *item
	clone.AppliedTemplates = append([]string(nil), item.AppliedTemplates...)
	return &clone, nil
}

func (s *itemStoreStub) UpdateAppliedTemplates(ctx context.Context, itemID string, templateIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[itemID].AppliedTemplates = templateIDs
	s.updates[itemID] = templateIDs
	return nil
}

type panickingWriter struct{}

func (panickingWriter) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	panic("writer exploded")
}

func halloweenInspection() *models.ScheduleTemplate {
	tpl := sampleTemplate()
	tpl.ClassType = models.ClassInflatable
	return tpl
}

func newApplicationFixture(t *testing.T, workers int, items ...models.Item) (*TemplateApplicationService, *itemStoreStub, *recordRepoStub) {
	t.Helper()
	templates := &templateSourceStub{templates: map[string]*models.ScheduleTemplate{"tpl-1": halloweenInspection()}}
	itemStore := newItemStoreStub(items...)
	records := newRecordRepoStub()
	svc := NewTemplateApplicationService(templates, itemStore, records, NewMetricsService(), nil, nil, ApplicationOptions{Workers: workers})
	svc.now = func() time.Time { return time.Date(2026, time.July, 15, 9, 30, 0, 0, time.UTC) }
	return svc, itemStore, records
}

func inflatable(id string) models.Item {
	return models.Item{ID: id, Name: id, Season: models.SeasonHalloween, ClassType: models.ClassInflatable}
}

func TestApplyGeneratesSeasonalInspectionsOutsideWorkWindow(t *testing.T) {
	svc, items, records := newApplicationFixture(t, 1, inflatable("X"))

	res, err := svc.Apply(context.Background(), "tpl-1", dto.ApplyTemplateRequest{ItemIDs: []string{"X"}}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, res.ItemsUpdated)
	assert.Equal(t, 2, res.RecordsCreated)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Details, 1)
	assert.Equal(t, dto.ApplySuccess, res.Details[0].Status)

	generated := records.forItem("X")
	require.Len(t, generated, 2)
	for i, r := range generated {
		require.NotNil(t, r.TemplateID)
		assert.Equal(t, "tpl-1", *r.TemplateID)
		require.NotNil(t, r.OccurrenceNumber)
		assert.Equal(t, i+1, *r.OccurrenceNumber)
		assert.True(t, r.IsScheduledTask)
		assert.Equal(t, models.RecordScheduled, r.Status)
		assert.Equal(t, models.TaskInspection, r.RecordType)
		assert.Equal(t, "10", r.TotalCost.String())
	}
	assert.Equal(t, time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC), *generated[0].DateScheduled)
	assert.Equal(t, time.Date(2027, time.October, 15, 0, 0, 0, 0, time.UTC), *generated[1].DateScheduled)
	assert.Equal(t, []string{"tpl-1"}, items.updates["X"])
}

func TestApplyIsolatesFailingItems(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			svc, _, records := newApplicationFixture(t, workers, inflatable("A"), inflatable("B"), inflatable("C"))
			records.failItems["B"] = errors.New("record api unreachable")

			res, err := svc.Apply(context.Background(), "tpl-1", dto.ApplyTemplateRequest{ItemIDs: []string{"A", "B", "C"}}, "admin")
			require.NoError(t, err)
			assert.Equal(t, 2, res.ItemsUpdated)
			assert.Equal(t, 4, res.RecordsCreated)
			require.Len(t, res.Details, 3)
			assert.Equal(t, []string{"A", "B", "C"}, []string{res.Details[0].ItemID, res.Details[1].ItemID, res.Details[2].ItemID})
			assert.Equal(t, dto.ApplySuccess, res.Details[0].Status)
			assert.Equal(t, dto.ApplyError, res.Details[1].Status)
			assert.Equal(t, "record api unreachable", res.Details[1].Error)
			assert.Equal(t, dto.ApplySuccess, res.Details[2].Status)
			assert.Equal(t, []string{"B: record api unreachable"}, res.Errors)
		})
	}
}

type slowWriter struct {
	delay time.Duration
	next  recordWriter
}

func (w slowWriter) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	time.Sleep(w.delay)
	return w.next.Create(ctx, record)
}

func TestApplyDeduplicatesRepeatedItems(t *testing.T) {
	templates := &templateSourceStub{templates: map[string]*models.ScheduleTemplate{"tpl-1": halloweenInspection()}}
	itemStore := newItemStoreStub(inflatable("X"), inflatable("Y"))
	records := newRecordRepoStub()
	writer := slowWriter{delay: 5 * time.Millisecond, next: records}
	svc := NewTemplateApplicationService(templates, itemStore, writer, NewMetricsService(), nil, nil, ApplicationOptions{Workers: 2})
	svc.now = func() time.Time { return time.Date(2026, time.July, 15, 9, 30, 0, 0, time.UTC) }

	res, err := svc.Apply(context.Background(), "tpl-1", dto.ApplyTemplateRequest{ItemIDs: []string{"X", "X", "Y", "X"}}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsUpdated)
	assert.Equal(t, 4, res.RecordsCreated)
	require.Len(t, res.Details, 4)
	statuses := []dto.ApplyStatus{res.Details[0].Status, res.Details[1].Status, res.Details[2].Status, res.Details[3].Status}
	assert.Equal(t, []dto.ApplyStatus{dto.ApplySuccess, dto.ApplySkipped, dto.ApplySuccess, dto.ApplySkipped}, statuses)
	assert.Equal(t, "X", res.Details[1].ItemID)
	assert.Equal(t, "duplicate of item at position 1", res.Details[1].Reason)
	assert.Len(t, records.forItem("X"), 2)
	assert.Equal(t, []string{"tpl-1"}, itemStore.updates["X"])
}

func TestApplySkipsAlreadyAppliedItems(t *testing.T) {
	svc, _, records := newApplicationFixture(t, 2, inflatable("A"), inflatable("B"))
	req := dto.ApplyTemplateRequest{ItemIDs: []string{"A", "B"}}

	first, err := svc.Apply(context.Background(), "tpl-1", req, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, first.ItemsUpdated)

	second, err := svc.Apply(context.Background(), "tpl-1", req, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, second.ItemsUpdated)
	assert.Equal(t, 0, second.RecordsCreated)
	for _, d := range second.Details {
		assert.Equal(t, dto.ApplySkipped, d.Status)
		assert.NotEmpty(t, d.Reason)
	}
	all, _ := records.List(context.Background(), models.RecordFilter{})
	assert.Len(t, all, 4)
}

func TestApplyReportsMissingItemAndRecoversPanics(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	templates := &templateSourceStub{templates: map[string]*models.ScheduleTemplate{"tpl-1": halloweenInspection()}}
	svc := NewTemplateApplicationService(templates, newItemStoreStub(inflatable("A")), panickingWriter{}, nil, nil, zap.New(core), ApplicationOptions{})

	res, err := svc.Apply(context.Background(), "tpl-1", dto.ApplyTemplateRequest{ItemIDs: []string{"A", "ghost"}}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ItemsUpdated)
	assert.Equal(t, dto.ApplyError, res.Details[0].Status)
	assert.Contains(t, res.Details[0].Error, "writer exploded")
	assert.Equal(t, dto.ApplyError, res.Details[1].Status)
	assert.Contains(t, res.Details[1].Error, "ghost")
	assert.Equal(t, 2, logs.FilterMessage("template application failed for item").Len())
}

func TestApplyAnchorsOnStartDateAndWarns(t *testing.T) {
	tpl := halloweenInspection()
	tpl.Enabled = false
	tpl.TaskKind = models.TaskRepair
	tpl.Category = "seam"
	tpl.Frequency = models.FrequencyQuarterly
	tpl.Season = nil
	templates := &templateSourceStub{templates: map[string]*models.ScheduleTemplate{"tpl-1": tpl}}
	cord := models.Item{ID: "K", ClassType: models.ClassCord}
	records := newRecordRepoStub()
	svc := NewTemplateApplicationService(templates, newItemStoreStub(cord), records, nil, nil, nil, ApplicationOptions{OccurrencesPerItem: 3})
	svc.now = func() time.Time { return time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC) }

	res, err := svc.Apply(context.Background(), "tpl-1", dto.ApplyTemplateRequest{ItemIDs: []string{"K"}, StartDate: strPtr("2026-06-15")}, "admin")
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, 3, res.RecordsCreated)

	generated := records.forItem("K")
	require.Len(t, generated, 3)
	assert.Equal(t, time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC), *generated[0].DateScheduled)
	assert.Equal(t, time.Date(2027, time.April, 1, 0, 0, 0, 0, time.UTC), *generated[1].DateScheduled)
	assert.Equal(t, time.Date(2027, time.July, 1, 0, 0, 0, 0, time.UTC), *generated[2].DateScheduled)
	assert.Equal(t, models.CriticalityMedium, generated[0].Criticality)
}

func TestApplyRejectsBadRequests(t *testing.T) {
	svc, _, _ := newApplicationFixture(t, 1, inflatable("A"))

	_, err := svc.Apply(context.Background(), "tpl-1", dto.ApplyTemplateRequest{}, "admin")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Apply(context.Background(), "missing", dto.ApplyTemplateRequest{ItemIDs: []string{"A"}}, "admin")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestApplyDefaultsUsesEnabledDefaultsForClass(t *testing.T) {
	def := halloweenInspection()
	def.IsDefault = true
	off := halloweenInspection()
	off.ID = "tpl-2"
	off.IsDefault = true
	off.Enabled = false
	other := halloweenInspection()
	other.ID = "tpl-3"
	other.IsDefault = true
	other.ClassType = models.ClassCord
	templates := &templateSourceStub{templates: map[string]*models.ScheduleTemplate{"tpl-1": def, "tpl-2": off, "tpl-3": other}}
	items := newItemStoreStub(inflatable("A"))
	svc := NewTemplateApplicationService(templates, items, newRecordRepoStub(), nil, nil, nil, ApplicationOptions{})
	svc.now = func() time.Time { return time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC) }

	res, err := svc.ApplyDefaults(context.Background(), "A", "system")
	require.NoError(t, err)
	require.Len(t, res.Templates, 1)
	assert.Equal(t, "tpl-1", res.Templates[0].TemplateID)
	assert.Equal(t, []string{"tpl-1"}, items.updates["A"])

	_, err = svc.ApplyDefaults(context.Background(), "ghost", "system")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
