// Package store holds the in-memory working set of maintenance records a view operates on.
//
// A RecordStore is constructed per view, subscribed to, fed from one or more fetch paths and then
// discarded. Feeds routinely overlap, so ingestion collapses records sharing an id with the most
// recently ingested copy winning.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	"github.com/noah-isme/seasonal-upkeep-api/internal/scheduling"
)

// UnknownSeason labels rollups whose item metadata has not been resolved.
const UnknownSeason = "Unknown"

// ItemInfo is the cached metadata for an item referenced by records.
type ItemInfo struct {
	ID        string
	Name      string
	Season    models.Season
	ClassType models.ClassType
}

// ItemInfoFromModel converts an item into its cached form.
func ItemInfoFromModel(item models.Item) ItemInfo {
	return ItemInfo{ID: item.ID, Name: item.Name, Season: item.Season, ClassType: item.ClassType}
}

// EventKind names the mutation that triggered a notification.
type EventKind string

const (
	EventIngest    EventKind = "ingest"
	EventReplace   EventKind = "replace"
	EventUpsert    EventKind = "upsert"
	EventRemove    EventKind = "remove"
	EventItems     EventKind = "items"
	EventTemplates EventKind = "templates"
	EventFilter    EventKind = "filter"
	EventTab       EventKind = "tab"
)

// Event is delivered to subscribers after every mutation.
type Event struct {
	Kind     EventKind
	Total    int
	Filtered int
}

// Subscriber receives change notifications. Invocation order across subscribers is unspecified.
type Subscriber func(Event)

// ItemRollup aggregates the filtered records of one item.
type ItemRollup struct {
	ItemID         string             `json:"itemId"`
	Season         string             `json:"season"`
	Repairs        int                `json:"repairs"`
	Maintenance    int                `json:"maintenance"`
	Inspections    int                `json:"inspections"`
	RecordCount    int                `json:"recordCount"`
	TotalCost      decimal.Decimal    `json:"totalCost"`
	Criticality    models.Criticality `json:"criticality"`
	LastRecordDate time.Time          `json:"lastRecordDate"`
}

// TabCounts reports how many records each tab would show under the current filters.
type TabCounts struct {
	All         int `json:"all"`
	Repairs     int `json:"repairs"`
	Maintenance int `json:"maintenance"`
	Inspections int `json:"inspections"`
	Items       int `json:"items"`
}

// ScheduleStats summarises templates and pending scheduled work.
type ScheduleStats struct {
	TotalTemplates    int `json:"totalTemplates"`
	EnabledTemplates  int `json:"enabledTemplates"`
	DisabledTemplates int `json:"disabledTemplates"`
	Upcoming          int `json:"upcoming"`
	Overdue           int `json:"overdue"`
}

// RecordStore is safe for concurrent use. Subscribers are invoked after the lock is released.
type RecordStore struct {
	mu        sync.RWMutex
	order     []string
	records   map[string]models.MaintenanceRecord
	items     map[string]ItemInfo
	templates []models.ScheduleTemplate
	filters   Filters
	tab       Tab
	filtered  []models.MaintenanceRecord

	subMu       sync.Mutex
	subscribers map[int]Subscriber
	nextSubID   int

	logger *zap.Logger
}

// New constructs an empty store showing the all tab.
func New(logger *zap.Logger) *RecordStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordStore{
		records:     make(map[string]models.MaintenanceRecord),
		items:       make(map[string]ItemInfo),
		tab:         TabAll,
		subscribers: make(map[int]Subscriber),
		logger:      logger,
	}
}

// Subscribe registers fn and returns a handle that removes it. Calling the handle twice is harmless.
func (s *RecordStore) Subscribe(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
}

// Ingest merges records into the working set and returns the number of unique records held.
func (s *RecordStore) Ingest(records []models.MaintenanceRecord) int {
	s.mu.Lock()
	collapsed := s.mergeLocked(records)
	total := len(s.order)
	filtered := s.recomputeLocked()
	s.mu.Unlock()

	if len(collapsed) > 0 {
		s.logger.Debug("collapsed duplicate records",
			zap.Int("count", len(collapsed)),
			zap.Strings("record_ids", collapsed),
		)
	}
	s.notify(Event{Kind: EventIngest, Total: total, Filtered: filtered})
	return total
}

// Replace discards the working set and loads records as a full reload.
func (s *RecordStore) Replace(records []models.MaintenanceRecord) int {
	s.mu.Lock()
	s.order = nil
	s.records = make(map[string]models.MaintenanceRecord, len(records))
	s.mergeLocked(records)
	total := len(s.order)
	filtered := s.recomputeLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventReplace, Total: total, Filtered: filtered})
	return total
}

// Upsert adds or replaces a single record.
func (s *RecordStore) Upsert(record models.MaintenanceRecord) {
	s.mu.Lock()
	s.mergeLocked([]models.MaintenanceRecord{record})
	total := len(s.order)
	filtered := s.recomputeLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventUpsert, Total: total, Filtered: filtered})
}

// Remove drops a record by id and reports whether it was present.
func (s *RecordStore) Remove(recordID string) bool {
	s.mu.Lock()
	if _, ok := s.records[recordID]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.records, recordID)
	for i, id := range s.order {
		if id == recordID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	total := len(s.order)
	filtered := s.recomputeLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventRemove, Total: total, Filtered: filtered})
	return true
}

// CacheItems records item metadata. Lookups are opportunistic; missing items stay unresolved.
func (s *RecordStore) CacheItems(items ...ItemInfo) {
	s.mu.Lock()
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		s.items[item.ID] = item
	}
	total := len(s.order)
	filtered := s.recomputeLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventItems, Total: total, Filtered: filtered})
}

// IngestTemplates replaces the template snapshot used by ScheduleStats.
func (s *RecordStore) IngestTemplates(templates []models.ScheduleTemplate) {
	s.mu.Lock()
	s.templates = append([]models.ScheduleTemplate(nil), templates...)
	total := len(s.order)
	filtered := len(s.filtered)
	s.mu.Unlock()

	s.notify(Event{Kind: EventTemplates, Total: total, Filtered: filtered})
}

// SetFilter replaces one selector. Passing no values clears it.
func (s *RecordStore) SetFilter(field Field, values ...string) error {
	s.mu.Lock()
	next := s.filters.clone()
	if err := next.set(field, values); err != nil {
		s.mu.Unlock()
		return err
	}
	s.filters = next
	total := len(s.order)
	filtered := s.recomputeLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventFilter, Total: total, Filtered: filtered})
	return nil
}

// SetFilters replaces the whole filter set.
func (s *RecordStore) SetFilters(filters Filters) {
	s.mu.Lock()
	s.filters = filters.clone()
	total := len(s.order)
	filtered := s.recomputeLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventFilter, Total: total, Filtered: filtered})
}

// ClearFilters resets every selector.
func (s *RecordStore) ClearFilters() {
	s.SetFilters(Filters{})
}

// Filters returns a copy of the active selectors.
func (s *RecordStore) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.clone()
}

// SetActiveTab switches the tab.
func (s *RecordStore) SetActiveTab(tab Tab) {
	s.mu.Lock()
	s.tab = ParseTab(string(tab))
	total := len(s.order)
	filtered := s.recomputeLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventTab, Total: total, Filtered: filtered})
}

// ActiveTab returns the current tab.
func (s *RecordStore) ActiveTab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tab
}

// Len is the number of unique records held.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *RecordStore) byID(recordID string) (models.MaintenanceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordID]
	return rec, ok
}

// AllRecords returns every record in first-ingested order.
func (s *RecordStore) AllRecords() []models.MaintenanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MaintenanceRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// FilteredRecords returns the current filtered view.
func (s *RecordStore) FilteredRecords() []models.MaintenanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MaintenanceRecord(nil), s.filtered...)
}

// GroupedByItem rolls the filtered view up per item, in order of first appearance.
func (s *RecordStore) GroupedByItem() []ItemRollup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[string]int)
	rollups := make([]ItemRollup, 0)
	ranks := make([]int, 0)

	for i := range s.filtered {
		rec := &s.filtered[i]
		pos, ok := index[rec.ItemID]
		if !ok {
			season := UnknownSeason
			if info, found := s.items[rec.ItemID]; found && info.Season != "" {
				season = string(info.Season)
			}
			pos = len(rollups)
			index[rec.ItemID] = pos
			rollups = append(rollups, ItemRollup{ItemID: rec.ItemID, Season: season, TotalCost: decimal.Zero})
			ranks = append(ranks, 0)
		}

		r := &rollups[pos]
		r.RecordCount++
		switch rec.RecordType {
		case models.TaskRepair:
			r.Repairs++
		case models.TaskMaintenance:
			r.Maintenance++
		case models.TaskInspection:
			r.Inspections++
		}
		r.TotalCost = r.TotalCost.Add(rec.TotalCost)
		if rank := rec.Criticality.Rank(); rank > ranks[pos] {
			ranks[pos] = rank
		}
		if rec.CreatedAt.After(r.LastRecordDate) {
			r.LastRecordDate = rec.CreatedAt
		}
	}

	for i := range rollups {
		rollups[i].Criticality = models.CriticalityForRank(ranks[i])
	}
	return rollups
}

// TabCounts applies every selector except the tab and counts what each tab would show.
func (s *RecordStore) TabCounts() TabCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stages := s.filters.predicates(TabAll, s.lookupLocked)
	var counts TabCounts
	items := make(map[string]struct{})
	for _, id := range s.order {
		rec := s.records[id]
		if !matchesAll(&rec, stages) {
			continue
		}
		counts.All++
		items[rec.ItemID] = struct{}{}
		switch rec.RecordType {
		case models.TaskRepair:
			counts.Repairs++
		case models.TaskMaintenance:
			counts.Maintenance++
		case models.TaskInspection:
			counts.Inspections++
		}
	}
	counts.Items = len(items)
	return counts
}

// ScheduleStats counts templates and pending scheduled records. Upcoming covers records due within
// windowDays of now; overdue covers pending records whose due date has passed.
func (s *RecordStore) ScheduleStats(now time.Time, windowDays int) ScheduleStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats ScheduleStats
	stats.TotalTemplates = len(s.templates)
	for _, t := range s.templates {
		if t.Enabled {
			stats.EnabledTemplates++
		}
	}
	stats.DisabledTemplates = stats.TotalTemplates - stats.EnabledTemplates

	for _, id := range s.order {
		rec := s.records[id]
		if !rec.IsScheduledTask || !rec.Status.Pending() {
			continue
		}
		due, ok := rec.DueDate()
		if !ok {
			continue
		}
		days := scheduling.DaysUntilDue(due, now)
		switch {
		case days < 0:
			stats.Overdue++
		case days <= windowDays:
			stats.Upcoming++
		}
	}
	return stats
}

// mergeLocked applies last-write-wins and returns the ids that collapsed onto an existing entry.
func (s *RecordStore) mergeLocked(records []models.MaintenanceRecord) []string {
	var collapsed []string
	for _, rec := range records {
		if rec.ID == "" {
			s.logger.Debug("skipping record without id", zap.String("item_id", rec.ItemID))
			continue
		}
		rec.Criticality = models.NormalizeCriticality(string(rec.Criticality))
		if _, exists := s.records[rec.ID]; exists {
			collapsed = append(collapsed, rec.ID)
		} else {
			s.order = append(s.order, rec.ID)
		}
		s.records[rec.ID] = rec
	}
	return collapsed
}

// recomputeLocked rebuilds the filtered view and returns its size.
func (s *RecordStore) recomputeLocked() int {
	stages := s.filters.predicates(s.tab, s.lookupLocked)
	filtered := make([]models.MaintenanceRecord, 0, len(s.order))
	for _, id := range s.order {
		rec := s.records[id]
		if matchesAll(&rec, stages) {
			filtered = append(filtered, rec)
		}
	}
	s.filtered = filtered
	return len(filtered)
}

func (s *RecordStore) lookupLocked(itemID string) (ItemInfo, bool) {
	info, ok := s.items[itemID]
	return info, ok
}

func (s *RecordStore) notify(evt Event) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]Subscriber, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subscribers[id])
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(evt)
	}
}
