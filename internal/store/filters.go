package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
)

// Tab selects which slice of the record set a view is looking at.
type Tab string

const (
	TabAll         Tab = "all"
	TabRepairs     Tab = "repairs"
	TabMaintenance Tab = "maintenance"
	TabInspections Tab = "inspections"
	TabItems       Tab = "items"
)

// ParseTab maps raw input onto a Tab; unknown values select all.
func ParseTab(raw string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(raw))) {
	case TabRepairs:
		return TabRepairs
	case TabMaintenance:
		return TabMaintenance
	case TabInspections:
		return TabInspections
	case TabItems:
		return TabItems
	default:
		return TabAll
	}
}

// recordType returns the singular record type a tab narrows to, or "" for all/items.
func (t Tab) recordType() models.TaskKind {
	switch t {
	case TabRepairs:
		return models.TaskRepair
	case TabMaintenance:
		return models.TaskMaintenance
	case TabInspections:
		return models.TaskInspection
	}
	return ""
}

// Field names a filter selector accepted by SetFilter.
type Field string

const (
	FieldSeason      Field = "season"
	FieldRecordType  Field = "recordType"
	FieldStatus      Field = "status"
	FieldCriticality Field = "criticality"
	FieldItemID      Field = "itemId"
	FieldDateFrom    Field = "dateFrom"
	FieldDateTo      Field = "dateTo"
)

// CriticalityNoneSelector matches records without a criticality.
const CriticalityNoneSelector = "none"

const dateLayout = "2006-01-02"

// Filters is the composable filter set. Empty selectors pass everything.
type Filters struct {
	Seasons       []models.Season
	RecordTypes   []models.TaskKind
	Statuses      []models.RecordStatus
	Criticalities []string
	ItemID        string
	From          *time.Time
	To            *time.Time
}

// Empty reports whether no selector is active.
func (f Filters) Empty() bool {
	return len(f.Seasons) == 0 && len(f.RecordTypes) == 0 && len(f.Statuses) == 0 &&
		len(f.Criticalities) == 0 && f.ItemID == "" && f.From == nil && f.To == nil
}

func (f Filters) clone() Filters {
	out := Filters{
		Seasons:       append([]models.Season(nil), f.Seasons...),
		RecordTypes:   append([]models.TaskKind(nil), f.RecordTypes...),
		Statuses:      append([]models.RecordStatus(nil), f.Statuses...),
		Criticalities: append([]string(nil), f.Criticalities...),
		ItemID:        f.ItemID,
	}
	if f.From != nil {
		from := *f.From
		out.From = &from
	}
	if f.To != nil {
		to := *f.To
		out.To = &to
	}
	return out
}

// set replaces one selector. Blank values are dropped so a field set to nothing is cleared.
func (f *Filters) set(field Field, values []string) error {
	if field == FieldItemID {
		f.ItemID = ""
		if len(values) > 0 {
			f.ItemID = strings.TrimSpace(values[0])
		}
		return nil
	}
	values = compact(values)
	switch field {
	case FieldSeason:
		f.Seasons = f.Seasons[:0]
		for _, v := range values {
			f.Seasons = append(f.Seasons, models.Season(v))
		}
	case FieldRecordType:
		f.RecordTypes = f.RecordTypes[:0]
		for _, v := range values {
			f.RecordTypes = append(f.RecordTypes, models.TaskKind(strings.ToLower(v)))
		}
	case FieldStatus:
		f.Statuses = f.Statuses[:0]
		for _, v := range values {
			f.Statuses = append(f.Statuses, models.RecordStatus(strings.ToLower(v)))
		}
	case FieldCriticality:
		f.Criticalities = f.Criticalities[:0]
		for _, v := range values {
			f.Criticalities = append(f.Criticalities, strings.ToLower(v))
		}
	case FieldDateFrom:
		from, err := parseBound(values, false)
		if err != nil {
			return err
		}
		f.From = from
	case FieldDateTo:
		to, err := parseBound(values, true)
		if err != nil {
			return err
		}
		f.To = to
	default:
		return fmt.Errorf("unknown filter field %q", field)
	}
	return nil
}

// parseBound reads a YYYY-MM-DD or RFC3339 bound. A date-only upper bound covers the whole day.
func parseBound(values []string, upper bool) (*time.Time, error) {
	if len(values) == 0 {
		return nil, nil
	}
	raw := values[0]
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected %s", raw, dateLayout)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

// predicate is one independent filter stage. Stages are ANDed.
type predicate func(rec *models.MaintenanceRecord) bool

// predicates builds the pipeline for the current selectors. lookup resolves cached item metadata.
func (f Filters) predicates(tab Tab, lookup func(itemID string) (ItemInfo, bool)) []predicate {
	var stages []predicate

	if kind := tab.recordType(); kind != "" {
		stages = append(stages, func(rec *models.MaintenanceRecord) bool {
			return rec.RecordType == kind
		})
	}

	if len(f.Seasons) > 0 {
		seasons := f.Seasons
		stages = append(stages, func(rec *models.MaintenanceRecord) bool {
			info, ok := lookup(rec.ItemID)
			if !ok {
				// unresolved item metadata never matches a season selector
				return false
			}
			for _, s := range seasons {
				if strings.EqualFold(string(s), string(info.Season)) {
					return true
				}
			}
			return false
		})
	}

	if len(f.RecordTypes) > 0 {
		types := f.RecordTypes
		stages = append(stages, func(rec *models.MaintenanceRecord) bool {
			for _, t := range types {
				if rec.RecordType == t {
					return true
				}
			}
			return false
		})
	}

	if len(f.Statuses) > 0 {
		statuses := f.Statuses
		stages = append(stages, func(rec *models.MaintenanceRecord) bool {
			for _, s := range statuses {
				if rec.Status == s {
					return true
				}
			}
			return false
		})
	}

	if len(f.Criticalities) > 0 {
		selected := f.Criticalities
		stages = append(stages, func(rec *models.MaintenanceRecord) bool {
			for _, c := range selected {
				if c == CriticalityNoneSelector {
					if rec.Criticality == models.CriticalityNone {
						return true
					}
					continue
				}
				if models.NormalizeCriticality(c) == rec.Criticality && rec.Criticality != models.CriticalityNone {
					return true
				}
			}
			return false
		})
	}

	if f.ItemID != "" {
		needle := strings.ToLower(f.ItemID)
		stages = append(stages, func(rec *models.MaintenanceRecord) bool {
			return strings.Contains(strings.ToLower(rec.ItemID), needle)
		})
	}

	if f.From != nil {
		from := *f.From
		stages = append(stages, func(rec *models.MaintenanceRecord) bool {
			return !rec.CreatedAt.Before(from)
		})
	}

	if f.To != nil {
		to := *f.To
		stages = append(stages, func(rec *models.MaintenanceRecord) bool {
			return !rec.CreatedAt.After(to)
		})
	}

	return stages
}

func matchesAll(rec *models.MaintenanceRecord, stages []predicate) bool {
	for _, stage := range stages {
		if !stage(rec) {
			return false
		}
	}
	return true
}
