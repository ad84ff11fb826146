// Package scheduling computes due dates for recurring upkeep work.
//
// Every function here is pure: callers pass "now" explicitly. Dates are calendar dates; the
// calendar day is read in the input's own location and results are returned as UTC midnight.
package scheduling

import (
	"math"
	"strings"
	"time"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
)

// DueStatus is the display status derived from a due date and reminder threshold.
type DueStatus string

const (
	StatusUpcoming DueStatus = "upcoming"
	StatusDue      DueStatus = "due"
	StatusOverdue  DueStatus = "overdue"
)

// Work window bounds: physical repair and maintenance happens between April 1 and September 30.
const (
	workWindowStartMonth = time.April
	workWindowEndMonth   = time.September
	workWindowEndDay     = 30
)

// inspectionCategories are template categories that behave like inspections even when the
// task kind says otherwise.
var inspectionCategories = map[string]struct{}{
	"fabric_check":     {},
	"electrical_check": {},
}

// Task is the subset of a template that drives due-date computation.
type Task struct {
	Frequency models.Frequency
	Season    models.Season
	Kind      models.TaskKind
	Category  string
}

// TaskFromTemplate extracts the scheduling inputs from a template.
func TaskFromTemplate(t *models.ScheduleTemplate) Task {
	if t == nil {
		return Task{Frequency: models.FrequencyAnnual}
	}
	return Task{
		Frequency: t.Frequency,
		Season:    t.SeasonValue(),
		Kind:      t.TaskKind,
		Category:  t.Category,
	}
}

// IsInspection reports whether work of this kind/category is exempt from the work window.
func IsInspection(kind models.TaskKind, category string) bool {
	if kind == models.TaskInspection {
		return true
	}
	_, ok := inspectionCategories[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// ParseFrequency maps raw input to a Frequency. Unknown values resolve to annual and report false.
func ParseFrequency(raw string) (models.Frequency, bool) {
	f := models.Frequency(strings.ToLower(strings.TrimSpace(raw)))
	if f.Known() {
		return f, true
	}
	return models.FrequencyAnnual, false
}

// NextDueDate computes the next occurrence after from.
//
// Seasonal results are never clamped. Everything else passes through ClampToWorkWindow unless the
// task is an inspection. Unknown frequencies follow the annual rule.
func NextDueDate(task Task, from, now time.Time) time.Time {
	from = DateOnly(from)
	today := DateOnly(now)
	inspection := IsInspection(task.Kind, task.Category)

	var next time.Time
	switch task.Frequency {
	case models.FrequencyQuarterly:
		next = from.AddDate(0, 3, 0)
	case models.FrequencyMonthly:
		next = from.AddDate(0, 1, 0)
	case models.FrequencySeasonal, models.FrequencyPreSeason:
		next = SeasonalDueDate(task.Season, from.Year(), inspection)
		if next.Before(today) || !next.After(from) {
			next = SeasonalDueDate(task.Season, from.Year()+1, inspection)
		}
		if task.Frequency == models.FrequencySeasonal {
			return next
		}
	case models.FrequencyPostSeason:
		next = date(from.Year(), time.April, 1)
		if !next.After(from) {
			next = date(from.Year()+1, time.April, 1)
		}
	default:
		next = from.AddDate(1, 0, 0)
	}

	if inspection {
		return next
	}
	return ClampToWorkWindow(next)
}

// Occurrences chains NextDueDate n times starting from anchor.
func Occurrences(task Task, anchor time.Time, n int, now time.Time) []time.Time {
	if n <= 0 {
		return nil
	}
	dates := make([]time.Time, 0, n)
	from := anchor
	for i := 0; i < n; i++ {
		next := NextDueDate(task, from, now)
		dates = append(dates, next)
		from = next
	}
	return dates
}

// SeasonalDueDate returns the target date for a season in the given year.
//
//	Halloween: inspection Oct 15, otherwise Aug 1
//	Christmas: inspection Dec 15, otherwise May 1
//	Shared and unknown seasons: Apr 1
func SeasonalDueDate(season models.Season, year int, isInspection bool) time.Time {
	switch season {
	case models.SeasonHalloween:
		if isInspection {
			return date(year, time.October, 15)
		}
		return date(year, time.August, 1)
	case models.SeasonChristmas:
		if isInspection {
			return date(year, time.December, 15)
		}
		return date(year, time.May, 1)
	default:
		return date(year, time.April, 1)
	}
}

// ClampToWorkWindow moves d into [Apr 1, Sep 30] of its own year, or to Apr 1 of the next year
// when d falls after the window.
func ClampToWorkWindow(d time.Time) time.Time {
	d = DateOnly(d)
	year := d.Year()
	start := date(year, workWindowStartMonth, 1)
	end := date(year, workWindowEndMonth, workWindowEndDay)
	switch {
	case d.Before(start):
		return start
	case d.After(end):
		return date(year+1, workWindowStartMonth, 1)
	default:
		return d
	}
}

// IsWithinWorkWindow reports whether d falls between April 1 and September 30 inclusive.
func IsWithinWorkWindow(d time.Time) bool {
	_, month, day := d.Date()
	if month < workWindowStartMonth || month > workWindowEndMonth {
		return false
	}
	return month != workWindowEndMonth || day <= workWindowEndDay
}

// DaysUntilDue is the ceiling of the day difference between due and now. Negative means overdue.
func DaysUntilDue(due, now time.Time) int {
	days := math.Ceil(due.Sub(now).Hours() / 24)
	if days == 0 {
		return 0
	}
	return int(days)
}

// DeriveStatus maps a due date to overdue / due / upcoming given the reminder threshold in days.
func DeriveStatus(due time.Time, daysBeforeReminder int, now time.Time) DueStatus {
	days := DaysUntilDue(due, now)
	switch {
	case days < 0:
		return StatusOverdue
	case days <= daysBeforeReminder:
		return StatusDue
	default:
		return StatusUpcoming
	}
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return date(y, m, d)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
