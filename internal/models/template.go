package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassType is the category of inventory item a template targets.
type ClassType string

const (
	ClassInflatable  ClassType = "Inflatable"
	ClassAnimatronic ClassType = "Animatronic"
	ClassStaticProp  ClassType = "StaticProp"
	ClassStringLight ClassType = "StringLight"
	ClassSpotLight   ClassType = "SpotLight"
	ClassCord        ClassType = "Cord"
	ClassPlug        ClassType = "Plug"
)

// TaskKind classifies upkeep work. Records reuse it as their record type.
type TaskKind string

const (
	TaskRepair      TaskKind = "repair"
	TaskMaintenance TaskKind = "maintenance"
	TaskInspection  TaskKind = "inspection"
)

// Valid reports whether k is one of the known task kinds.
func (k TaskKind) Valid() bool {
	switch k {
	case TaskRepair, TaskMaintenance, TaskInspection:
		return true
	}
	return false
}

// Frequency controls how the next occurrence of a template is computed.
type Frequency string

const (
	FrequencyAnnual     Frequency = "annual"
	FrequencySeasonal   Frequency = "seasonal"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyPreSeason  Frequency = "pre_season"
	FrequencyPostSeason Frequency = "post_season"
)

// Known reports whether f is part of the enumerated set.
func (f Frequency) Known() bool {
	switch f {
	case FrequencyAnnual, FrequencySeasonal, FrequencyQuarterly, FrequencyMonthly, FrequencyPreSeason, FrequencyPostSeason:
		return true
	}
	return false
}

// RequiresSeason is true for frequencies anchored on a deployment season.
func (f Frequency) RequiresSeason() bool {
	return f == FrequencySeasonal || f == FrequencyPreSeason
}

// Season is the deployment season an item or template belongs to.
type Season string

const (
	SeasonHalloween Season = "Halloween"
	SeasonChristmas Season = "Christmas"
	SeasonShared    Season = "Shared"
)

// CategoryUncategorized marks templates created before the category taxonomy existed.
const CategoryUncategorized = "Uncategorized"

// DefaultDaysBeforeReminder is used when a template does not specify a reminder threshold.
const DefaultDaysBeforeReminder = 7

// ScheduleTemplate is a reusable recurring maintenance rule for a class of items.
type ScheduleTemplate struct {
	ID                       string              `db:"id" json:"templateId"`
	ClassType                ClassType           `db:"class_type" json:"classType"`
	TaskKind                 TaskKind            `db:"task_kind" json:"taskKind"`
	Category                 string              `db:"category" json:"category"`
	ShortName                string              `db:"short_name" json:"shortName"`
	Title                    string              `db:"title" json:"title"`
	Description              string              `db:"description" json:"description"`
	Frequency                Frequency           `db:"frequency" json:"frequency"`
	Season                   *Season             `db:"season" json:"season,omitempty"`
	StartDate                *time.Time          `db:"start_date" json:"startDate,omitempty"`
	IsDefault                bool                `db:"is_default" json:"isDefault"`
	Enabled                  bool                `db:"enabled" json:"enabled"`
	EstimatedCost            decimal.NullDecimal `db:"estimated_cost" json:"estimatedCost"`
	EstimatedDurationMinutes *int                `db:"estimated_duration_minutes" json:"estimatedDurationMinutes,omitempty"`
	DaysBeforeReminder       int                 `db:"days_before_reminder" json:"daysBeforeReminder"`
	CreatedAt                time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt                time.Time           `db:"updated_at" json:"updatedAt"`
	UpdatedBy                string              `db:"updated_by" json:"updatedBy"`
}

// SeasonValue returns the template season or "" when absent.
func (t *ScheduleTemplate) SeasonValue() Season {
	if t == nil || t.Season == nil {
		return ""
	}
	return *t.Season
}

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	ClassType ClassType
	TaskKind  TaskKind
	Enabled   *bool
	IsDefault *bool
}
