package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
)

// TemplateDraft is the payload for creating or validating a schedule template.
type TemplateDraft struct {
	ClassType                string           `json:"classType"`
	TaskKind                 string           `json:"taskKind"`
	Category                 string           `json:"category"`
	ShortName                string           `json:"shortName"`
	Title                    string           `json:"title"`
	Description              string           `json:"description"`
	Frequency                string           `json:"frequency"`
	Season                   *string          `json:"season,omitempty"`
	StartDate                *string          `json:"startDate,omitempty"`
	IsDefault                bool             `json:"isDefault"`
	Enabled                  *bool            `json:"enabled,omitempty"`
	EstimatedCost            *decimal.Decimal `json:"estimatedCost,omitempty"`
	EstimatedDurationMinutes *int             `json:"estimatedDurationMinutes,omitempty"`
	DaysBeforeReminder       *int             `json:"daysBeforeReminder,omitempty"`
}

// TemplatePatch carries a partial template update. Nil fields are left unchanged.
type TemplatePatch struct {
	ClassType                *string          `json:"classType,omitempty"`
	TaskKind                 *string          `json:"taskKind,omitempty"`
	Category                 *string          `json:"category,omitempty"`
	ShortName                *string          `json:"shortName,omitempty"`
	Title                    *string          `json:"title,omitempty"`
	Description              *string          `json:"description,omitempty"`
	Frequency                *string          `json:"frequency,omitempty"`
	Season                   *string          `json:"season,omitempty"`
	StartDate                *string          `json:"startDate,omitempty"`
	IsDefault                *bool            `json:"isDefault,omitempty"`
	Enabled                  *bool            `json:"enabled,omitempty"`
	EstimatedCost            *decimal.Decimal `json:"estimatedCost,omitempty"`
	EstimatedDurationMinutes *int             `json:"estimatedDurationMinutes,omitempty"`
	DaysBeforeReminder       *int             `json:"daysBeforeReminder,omitempty"`
}

// ValidationResult lists every problem found in a draft. Warnings never block a save.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// TemplateQuery filters template listings.
type TemplateQuery struct {
	ClassType string `form:"classType" json:"classType"`
	TaskKind  string `form:"taskKind" json:"taskKind"`
	Enabled   *bool  `form:"enabled" json:"enabled"`
	IsDefault *bool  `form:"isDefault" json:"isDefault"`
}

// TemplateUpdateResult reports the saved template and how many pending records were touched.
type TemplateUpdateResult struct {
	Template            *models.ScheduleTemplate `json:"template"`
	UpdatedRecordsCount int                      `json:"updatedRecordsCount"`
}

// TemplateDeleteResult reports how many pending generated records were cancelled.
type TemplateDeleteResult struct {
	CancelledRecordsCount int `json:"cancelledRecordsCount"`
}

// NextDueQuery previews upcoming occurrences of a template.
type NextDueQuery struct {
	From  string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	Count int    `form:"count" json:"count" validate:"omitempty,min=1,max=24"`
}

// NextDueEntry is one previewed occurrence.
type NextDueEntry struct {
	Occurrence   int    `json:"occurrence"`
	DueDate      string `json:"dueDate"`
	InWorkWindow bool   `json:"inWorkWindow"`
	DaysUntilDue int    `json:"daysUntilDue"`
	Status       string `json:"status"`
}

// NextDueResponse lists previewed occurrences for a template.
type NextDueResponse struct {
	TemplateID string         `json:"templateId"`
	Frequency  string         `json:"frequency"`
	Entries    []NextDueEntry `json:"entries"`
}
