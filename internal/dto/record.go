package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate reads an optional YYYY-MM-DD value. Blank input yields nil.
func ParseDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected %s", *raw, DateLayout)
	}
	return &t, nil
}

// CreateRecordRequest is the payload for an ad hoc maintenance record.
type CreateRecordRequest struct {
	ItemID                  string             `json:"itemId" validate:"required"`
	RecordType              string             `json:"recordType" validate:"required,oneof=repair maintenance inspection"`
	Status                  string             `json:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	Title                   string             `json:"title" validate:"required"`
	Description             string             `json:"description"`
	Criticality             models.Criticality `json:"criticality"`
	DatePerformed           *string            `json:"datePerformed,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateScheduled           *string            `json:"dateScheduled,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PerformedBy             string             `json:"performedBy"`
	EstimatedCompletionDate *string            `json:"estimatedCompletionDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MaterialsUsed           []models.Material  `json:"materialsUsed" validate:"omitempty,dive"`
	CostRecordIDs           []string           `json:"costRecordIds"`
	TotalCost               *decimal.Decimal   `json:"totalCost,omitempty"`
	Attachments             models.Attachments `json:"attachments"`
}

// UpdateRecordRequest patches a record. Nil fields are left unchanged.
type UpdateRecordRequest struct {
	Status                  *string             `json:"status,omitempty" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	Title                   *string             `json:"title,omitempty"`
	Description             *string             `json:"description,omitempty"`
	Criticality             *models.Criticality `json:"criticality,omitempty"`
	DatePerformed           *string             `json:"datePerformed,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateScheduled           *string             `json:"dateScheduled,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PerformedBy             *string             `json:"performedBy,omitempty"`
	EstimatedCompletionDate *string             `json:"estimatedCompletionDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MaterialsUsed           []models.Material   `json:"materialsUsed,omitempty"`
	CostRecordIDs           []string            `json:"costRecordIds,omitempty"`
	TotalCost               *decimal.Decimal    `json:"totalCost,omitempty"`
	Attachments             *models.Attachments `json:"attachments,omitempty"`
}
