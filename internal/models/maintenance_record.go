package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// RecordStatus tracks the lifecycle of a maintenance record.
type RecordStatus string

const (
	RecordScheduled  RecordStatus = "scheduled"
	RecordInProgress RecordStatus = "in_progress"
	RecordCompleted  RecordStatus = "completed"
	RecordCancelled  RecordStatus = "cancelled"
)

// Pending reports whether the record still represents future work.
func (s RecordStatus) Pending() bool {
	return s == RecordScheduled || s == RecordInProgress
}

// CanTransitionTo enforces scheduled -> in_progress -> completed, with cancellation from any pending state.
func (s RecordStatus) CanTransitionTo(next RecordStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case RecordScheduled:
		return next == RecordInProgress || next == RecordCompleted || next == RecordCancelled
	case RecordInProgress:
		return next == RecordCompleted || next == RecordCancelled
	}
	return false
}

// Criticality ranks repair severity. The empty value means "none".
type Criticality string

const (
	CriticalityNone   Criticality = ""
	CriticalityLow    Criticality = "low"
	CriticalityMedium Criticality = "medium"
	CriticalityHigh   Criticality = "high"
)

// NormalizeCriticality folds the legacy "null"/"none" spellings into CriticalityNone.
func NormalizeCriticality(raw string) Criticality {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "null", "none":
		return CriticalityNone
	default:
		return Criticality(strings.ToLower(strings.TrimSpace(raw)))
	}
}

// Rank orders criticalities high(3) > medium(2) > low(1) > none(0).
func (c Criticality) Rank() int {
	switch c {
	case CriticalityHigh:
		return 3
	case CriticalityMedium:
		return 2
	case CriticalityLow:
		return 1
	}
	return 0
}

// CriticalityForRank maps a rank back to its label.
func CriticalityForRank(rank int) Criticality {
	switch rank {
	case 3:
		return CriticalityHigh
	case 2:
		return CriticalityMedium
	case 1:
		return CriticalityLow
	}
	return CriticalityNone
}

// MarshalJSON renders "none" as null.
func (c Criticality) MarshalJSON() ([]byte, error) {
	if c == CriticalityNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON accepts null, "", "null" and the enumerated labels.
func (c *Criticality) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = CriticalityNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("criticality: %w", err)
	}
	*c = NormalizeCriticality(raw)
	return nil
}

// Material is one consumable line used while performing a record.
type Material struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Materials is stored as a JSONB array.
type Materials []Material

// Value implements driver.Valuer.
func (m Materials) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Material(m))
}

// Scan implements sql.Scanner.
func (m *Materials) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// Attachments groups photo references by purpose.
type Attachments struct {
	Before        []string `json:"before,omitempty"`
	After         []string `json:"after,omitempty"`
	Documentation []string `json:"documentation,omitempty"`
}

// Value implements driver.Valuer.
func (a Attachments) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Attachments) Scan(src interface{}) error {
	return scanJSON(src, a)
}

func scanJSON(src interface{}, dest interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

// MaintenanceRecord is one concrete upkeep task for an item, generated from a template or entered ad hoc.
type MaintenanceRecord struct {
	ID                      string          `db:"id" json:"recordId"`
	ItemID                  string          `db:"item_id" json:"itemId"`
	TemplateID              *string         `db:"template_id" json:"templateId,omitempty"`
	OccurrenceNumber        *int            `db:"occurrence_number" json:"occurrenceNumber,omitempty"`
	IsScheduledTask         bool            `db:"is_scheduled_task" json:"isScheduledTask"`
	RecordType              TaskKind        `db:"record_type" json:"recordType"`
	Status                  RecordStatus    `db:"status" json:"status"`
	Title                   string          `db:"title" json:"title"`
	Description             string          `db:"description" json:"description"`
	Criticality             Criticality     `db:"criticality" json:"criticality"`
	DatePerformed           *time.Time      `db:"date_performed" json:"datePerformed,omitempty"`
	DateScheduled           *time.Time      `db:"date_scheduled" json:"dateScheduled,omitempty"`
	PerformedBy             string          `db:"performed_by" json:"performedBy"`
	EstimatedCompletionDate *time.Time      `db:"estimated_completion_date" json:"estimatedCompletionDate,omitempty"`
	MaterialsUsed           Materials       `db:"materials_used" json:"materialsUsed"`
	CostRecordIDs           pq.StringArray  `db:"cost_record_ids" json:"costRecordIds"`
	TotalCost               decimal.Decimal `db:"total_cost" json:"totalCost"`
	Attachments             Attachments     `db:"attachments" json:"attachments"`
	CreatedAt               time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time       `db:"updated_at" json:"updatedAt"`
	UpdatedBy               string          `db:"updated_by" json:"updatedBy"`
}

// DueDate returns the scheduled date, if any.
func (r *MaintenanceRecord) DueDate() (time.Time, bool) {
	if r == nil || r.DateScheduled == nil {
		return time.Time{}, false
	}
	return *r.DateScheduled, true
}

// RecordFilter narrows record listings at the repository level.
type RecordFilter struct {
	ItemID     string
	TemplateID string
	Statuses   []RecordStatus
}
