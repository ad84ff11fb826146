package dto

import (
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	"github.com/noah-isme/seasonal-upkeep-api/internal/store"
)

// ViewQuery selects the tab and filters for a maintenance view.
type ViewQuery struct {
	Tab         string   `form:"tab" json:"tab"`
	Season      []string `form:"season" json:"season"`
	RecordType  []string `form:"recordType" json:"recordType"`
	Status      []string `form:"status" json:"status"`
	Criticality []string `form:"criticality" json:"criticality"`
	ItemID      string   `form:"itemId" json:"itemId"`
	DateFrom    string   `form:"dateFrom" json:"dateFrom"`
	DateTo      string   `form:"dateTo" json:"dateTo"`
}

// ExportQuery extends the view query with an output format.
type ExportQuery struct {
	ViewQuery
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}

// AnnotatedRecord is a record decorated with its due-date status.
type AnnotatedRecord struct {
	models.MaintenanceRecord
	DaysUntilDue *int   `json:"daysUntilDue,omitempty"`
	DueStatus    string `json:"dueStatus,omitempty"`
}

// ViewResult is the derived state backing a maintenance screen.
type ViewResult struct {
	Tab       store.Tab           `json:"tab"`
	Records   []AnnotatedRecord   `json:"records"`
	Rollups   []store.ItemRollup  `json:"rollups"`
	TabCounts store.TabCounts     `json:"tabCounts"`
	Stats     store.ScheduleStats `json:"stats"`
}
