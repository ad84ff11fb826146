package dto

// ApplyStatus is the per-item outcome of a template application.
type ApplyStatus string

const (
	ApplySuccess ApplyStatus = "success"
	ApplySkipped ApplyStatus = "skipped"
	ApplyError   ApplyStatus = "error"
)

// ApplyTemplateRequest targets a template at a set of items.
type ApplyTemplateRequest struct {
	ItemIDs   []string `json:"itemIds" validate:"required,min=1,dive,required"`
	StartDate *string  `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ApplyItemDetail reports what happened for one requested item.
type ApplyItemDetail struct {
	ItemID         string      `json:"itemId"`
	Status         ApplyStatus `json:"status"`
	RecordsCreated int         `json:"recordsCreated"`
	Reason         string      `json:"reason,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// ApplyTemplateResult aggregates a batch application. Details follow the order of the requested ids.
type ApplyTemplateResult struct {
	TemplateID     string            `json:"templateId"`
	ItemsUpdated   int               `json:"itemsUpdated"`
	RecordsCreated int               `json:"recordsCreated"`
	Warnings       []string          `json:"warnings"`
	Errors         []string          `json:"errors"`
	Details        []ApplyItemDetail `json:"details"`
}

// ApplyDefaultsResult reports the default templates applied to a single item.
type ApplyDefaultsResult struct {
	ItemID    string                `json:"itemId"`
	Templates []ApplyTemplateResult `json:"templates"`
}

// ApplyDefaultsAccepted acknowledges a queued apply-defaults job.
type ApplyDefaultsAccepted struct {
	JobID  string `json:"jobId"`
	ItemID string `json:"itemId"`
}
