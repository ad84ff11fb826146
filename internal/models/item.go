package models

import (
	"time"

	"github.com/lib/pq"
)

// Item is the slice of an inventory item this service needs. Items are owned by the inventory service.
type Item struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Season           Season         `db:"season" json:"season"`
	ClassType        ClassType      `db:"class_type" json:"classType"`
	AppliedTemplates pq.StringArray `db:"applied_templates" json:"appliedTemplates"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// HasTemplate reports whether templateID is already in the applied set.
func (i *Item) HasTemplate(templateID string) bool {
	if i == nil {
		return false
	}
	for _, id := range i.AppliedTemplates {
		if id == templateID {
			return true
		}
	}
	return false
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	Season    Season
	ClassType ClassType
}
