// Package models defines the entities Gastoro caches and aggregates.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaceholderUserID is the fixed identity used everywhere until real
// authentication exists.
var PlaceholderUserID = uuid.MustParse("00000000-0000-0000-0000-000000000000")

// DefaultModel is the base model for all entities.
type DefaultModel struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates a UUID for the resource.
func (m *DefaultModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
