package entities

import (
	"time"

	"github.com/google/uuid"
)

// Insight stores the AI-generated narrative for one owner. One row per
// owner, overwritten on regeneration. The numeric rollup is computed on
// demand and never persisted.
type Insight struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	OwnerType   string    `gorm:"uniqueIndex:idx_insights_owner;not null" json:"owner_type"`
	OwnerID     string    `gorm:"uniqueIndex:idx_insights_owner;not null" json:"owner_id"`
	Content     string    `gorm:"type:text" json:"content"`
	LastUpdated time.Time `json:"last_updated"`

	Timestamp
}
