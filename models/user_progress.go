package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress is the per-user XP ledger. TotalXP and Level are always
// written together from the same computation; no code path may update one
// without recomputing the other.
type UserProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // profile service's user id

	TotalXP int64 `json:"total_xp" gorm:"not null;default:0"`
	Level   int   `json:"level" gorm:"not null;default:0"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times.
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
