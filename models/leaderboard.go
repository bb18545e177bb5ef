package models

import "time"

// LeaderboardEntry is a cached ranking row rebuilt by the leaderboard worker.
// Reads never touch user_progress directly; the worker upserts by user so the
// table stays bounded at one row per user.
type LeaderboardEntry struct {
	ID uint64 `gorm:"primaryKey" json:"-"`

	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`

	TotalXP int64 `gorm:"not null;default:0" json:"total_xp"`
	Level   int   `gorm:"not null;default:0" json:"level"`
	Rank    int   `gorm:"index;not null" json:"rank"`

	RefreshedAt time.Time `json:"refreshed_at"`
}
