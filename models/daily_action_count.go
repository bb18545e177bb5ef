package models

import "time"

// DailyActionCount tracks how many times a user performed a gamified action
// on a given UTC calendar day. Rows are only ever touched through an atomic
// upsert-with-increment; the count keeps growing past the daily cap (true
// activity volume), only the reward is suppressed. Rollover is implicit:
// ActionDate changes at midnight UTC.
type DailyActionCount struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	ExternalUserID string `gorm:"not null;uniqueIndex:idx_daily_action_window" json:"external_user_id"`
	ActionType     string `gorm:"not null;uniqueIndex:idx_daily_action_window" json:"action_type"`
	ActionDate     string `gorm:"type:date;not null;uniqueIndex:idx_daily_action_window" json:"action_date"` // YYYY-MM-DD, UTC

	Count int64 `gorm:"not null;default:0" json:"count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name stable for the raw upsert expression.
func (DailyActionCount) TableName() string {
	return "daily_action_counts"
}
