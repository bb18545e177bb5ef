package models

import "time"

// GamifiedUser is a local, read-mostly mirror of the profile service's user
// record, maintained by the profile sync worker. The gamification core only
// needs it for display fields and for the follow-count badge predicate;
// the profile service stays the source of truth.
type GamifiedUser struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	Username    string `gorm:"index;not null" json:"username"`
	DisplayName string `json:"display_name"`

	FollowingCount int64 `gorm:"not null;default:0" json:"following_count"`
	FollowerCount  int64 `gorm:"not null;default:0" json:"follower_count"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
