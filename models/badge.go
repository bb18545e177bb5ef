package models

import (
	"time"
)

// BadgeTier is the rarity tier of a badge.
type BadgeTier string

const (
	BadgeTierCommon    BadgeTier = "common"
	BadgeTierRare      BadgeTier = "rare"
	BadgeTierEpic      BadgeTier = "epic"
	BadgeTierLegendary BadgeTier = "legendary"
)

// BadgeTrigger is the stable tag identifying the condition under which a
// badge is awarded. Callers always address badges by trigger, never by name
// or database id.
type BadgeTrigger string

const (
	TriggerFirstArticleSaved BadgeTrigger = "first_article_saved"
	TriggerFirstBonfirePost  BadgeTrigger = "first_bonfire_post"
	TriggerFirstComment      BadgeTrigger = "first_comment"
	TriggerFollow5Users      BadgeTrigger = "follow_5_users"
	TriggerFirstSpaceJoined  BadgeTrigger = "first_space_joined"
	TriggerProfileComplete   BadgeTrigger = "profile_complete"
	TriggerReachLevel30      BadgeTrigger = "reach_level_30"
)

// BadgeDefinition is one catalog entry. The persisted table is a cache of
// BadgeCatalog below: the seeder inserts missing rows by name and overwrites
// trigger/points/message/tier on existing ones. IconURL is operator-managed
// (uploaded to R2 via the admin endpoint) and never touched by the seeder.
type BadgeDefinition struct {
	ID      string       `gorm:"primaryKey;type:uuid" json:"id"`
	Code    string       `gorm:"uniqueIndex;not null" json:"code"`
	Name    string       `gorm:"uniqueIndex;not null" json:"name"`
	Trigger BadgeTrigger `gorm:"uniqueIndex;not null" json:"trigger"`
	Points  int64        `gorm:"not null;default:0" json:"points"`
	Message string       `gorm:"type:text" json:"message"`
	Tier    BadgeTier    `gorm:"type:varchar(16);default:'common'" json:"tier"`
	IconURL string       `gorm:"type:text" json:"icon_url"`

	Timestamps
}

// UserBadge is an awarded instance. The composite unique index on
// (external_user_id, badge_id) is the whole idempotency mechanism: a losing
// concurrent insert fails with a duplicate-key error, which the award engine
// treats as "already awarded". Rows are never mutated or deleted.
type UserBadge struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"not null;uniqueIndex:idx_user_badge_once" json:"external_user_id"`
	BadgeID        string    `gorm:"not null;uniqueIndex:idx_user_badge_once" json:"badge_id"`
	EarnedAt       time.Time `gorm:"autoCreateTime" json:"earned_at"`
}

// BadgeCatalog is the canonical, in-code badge list. The database mirrors it,
// never the reverse.
var BadgeCatalog = []BadgeDefinition{
	{
		Name:    "First Find",
		Trigger: TriggerFirstArticleSaved,
		Points:  10,
		Message: "You saved your first article. Your library has begun!",
		Tier:    BadgeTierCommon,
	},
	{
		Name:    "Fire Starter",
		Trigger: TriggerFirstBonfirePost,
		Points:  15,
		Message: "Your first Bonfire post is out there. Let the discussion begin!",
		Tier:    BadgeTierCommon,
	},
	{
		Name:    "Conversationalist",
		Trigger: TriggerFirstComment,
		Points:  10,
		Message: "You left your first comment. Science is a conversation!",
		Tier:    BadgeTierCommon,
	},
	{
		Name:    "Well Connected",
		Trigger: TriggerFollow5Users, // gated: following count must be >= 5
		Points:  20,
		Message: "You follow 5 researchers. Your feed just got smarter!",
		Tier:    BadgeTierRare,
	},
	{
		Name:    "Space Explorer",
		Trigger: TriggerFirstSpaceJoined,
		Points:  15,
		Message: "You joined your first discussion space. Welcome inside!",
		Tier:    BadgeTierCommon,
	},
	{
		Name:    "Open Book",
		Trigger: TriggerProfileComplete,
		Points:  25,
		Message: "Profile complete. Now the community knows who's asking!",
		Tier:    BadgeTierRare,
	},
	{
		Name:    "Immortal",
		Trigger: TriggerReachLevel30,
		Points:  0, // the award mechanism is general; this one just carries no bonus
		Message: "Level 30. Your curiosity is now permanent record.",
		Tier:    BadgeTierLegendary,
	},
}
