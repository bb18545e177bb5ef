package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"myscience-gamification/models"
)

// ActionType identifies a gamified user action. The set is closed: handlers
// in other services call this one with these tags only, so an unknown tag is
// a caller bug, not user input.
type ActionType string

const (
	ActionSaveArticle     ActionType = "save_article"
	ActionLikePost        ActionType = "like_post"
	ActionCreatePost      ActionType = "create_post"
	ActionComment         ActionType = "comment"
	ActionFollowUser      ActionType = "follow_user"
	ActionJoinSpace       ActionType = "join_space"
	ActionCompleteProfile ActionType = "complete_profile"
	ActionDailyLogin      ActionType = "daily_login"
)

// ActionDefinition is the static reward config for one action type.
// BadgeTrigger is empty when the action carries no badge check.
type ActionDefinition struct {
	BaseXP       int64
	DailyCap     int64
	BadgeTrigger models.BadgeTrigger
}

// ActionDefinitions maps every ActionType to its reward config. Read-only
// reference data, tunable via config later.
var ActionDefinitions = map[ActionType]ActionDefinition{
	ActionSaveArticle:     {BaseXP: 10, DailyCap: 20, BadgeTrigger: models.TriggerFirstArticleSaved},
	ActionLikePost:        {BaseXP: 2, DailyCap: 50},
	ActionCreatePost:      {BaseXP: 15, DailyCap: 10, BadgeTrigger: models.TriggerFirstBonfirePost},
	ActionComment:         {BaseXP: 5, DailyCap: 30, BadgeTrigger: models.TriggerFirstComment},
	ActionFollowUser:      {BaseXP: 5, DailyCap: 25, BadgeTrigger: models.TriggerFollow5Users},
	ActionJoinSpace:       {BaseXP: 10, DailyCap: 5, BadgeTrigger: models.TriggerFirstSpaceJoined},
	ActionCompleteProfile: {BaseXP: 25, DailyCap: 1, BadgeTrigger: models.TriggerProfileComplete},
	ActionDailyLogin:      {BaseXP: 5, DailyCap: 1},
}

var actionTitleCaser = cases.Title(language.English)

// ActionLabel renders an action type as a human-readable label for logs and
// grant reasons, e.g. "save_article" → "Save Article".
func ActionLabel(action ActionType) string {
	return actionTitleCaser.String(strings.ReplaceAll(string(action), "_", " "))
}
