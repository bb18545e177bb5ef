package workers

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"myscience-gamification/models"
)

// leaderboardSize caps how many ranked rows the cache holds.
const leaderboardSize = 100

// rankedRow is the scan target for the ranking query.
type rankedRow struct {
	ExternalUserID string
	Username       string
	DisplayName    string
	TotalXP        int64
	Level          int
}

// PollLeaderboard periodically rebuilds the cached XP leaderboard from
// user_progress so reads never scan and sort the ledger. One upsert per user
// keeps the table at one row per ranked user.
func PollLeaderboard(ctx context.Context, db *gorm.DB, refreshInterval time.Duration) {
	log.Println("🔁 Starting leaderboard refresh worker…")

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	// First refresh immediately so the endpoint is never empty after boot.
	refreshLeaderboard(db)

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Leaderboard refresh worker stopped")
			return
		case <-ticker.C:
			refreshLeaderboard(db)
		}
	}
}

func refreshLeaderboard(db *gorm.DB) {
	var rows []rankedRow
	err := db.Raw(`
		SELECT up.external_user_id, gu.username, gu.display_name, up.total_xp, up.level
		FROM user_progress up
		LEFT JOIN gamified_users gu ON gu.external_user_id = up.external_user_id
		WHERE up.deleted_at IS NULL
		ORDER BY up.total_xp DESC, up.external_user_id ASC
		LIMIT ?
	`, leaderboardSize).Scan(&rows).Error
	if err != nil {
		log.Printf("❌ Leaderboard query failed: %v", err)
		return
	}

	now := time.Now().UTC()
	for i, row := range rows {
		entry := models.LeaderboardEntry{
			ExternalUserID: row.ExternalUserID,
			Username:       row.Username,
			DisplayName:    row.DisplayName,
			TotalXP:        row.TotalXP,
			Level:          row.Level,
			Rank:           i + 1,
			RefreshedAt:    now,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "display_name", "total_xp", "level", "rank", "refreshed_at",
			}),
		}).Create(&entry).Error; err != nil {
			log.Printf("❌ Failed to upsert leaderboard entry for %s: %v", row.ExternalUserID, err)
		}
	}

	// Drop users that fell out of the ranked window.
	if err := db.Where("refreshed_at < ?", now).Delete(&models.LeaderboardEntry{}).Error; err != nil {
		log.Printf("⚠️ Leaderboard cleanup failed: %v", err)
	}
}

// GetLeaderboard reads the cached ranking, limited to at most limit entries.
func GetLeaderboard(db *gorm.DB, limit int) ([]models.LeaderboardEntry, error) {
	if limit < 1 || limit > leaderboardSize {
		limit = leaderboardSize
	}
	entries := []models.LeaderboardEntry{}
	err := db.Order("rank ASC").Limit(limit).Find(&entries).Error
	return entries, err
}
