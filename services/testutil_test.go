package services

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"myscience-gamification/models"
)

// setupTestDB opens a private in-memory SQLite database per test, migrated
// with the full schema. TranslateError is on, same as production, so the
// duplicate-key path behaves identically.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	// One connection keeps the shared in-memory database alive for the test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.GamifiedUser{},
		&models.UserProgress{},
		&models.BadgeDefinition{},
		&models.UserBadge{},
		&models.DailyActionCount{},
		&models.LeaderboardEntry{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedBadges(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := NewBadgeService(db).SeedCatalog(); err != nil {
		t.Fatalf("failed to seed badge catalog: %v", err)
	}
}

func mustEnsureProgress(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()
	if _, err := NewProgressionService(db).EnsureProgressRecord(userID); err != nil {
		t.Fatalf("failed to ensure progress record: %v", err)
	}
}

func totalXP(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var prog models.UserProgress
	if err := db.Where("external_user_id = ?", userID).First(&prog).Error; err != nil {
		t.Fatalf("failed to read progress for %s: %v", userID, err)
	}
	return prog.TotalXP
}
