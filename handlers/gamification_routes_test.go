package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"myscience-gamification/models"
	"myscience-gamification/services"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
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

	badgeService := services.NewBadgeService(db)
	if err := badgeService.SeedCatalog(); err != nil {
		t.Fatalf("failed to seed badge catalog: %v", err)
	}

	app := fiber.New()
	SetupGamificationRoutes(app, services.NewProgressionService(db), badgeService,
		services.NewAuthServiceClient("http://auth.invalid", "test-token"))
	return app, db
}

func jsonRequest(method, target, userID string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return req
}

func TestGetBadgesPublic(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/badges", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var defs []models.BadgeDefinition
	if err := json.NewDecoder(resp.Body).Decode(&defs); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(defs) != len(models.BadgeCatalog) {
		t.Errorf("got %d badges, want %d", len(defs), len(models.BadgeCatalog))
	}
}

func TestSecuredRoutesRequireUserContext(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/user/actions", "", map[string]string{"action_type": "save_article"}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status without X-User-ID = %d, want 401", resp.StatusCode)
	}
}

func TestPostUserActionFlow(t *testing.T) {
	app, _ := setupTestApp(t)
	userID := uuid.NewString()

	resp, err := app.Test(jsonRequest("POST", "/user/actions", userID, map[string]string{"action_type": "save_article"}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var update services.GamificationUpdate
	if err := json.NewDecoder(resp.Body).Decode(&update); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if update.TotalXP != 20 { // 10 base + 10 First Find points
		t.Errorf("TotalXP = %d, want 20", update.TotalXP)
	}
	if len(update.NewBadges) != 1 || update.NewBadges[0].Name != "First Find" {
		t.Errorf("unexpected badges: %+v", update.NewBadges)
	}
}

func TestPostUserActionUnknownType(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/user/actions", uuid.NewString(), map[string]string{"action_type": "win_nobel"}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetUserProgressRoute(t *testing.T) {
	app, _ := setupTestApp(t)
	userID := uuid.NewString()

	resp, err := app.Test(jsonRequest("GET", "/user/progress", userID, nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var view services.UserProgressView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if view.CurrentLevel != 0 || view.LevelInfo.Label != "Curious Mind" {
		t.Errorf("unexpected progress view: %+v", view)
	}
}

func TestAdminGrantXP(t *testing.T) {
	app, db := setupTestApp(t)
	userID := uuid.NewString()
	if _, err := services.NewProgressionService(db).EnsureProgressRecord(userID); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	resp, err := app.Test(jsonRequest("POST", "/s/admin/xp/grant", uuid.NewString(), map[string]interface{}{
		"user_id": userID,
		"xp":      150,
		"reason":  "migration backfill",
	}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var update services.GamificationUpdate
	if err := json.NewDecoder(resp.Body).Decode(&update); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if update.TotalXP != 150 || update.CurrentLevel != 1 {
		t.Errorf("grant settled at %d XP level %d, want 150 XP level 1", update.TotalXP, update.CurrentLevel)
	}
	if update.LevelUp == nil || update.LevelUp.NewLevel != 1 {
		t.Errorf("missing level-up: %+v", update.LevelUp)
	}
}

func TestAdminGrantXPUnknownUser(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/s/admin/xp/grant", uuid.NewString(), map[string]interface{}{
		"user_id": "ghost",
		"xp":      10,
	}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
