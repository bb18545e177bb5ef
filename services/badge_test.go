package services

import (
	"testing"

	"github.com/google/uuid"

	"myscience-gamification/models"
)

func TestSeedCatalogIdempotent(t *testing.T) {
	db := setupTestDB(t)
	seedBadges(t, db)
	seedBadges(t, db)

	var count int64
	if err := db.Model(&models.BadgeDefinition{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != int64(len(models.BadgeCatalog)) {
		t.Fatalf("badge_definitions has %d rows, want %d", count, len(models.BadgeCatalog))
	}

	var def models.BadgeDefinition
	if err := db.Where("trigger = ?", models.TriggerFirstArticleSaved).First(&def).Error; err != nil {
		t.Fatalf("seeded badge missing: %v", err)
	}
	if def.Code != "first-find" || def.Name != "First Find" || def.Points != 10 {
		t.Errorf("unexpected seeded definition: %+v", def)
	}
}

func TestSeedCatalogReconcilesDriftKeepsIcon(t *testing.T) {
	db := setupTestDB(t)
	seedBadges(t, db)

	svc := NewBadgeService(db)
	if _, err := svc.SetBadgeIcon("first-find", "https://cdn.example.com/badges/first-find.png"); err != nil {
		t.Fatalf("SetBadgeIcon failed: %v", err)
	}
	// Drift the mutable fields behind the seeder's back.
	if err := db.Model(&models.BadgeDefinition{}).
		Where("code = ?", "first-find").
		Updates(map[string]interface{}{"points": 999, "tier": "legendary"}).Error; err != nil {
		t.Fatalf("drift update failed: %v", err)
	}

	seedBadges(t, db)

	var def models.BadgeDefinition
	if err := db.Where("code = ?", "first-find").First(&def).Error; err != nil {
		t.Fatalf("badge missing after reseed: %v", err)
	}
	if def.Points != 10 || def.Tier != models.BadgeTierCommon {
		t.Errorf("reseed did not restore canonical fields: %+v", def)
	}
	if def.IconURL != "https://cdn.example.com/badges/first-find.png" {
		t.Errorf("reseed clobbered operator-managed icon: %q", def.IconURL)
	}
}

func TestAwardByTriggerUnknownTriggerIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	seedBadges(t, db)

	award, err := NewBadgeService(db).AwardByTrigger("user-1", models.BadgeTrigger("no_such_trigger"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if award != nil {
		t.Fatalf("expected no award, got %+v", award)
	}
}

func TestAwardByTriggerAwardsOnce(t *testing.T) {
	db := setupTestDB(t)
	seedBadges(t, db)
	userID := uuid.NewString()
	mustEnsureProgress(t, db, userID)

	svc := NewBadgeService(db)

	first, err := svc.AwardByTrigger(userID, models.TriggerFirstArticleSaved)
	if err != nil {
		t.Fatalf("first award failed: %v", err)
	}
	if first == nil || first.Name != "First Find" || first.Points != 10 {
		t.Fatalf("unexpected first award: %+v", first)
	}

	second, err := svc.AwardByTrigger(userID, models.TriggerFirstArticleSaved)
	if err != nil {
		t.Fatalf("second award errored: %v", err)
	}
	if second != nil {
		t.Fatalf("badge awarded twice: %+v", second)
	}

	var rows int64
	if err := db.Model(&models.UserBadge{}).Where("external_user_id = ?", userID).Count(&rows).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if rows != 1 {
		t.Errorf("user_badges has %d rows, want 1", rows)
	}
	if xp := totalXP(t, db, userID); xp != 10 {
		t.Errorf("badge points applied %d times, want once (xp=%d)", xp/10, xp)
	}
}

// Simulates losing the insert race: the badge row already exists when the
// award runs, so the unique index rejects the insert and no points land.
func TestAwardByTriggerLosesInsertRace(t *testing.T) {
	db := setupTestDB(t)
	seedBadges(t, db)
	userID := uuid.NewString()
	mustEnsureProgress(t, db, userID)

	var def models.BadgeDefinition
	if err := db.Where("trigger = ?", models.TriggerFirstComment).First(&def).Error; err != nil {
		t.Fatalf("badge lookup failed: %v", err)
	}
	pre := models.UserBadge{ID: uuid.NewString(), ExternalUserID: userID, BadgeID: def.ID}
	if err := db.Create(&pre).Error; err != nil {
		t.Fatalf("pre-insert failed: %v", err)
	}

	award, err := NewBadgeService(db).AwardByTrigger(userID, models.TriggerFirstComment)
	if err != nil {
		t.Fatalf("award errored on duplicate: %v", err)
	}
	if award != nil {
		t.Fatalf("duplicate insert reported as fresh award: %+v", award)
	}
	if xp := totalXP(t, db, userID); xp != 0 {
		t.Errorf("losing insert still granted %d XP", xp)
	}
}

func TestFollowBadgeGatedOnFollowingCount(t *testing.T) {
	db := setupTestDB(t)
	seedBadges(t, db)
	userID := uuid.NewString()
	mustEnsureProgress(t, db, userID)

	svc := NewBadgeService(db)

	// No mirrored profile yet: counts as following nobody.
	award, err := svc.AwardByTrigger(userID, models.TriggerFollow5Users)
	if err != nil {
		t.Fatalf("award errored: %v", err)
	}
	if award != nil {
		t.Fatalf("awarded with no mirrored profile: %+v", award)
	}

	mirror := models.GamifiedUser{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		Username:       "ada",
		DisplayName:    "Ada",
		FollowingCount: 4,
	}
	if err := db.Create(&mirror).Error; err != nil {
		t.Fatalf("mirror insert failed: %v", err)
	}

	if award, err = svc.AwardByTrigger(userID, models.TriggerFollow5Users); err != nil {
		t.Fatalf("award errored: %v", err)
	}
	if award != nil {
		t.Fatalf("awarded below the follow threshold: %+v", award)
	}

	if err := db.Model(&mirror).Update("following_count", 5).Error; err != nil {
		t.Fatalf("mirror update failed: %v", err)
	}
	if award, err = svc.AwardByTrigger(userID, models.TriggerFollow5Users); err != nil {
		t.Fatalf("award errored: %v", err)
	}
	if award == nil || award.Name != "Well Connected" || award.Points != 20 {
		t.Fatalf("unexpected award at threshold: %+v", award)
	}
	if xp := totalXP(t, db, userID); xp != 20 {
		t.Errorf("total XP = %d, want 20", xp)
	}
}

func TestGetUserBadgesJoinsDefinitions(t *testing.T) {
	db := setupTestDB(t)
	seedBadges(t, db)
	userID := uuid.NewString()
	mustEnsureProgress(t, db, userID)

	svc := NewBadgeService(db)
	for _, trigger := range []models.BadgeTrigger{models.TriggerFirstArticleSaved, models.TriggerFirstSpaceJoined} {
		if _, err := svc.AwardByTrigger(userID, trigger); err != nil {
			t.Fatalf("award %s failed: %v", trigger, err)
		}
	}

	views, err := svc.GetUserBadges(userID)
	if err != nil {
		t.Fatalf("GetUserBadges failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d badges, want 2", len(views))
	}
	for _, v := range views {
		if v.Name == "" || v.Code == "" || v.BadgeID == "" {
			t.Errorf("definition fields missing in view: %+v", v)
		}
	}
}

func TestGetAllBadges(t *testing.T) {
	db := setupTestDB(t)
	seedBadges(t, db)

	defs, err := NewBadgeService(db).GetAllBadges()
	if err != nil {
		t.Fatalf("GetAllBadges failed: %v", err)
	}
	if len(defs) != len(models.BadgeCatalog) {
		t.Errorf("got %d badges, want %d", len(defs), len(models.BadgeCatalog))
	}
}
