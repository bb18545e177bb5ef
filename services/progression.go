package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"myscience-gamification/models"
)

// ErrUserNotFound signals that no XP ledger row exists for the user.
// The route layer maps it to a 404.
var ErrUserNotFound = errors.New("user progress record not found")

// ErrNegativeXP rejects negative deltas; nothing upstream produces them and
// their semantics are undefined, so they fail loudly instead of guessing.
var ErrNegativeXP = errors.New("negative xp delta is not supported")

const utcDayLayout = "2006-01-02"

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// LevelUp describes a level boundary crossed within a single call. When
// several XP injections each cross a boundary (base XP, badge points, the
// level-30 badge), callers still receive one coherent descriptor spanning
// the whole movement.
type LevelUp struct {
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	Symbol   string `json:"symbol"`
	Label    string `json:"label"`
	Tagline  string `json:"tagline"`
}

// GamificationUpdate is the fully settled result of a recorded action or a
// badge check, reflecting state after every XP injection of the call.
type GamificationUpdate struct {
	NewBadges    []BadgeAward `json:"new_badges"`
	LevelUp      *LevelUp     `json:"level_up"`
	TotalXP      int64        `json:"total_xp"`
	CurrentLevel int          `json:"current_level"`
}

// UserProgressView is the read shape for the progress endpoint.
type UserProgressView struct {
	CurrentLevel int                  `json:"current_level"`
	TotalXP      int64                `json:"total_xp"`
	LevelInfo    models.LevelInfo     `json:"level_info"`
	Progress     models.LevelProgress `json:"progress"`
}

// EnsureProgressRecord creates the ledger row for a user if absent. Insert
// first: concurrent first-sight requests all attempt the insert, the unique
// index on external_user_id lets one win, and everyone reads the surviving
// row back. No check-then-insert window.
func (s *ProgressionService) EnsureProgressRecord(externalUserID string) (*models.UserProgress, error) {
	fresh := models.UserProgress{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		TotalXP:        0,
		Level:          0,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	var prog models.UserProgress
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
		return nil, err
	}
	return &prog, nil
}

// AddXP applies a non-negative XP delta to the user's ledger, keeping level
// consistent with total XP in the same write, and returns the pre-update
// level so callers can detect level-ups. The write is a compare-and-swap on
// total_xp retried until it lands, so concurrent grants for the same user
// cannot lose updates.
func (s *ProgressionService) AddXP(externalUserID string, xp int64) (int, error) {
	if xp < 0 {
		return 0, ErrNegativeXP
	}

	for {
		var prog models.UserProgress
		if err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrUserNotFound
			}
			return 0, err
		}

		oldLevel := prog.Level
		newTotal := prog.TotalXP + xp
		newLevel := models.LevelForXp(newTotal)

		updates := map[string]interface{}{
			"total_xp": newTotal,
			"level":    newLevel,
		}
		if newLevel > oldLevel {
			updates["last_level_up_at"] = time.Now()
		}

		res := s.DB.Model(&models.UserProgress{}).
			Where("external_user_id = ? AND total_xp = ?", externalUserID, prog.TotalXP).
			Updates(updates)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 1 {
			return oldLevel, nil
		}
		// Lost the swap to a concurrent grant — reread and try again.
	}
}

// RecordAction is the entry point for every gamified user action: enforce
// the per-day soft cap, award base XP, run the badge trigger, and report the
// settled outcome including any level-up.
func (s *ProgressionService) RecordAction(externalUserID string, action ActionType) (*GamificationUpdate, error) {
	def, ok := ActionDefinitions[action]
	if !ok {
		return nil, fmt.Errorf("unknown gamification action type %q", action)
	}

	// One stable window boundary per call (midnight UTC rollover).
	today := time.Now().UTC().Format(utcDayLayout)

	count, err := s.incrementDailyCount(externalUserID, action, today)
	if err != nil {
		return nil, err
	}
	if count > def.DailyCap {
		// Soft cap: the counter keeps tracking true volume, only the reward
		// is suppressed. Not an error — return unchanged progress.
		log.Printf("🛑 Daily cap hit: %s × %s (%d/%d today) — no reward", externalUserID, action, count, def.DailyCap)
		return s.settle(externalUserID, -1, []BadgeAward{})
	}

	oldLevel, err := s.AddXP(externalUserID, def.BaseXP)
	if err != nil {
		return nil, err
	}
	log.Printf("🎮 %s: %s +%d XP (%d/%d today)", ActionLabel(action), externalUserID, def.BaseXP, count, def.DailyCap)

	newBadges := []BadgeAward{}
	if def.BadgeTrigger != "" {
		award, err := NewBadgeService(s.DB).AwardByTrigger(externalUserID, def.BadgeTrigger)
		if err != nil {
			return nil, err
		}
		if award != nil {
			newBadges = append(newBadges, *award)
		}
	}

	return s.settle(externalUserID, oldLevel, newBadges)
}

// GrantXP applies a manual XP grant (admin/operator path) and reports the
// settled outcome like a recorded action would, so the caller still sees any
// level-up the grant caused. Bypasses daily caps and badge triggers except
// the level-30 settlement.
func (s *ProgressionService) GrantXP(externalUserID string, xp int64, reason string) (*GamificationUpdate, error) {
	oldLevel, err := s.AddXP(externalUserID, xp)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "manual grant"
	}
	log.Printf("🎮 XP granted: %s +%d (reason: %s)", externalUserID, xp, reason)
	return s.settle(externalUserID, oldLevel, []BadgeAward{})
}

// CheckAndAwardBadges attempts several triggers at once (e.g. profile
// completion checks several conditions) and returns one settled update.
func (s *ProgressionService) CheckAndAwardBadges(externalUserID string, triggers []models.BadgeTrigger) (*GamificationUpdate, error) {
	prog, err := s.getByUser(externalUserID)
	if err != nil {
		return nil, err
	}
	oldLevel := prog.Level

	badgeSvc := NewBadgeService(s.DB)
	newBadges := []BadgeAward{}
	for _, trigger := range triggers {
		award, err := badgeSvc.AwardByTrigger(externalUserID, trigger)
		if err != nil {
			return nil, err
		}
		if award != nil {
			newBadges = append(newBadges, *award)
		}
	}

	return s.settle(externalUserID, oldLevel, newBadges)
}

// settle re-reads the ledger after all awards of the call and folds every
// boundary crossing into a single level-up descriptor against baseLevel.
// Reaching level 30 earns the Immortal badge; since that award injects XP
// through the same general mechanism, the ledger is re-read once more and
// any further movement keeps the original baseline. baseLevel < 0 means the
// call granted nothing (cap exceeded) and no level-up can be reported.
func (s *ProgressionService) settle(externalUserID string, baseLevel int, newBadges []BadgeAward) (*GamificationUpdate, error) {
	prog, err := s.getByUser(externalUserID)
	if err != nil {
		return nil, err
	}

	if baseLevel >= 0 && prog.Level == models.MaxLevel {
		award, err := NewBadgeService(s.DB).AwardByTrigger(externalUserID, models.TriggerReachLevel30)
		if err != nil {
			return nil, err
		}
		if award != nil {
			newBadges = append(newBadges, *award)
			if prog, err = s.getByUser(externalUserID); err != nil {
				return nil, err
			}
		}
	}

	var levelUp *LevelUp
	if baseLevel >= 0 && prog.Level > baseLevel {
		info := models.LevelInfoFor(prog.Level)
		levelUp = &LevelUp{
			OldLevel: baseLevel,
			NewLevel: prog.Level,
			Symbol:   info.Symbol,
			Label:    info.Label,
			Tagline:  info.Tagline,
		}
		log.Printf("🎉 Level up: %s %d → %d (%s)", externalUserID, baseLevel, prog.Level, info.Label)
	}

	return &GamificationUpdate{
		NewBadges:    newBadges,
		LevelUp:      levelUp,
		TotalXP:      prog.TotalXP,
		CurrentLevel: prog.Level,
	}, nil
}

// incrementDailyCount bumps today's counter for (user, action) in one atomic
// upsert — INSERT ... ON CONFLICT DO UPDATE SET count = count + 1 — never a
// read-modify-write pair. RETURNING hands back the post-increment count from
// the same statement, so a concurrent increment cannot skew the cap decision.
func (s *ProgressionService) incrementDailyCount(externalUserID string, action ActionType, day string) (int64, error) {
	row := models.DailyActionCount{
		ExternalUserID: externalUserID,
		ActionType:     string(action),
		ActionDate:     day,
		Count:          1,
	}
	err := s.DB.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "external_user_id"},
				{Name: "action_type"},
				{Name: "action_date"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":      gorm.Expr("daily_action_counts.count + 1"),
				"updated_at": time.Now(),
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "count"}}},
	).Create(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Count, nil
}

// GetUserProgress returns the progress view for the client, creating the
// ledger row on first sight of a user.
func (s *ProgressionService) GetUserProgress(externalUserID string) (*UserProgressView, error) {
	prog, err := s.EnsureProgressRecord(externalUserID)
	if err != nil {
		return nil, err
	}

	progress := models.ProgressForXp(prog.TotalXP, prog.Level)
	if progress.Progress < 0 {
		progress.Progress = 0
	} else if progress.Progress > 1 {
		progress.Progress = 1
	}

	return &UserProgressView{
		CurrentLevel: prog.Level,
		TotalXP:      prog.TotalXP,
		LevelInfo:    models.LevelInfoFor(prog.Level),
		Progress:     progress,
	}, nil
}

// PruneDailyCounts deletes daily counters older than the retention window.
// Past days never influence cap decisions, so this is purely a size bound.
func (s *ProgressionService) PruneDailyCounts(olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(utcDayLayout)
	res := s.DB.Where("action_date < ?", cutoff).Delete(&models.DailyActionCount{})
	return res.RowsAffected, res.Error
}

func (s *ProgressionService) getByUser(externalUserID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &prog, nil
}
