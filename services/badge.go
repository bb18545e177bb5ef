package services

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"myscience-gamification/models"
)

// followBadgeMinimum is the following-count gate for the follow_5_users trigger.
const followBadgeMinimum = 5

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// BadgeAward is what a successful first-time award returns to callers.
type BadgeAward struct {
	BadgeID string           `json:"badge_id"`
	Code    string           `json:"code"`
	Name    string           `json:"name"`
	Message string           `json:"message"`
	Points  int64            `json:"points"`
	Tier    models.BadgeTier `json:"tier"`
}

// UserBadgeView is one earned badge joined with its definition.
type UserBadgeView struct {
	ID       string           `json:"id"`
	BadgeID  string           `json:"badge_id"`
	Code     string           `json:"code"`
	Name     string           `json:"name"`
	Message  string           `json:"message"`
	Tier     models.BadgeTier `json:"tier"`
	IconURL  string           `json:"icon_url"`
	Points   int64            `json:"points"`
	EarnedAt time.Time        `json:"earned_at"`
}

// SeedCatalog reconciles the persisted badge table with the canonical
// in-code catalog: insert if missing by name, otherwise overwrite the mutable
// fields. The in-code list is authoritative; the table is a cache of it,
// never the reverse. IconURL is left alone (operator-managed). Runs once at
// startup before the server accepts traffic, and on demand via the admin
// reseed endpoint.
func (s *BadgeService) SeedCatalog() error {
	for _, canonical := range models.BadgeCatalog {
		code := slug.Make(canonical.Name)

		var existing models.BadgeDefinition
		err := s.DB.Where("name = ?", canonical.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row := canonical
			row.ID = uuid.NewString()
			row.Code = code
			if err := s.DB.Create(&row).Error; err != nil {
				return err
			}
			log.Printf("🎖️ Badge seeded: %s (%s)", row.Name, row.Trigger)
			continue
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"code":    code,
			"trigger": canonical.Trigger,
			"points":  canonical.Points,
			"message": canonical.Message,
			"tier":    canonical.Tier,
		}
		if err := s.DB.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
	}
	return nil
}

// AwardByTrigger grants the badge tied to trigger to the user at most once
// and applies its points to the XP ledger. Returns (nil, nil) when nothing
// was awarded: unknown trigger (a config gap, logged), unmet eligibility, or
// badge already held. The dedupe relies entirely on the unique index on
// (external_user_id, badge_id) — no check-then-insert, so concurrent
// duplicate requests race safely: one insert wins, the rest see a
// duplicate-key error and report "not awarded".
func (s *BadgeService) AwardByTrigger(externalUserID string, trigger models.BadgeTrigger) (*BadgeAward, error) {
	var def models.BadgeDefinition
	if err := s.DB.Where("trigger = ?", trigger).First(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("⚠️ No badge definition for trigger %q — skipping award", trigger)
			return nil, nil
		}
		return nil, err
	}

	if trigger == models.TriggerFollow5Users {
		following, err := s.followingCount(externalUserID)
		if err != nil {
			return nil, err
		}
		if following < followBadgeMinimum {
			return nil, nil
		}
	}

	award := models.UserBadge{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		BadgeID:        def.ID,
	}
	if err := s.DB.Create(&award).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Already holds this badge — the steady-state outcome, not an error.
			return nil, nil
		}
		return nil, err
	}

	if _, err := NewProgressionService(s.DB).AddXP(externalUserID, def.Points); err != nil {
		return nil, err
	}

	log.Printf("🎖️ Badge awarded: %s → %s (+%d XP)", def.Name, externalUserID, def.Points)
	return &BadgeAward{
		BadgeID: def.ID,
		Code:    def.Code,
		Name:    def.Name,
		Message: def.Message,
		Points:  def.Points,
		Tier:    def.Tier,
	}, nil
}

// followingCount reads the mirrored follow stats kept by the profile sync
// worker. A user we have not mirrored yet counts as following nobody.
func (s *BadgeService) followingCount(externalUserID string) (int64, error) {
	var user models.GamifiedUser
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return user.FollowingCount, nil
}

// GetAllBadges returns the full persisted catalog.
func (s *BadgeService) GetAllBadges() ([]models.BadgeDefinition, error) {
	var defs []models.BadgeDefinition
	err := s.DB.Order("tier, name").Find(&defs).Error
	return defs, err
}

// GetUserBadges returns every badge the user has earned, joined with the
// definition fields the client renders.
func (s *BadgeService) GetUserBadges(externalUserID string) ([]UserBadgeView, error) {
	views := []UserBadgeView{}
	err := s.DB.Raw(`
		SELECT ub.id, bd.id AS badge_id, bd.code, bd.name, bd.message,
		       bd.tier, bd.icon_url, bd.points, ub.earned_at
		FROM user_badges ub
		INNER JOIN badge_definitions bd ON bd.id = ub.badge_id
		WHERE ub.external_user_id = ?
		ORDER BY ub.earned_at DESC
	`, externalUserID).Scan(&views).Error
	return views, err
}

// SetBadgeIcon stores the uploaded icon URL on a badge definition. The
// seeder never overwrites this field.
func (s *BadgeService) SetBadgeIcon(code, iconURL string) (*models.BadgeDefinition, error) {
	var def models.BadgeDefinition
	if err := s.DB.Where("code = ?", code).First(&def).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&def).Update("icon_url", iconURL).Error; err != nil {
		return nil, err
	}
	def.IconURL = iconURL
	return &def, nil
}
