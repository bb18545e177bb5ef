package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"myscience-gamification/models"
)

// StreamUserBadgesSSE streams freshly earned badges for the authenticated
// user so the client can show the award toast without polling the REST
// endpoint. Cursor-based: only awards with earned_at after the connection's
// start point are emitted.
func (s *BadgeService) StreamUserBadgesSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	// fasthttp stream writer replaces Flush
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastEarnedAt time.Time

		// Initialize cursor at the newest existing award.
		var latest models.UserBadge
		if err := s.DB.
			Where("external_user_id = ?", userID).
			Order("earned_at DESC").
			First(&latest).Error; err == nil {
			lastEarnedAt = latest.EarnedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error for user %s: %v", userID, err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var fresh []UserBadgeView
				err := s.DB.Raw(`
					SELECT ub.id, bd.id AS badge_id, bd.code, bd.name, bd.message,
					       bd.tier, bd.icon_url, bd.points, ub.earned_at
					FROM user_badges ub
					INNER JOIN badge_definitions bd ON bd.id = ub.badge_id
					WHERE ub.external_user_id = ? AND ub.earned_at > ?
					ORDER BY ub.earned_at ASC
				`, userID, lastEarnedAt).Scan(&fresh).Error
				if err != nil {
					log.Printf("SSE query error for user %s: %v", userID, err)
					continue
				}

				if len(fresh) == 0 {
					continue
				}

				lastEarnedAt = fresh[len(fresh)-1].EarnedAt

				for _, v := range fresh {
					payload, _ := json.Marshal(v)
					fmt.Fprintf(w, "event: badge\ndata: %s\n\n", payload)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
