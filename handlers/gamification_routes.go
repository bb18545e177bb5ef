// handlers/gamification_routes.go
package handlers

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"myscience-gamification/middleware"
	"myscience-gamification/models"
	"myscience-gamification/services"
	"myscience-gamification/utils"
	"myscience-gamification/workers"
)

// SetupGamificationRoutes wires the gamification surface. The gateway
// forwards paths like /api/gamification/user/progress -> /user/progress and
// injects the user context headers; the SSE route authenticates through the
// auth service instead because EventSource cannot send headers.
func SetupGamificationRoutes(app *fiber.App, progressionService *services.ProgressionService, badgeService *services.BadgeService, authClient *services.AuthServiceClient) {
	// Public within the gateway: the catalog and leaderboard need no user.
	app.Get("/badges", func(c *fiber.Ctx) error {
		defs, err := badgeService.GetAllBadges()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch badge catalog",
				"cause": err.Error(),
			})
		}
		return c.JSON(defs)
	})

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "25"))
		entries, err := workers.GetLeaderboard(progressionService.DB, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(entries)
	})

	app.Get("/user/stream", middleware.SSEAuthMiddleware(authClient), badgeService.StreamUserBadgesSSE)

	// 🔐 Secured routes — require user context from the gateway.
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		view, err := progressionService.GetUserProgress(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(view)
	})

	securedGroup.Get("/user/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		badges, err := badgeService.GetUserBadges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch badges",
				"cause": err.Error(),
			})
		}
		return c.JSON(badges)
	})

	securedGroup.Post("/user/actions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			ActionType string `json:"action_type" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		action := services.ActionType(strings.TrimSpace(req.ActionType))
		if _, ok := services.ActionDefinitions[action]; !ok {
			// Action types are caller-controlled, never user input — an
			// unknown one is a bug in the calling service.
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown action type",
			})
		}

		if _, err := progressionService.EnsureProgressRecord(userID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create progress record",
				"cause": err.Error(),
			})
		}

		update, err := progressionService.RecordAction(userID, action)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to record action",
				"cause": err.Error(),
			})
		}
		return c.JSON(update)
	})

	securedGroup.Post("/user/badges/check", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Triggers []string `json:"triggers" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if len(req.Triggers) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "triggers required"})
		}

		triggers := make([]models.BadgeTrigger, 0, len(req.Triggers))
		for _, t := range req.Triggers {
			triggers = append(triggers, models.BadgeTrigger(strings.TrimSpace(t)))
		}

		if _, err := progressionService.EnsureProgressRecord(userID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create progress record",
				"cause": err.Error(),
			})
		}

		update, err := progressionService.CheckAndAwardBadges(userID, triggers)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "badge check failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(update)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id" validate:"required,uuid"`
			XP     int64  `json:"xp" validate:"required,min=1"`
			Reason string `json:"reason" validate:"max=255"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.XP <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "xp must be positive"})
		}

		update, err := progressionService.GrantXP(req.UserID, req.XP, req.Reason)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "XP grant failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(update)
	})

	adminGroup.Post("/badges/seed", func(c *fiber.Ctx) error {
		if err := badgeService.SeedCatalog(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "badge seeding failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "badge catalog reconciled"})
	})

	adminGroup.Post("/badges/:code/icon", func(c *fiber.Ctx) error {
		code := c.Params("code")

		fileHeader, err := c.FormFile("icon")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "icon file required"})
		}

		key := "badges/" + code + filepath.Ext(fileHeader.Filename)
		iconURL, err := utils.UploadBadgeIcon(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "icon upload failed",
				"cause": err.Error(),
			})
		}

		def, err := badgeService.SetBadgeIcon(code, iconURL)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "badge not found"})
		}
		return c.JSON(def)
	})

	adminGroup.Post("/daily-counts/prune", func(c *fiber.Ctx) error {
		var req struct {
			OlderThanDays int `json:"older_than_days"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.OlderThanDays < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "older_than_days must be positive"})
		}

		deleted, err := progressionService.PruneDailyCounts(req.OlderThanDays)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "prune failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "OK", "deleted": deleted})
	})
}
