// handlers/economy_routes.go
package handlers

import (
	"errors"
	"strconv"
	"time"

	"jungle-squad-academy/middleware"
	"jungle-squad-academy/models"
	"jungle-squad-academy/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupEconomyRoutes(app *fiber.App, xpService *services.XPService, coinService *services.CoinService) {
	// 🔐 Secured routes — require user context from the gateway
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/economy", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		prog, err := xpService.EnsureRecord(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress record",
				"cause": err.Error(),
			})
		}
		wallet, err := coinService.EnsureWallet(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load coin wallet",
				"cause": err.Error(),
			})
		}

		var tierName string
		var sub models.SubscriptionMirror
		if err := xpService.DB.
			Where("external_user_id = ? AND is_active = ?", userID, true).
			First(&sub).Error; err == nil {
			tierName = sub.TierName
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load subscription tier",
				"cause": err.Error(),
			})
		}

		now := time.Now().UTC()
		return c.JSON(fiber.Map{
			"id":                    prog.ID,
			"total_xp":              prog.TotalXP,
			"today_xp":              prog.TodayXP,
			"level":                 services.LevelForXP(prog.TotalXP),
			"level_progress":        services.LevelProgress(prog.TotalXP),
			"streak_days":           prog.StreakDays,
			"streak_bonus":          services.StreakBonus(prog.StreakDays),
			"streak_time_remaining": services.StreakTimeRemaining(prog, now).Seconds(),
			"tier_name":             tierName,
			"tier_multiplier":       services.TierMultiplier(tierName),
			"coin_balance":          wallet.Balance,
			"last_activity_at":      prog.LastActivityAt,
		})
	})

	securedGroup.Get("/user/economy/xp/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		history, err := xpService.GetHistory(userID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get XP history",
				"cause": err.Error(),
			})
		}
		return c.JSON(history)
	})

	securedGroup.Get("/user/economy/coins/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		history, err := coinService.GetHistory(userID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get coin history",
				"cause": err.Error(),
			})
		}
		return c.JSON(history)
	})

	securedGroup.Post("/user/economy/coins/spend", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		type Req struct {
			Amount      int64  `json:"amount"`
			Description string `json:"description"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		newBalance, err := coinService.Spend(userID, req.Amount, req.Description)
		switch {
		case errors.Is(err, services.ErrInvalidCoinAmount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrWalletNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrInsufficientBalance):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "coin spend failed",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message": "coins spent",
			"balance": newBalance,
		})
	})

	securedGroup.Post("/user/economy/coins/free", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		newBalance, err := coinService.EarnFreeCoin(userID, time.Now().UTC())
		switch {
		case errors.Is(err, services.ErrFreeCoinClaimed):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "free coin claim failed",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message": "free coin claimed",
			"balance": newBalance,
		})
	})

	// Admin endpoints
	adminGroup := app.Group("/admin", middleware.AdminAuthMiddleware())

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID string `json:"user_id"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
		}

		source := "admin_grant"
		if req.Reason != "" {
			source = "admin_grant:" + req.Reason
		}
		prog, xpTx, err := xpService.AwardXP(req.UserID, req.XP, source)
		switch {
		case errors.Is(err, services.ErrInvalidXPAmount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "XP award failed",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message":      "XP granted successfully",
			"user_id":      req.UserID,
			"base_amount":  xpTx.BaseAmount,
			"final_amount": xpTx.FinalAmount,
			"multiplier":   xpTx.Multiplier,
			"total_xp":     prog.TotalXP,
			"level":        services.LevelForXP(prog.TotalXP),
		})
	})
}
