// handlers/quote_routes.go
package handlers

import (
	"errors"
	"strconv"
	"time"

	"jungle-squad-academy/middleware"
	"jungle-squad-academy/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQuoteRoutes(app *fiber.App, rewardService *services.RewardService) {
	// 🔓 Public routes — the wall is readable without user context
	app.Get("/quotes", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		quotes, err := rewardService.GetQuoteWall(c.Query("theme"), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch quote wall",
				"cause": err.Error(),
			})
		}
		return c.JSON(quotes)
	})

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/user/quotes", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		type Req struct {
			Theme string `json:"theme"`
			Text  string `json:"text"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		quote, err := rewardService.SubmitQuote(userID, req.Theme, req.Text)
		if errors.Is(err, services.ErrQuoteTextLength) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to submit quote",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(quote)
	})

	secured.Post("/user/quotes/:id/share", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		type Req struct {
			Platform string `json:"platform"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		share, rewarded, err := rewardService.ShareQuote(userID, c.Params("id"), req.Platform, time.Now().UTC())
		switch {
		case errors.Is(err, services.ErrQuoteNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "failed to record share",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"share":    share,
			"rewarded": rewarded,
		})
	})

	secured.Post("/user/quotes/:id/vote", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		vote, err := rewardService.VoteQuote(userID, c.Params("id"), time.Now().UTC())
		switch {
		case errors.Is(err, services.ErrQuoteNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrSelfVote),
			errors.Is(err, services.ErrAlreadyVoted),
			errors.Is(err, services.ErrDailyVoteLimit):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to record vote",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(vote)
	})

	secured.Get("/user/achievements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		catalog, owned, err := rewardService.ListAchievements(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list achievements",
				"cause": err.Error(),
			})
		}

		response := make([]fiber.Map, 0, len(catalog))
		for _, a := range catalog {
			response = append(response, fiber.Map{
				"code":        a.Code,
				"name":        a.Name,
				"description": a.Description,
				"rarity":      a.Rarity,
				"xp_reward":   a.XPReward,
				"unlocked":    owned[a.ID],
			})
		}
		return c.JSON(response)
	})

	secured.Post("/user/achievements/:code/unlock", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		achievement, err := rewardService.UnlockAchievement(userID, c.Params("code"), time.Now().UTC())
		switch {
		case errors.Is(err, services.ErrAchievementNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrAlreadyUnlocked):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to unlock achievement",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(achievement)
	})

	// 🔒 Admin moderation routes
	admin := app.Group("/admin", middleware.AdminAuthMiddleware())

	admin.Post("/quotes/:id/approve", func(c *fiber.Ctx) error {
		type Req struct {
			Featured bool `json:"featured"`
		}
		var req Req
		// Empty body means a plain (non-featured) approval
		_ = c.BodyParser(&req)

		quote, err := rewardService.ApproveQuote(c.Params("id"), req.Featured, time.Now().UTC())
		switch {
		case errors.Is(err, services.ErrQuoteNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrQuoteAlreadyJudged):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to approve quote",
				"cause": err.Error(),
			})
		}
		return c.JSON(quote)
	})

	admin.Post("/quotes/:id/reject", func(c *fiber.Ctx) error {
		quote, err := rewardService.RejectQuote(c.Params("id"))
		switch {
		case errors.Is(err, services.ErrQuoteNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrQuoteAlreadyJudged):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to reject quote",
				"cause": err.Error(),
			})
		}
		return c.JSON(quote)
	})
}
