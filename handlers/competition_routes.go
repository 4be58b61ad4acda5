// handlers/competition_routes.go
package handlers

import (
	"errors"
	"strconv"
	"time"

	"jungle-squad-academy/middleware"
	"jungle-squad-academy/models"
	"jungle-squad-academy/services"
	"jungle-squad-academy/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
)

func SetupCompetitionRoutes(app *fiber.App, competitionService *services.CompetitionService) {
	// 🔓 Public routes — listing and leaderboards need no user context
	app.Get("/competitions", func(c *fiber.Ctx) error {
		comps, err := competitionService.ListCompetitions(c.Query("status"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list competitions",
				"cause": err.Error(),
			})
		}
		return c.JSON(comps)
	})

	app.Get("/competitions/:id", func(c *fiber.Ctx) error {
		comp, err := competitionService.GetCompetition(c.Params("id"))
		if errors.Is(err, services.ErrCompetitionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch competition",
				"cause": err.Error(),
			})
		}
		return c.JSON(comp)
	})

	app.Get("/competitions/:id/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		board, err := competitionService.GetLeaderboard(c.Params("id"), limit)
		if errors.Is(err, services.ErrCompetitionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(board)
	})

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/user/competitions/:id/opt-in", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		participant, err := competitionService.OptIn(userID, c.Params("id"), time.Now().UTC())
		switch {
		case errors.Is(err, services.ErrCompetitionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrCompetitionNotActive):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "opt-in failed",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(participant)
	})

	secured.Post("/user/competitions/:id/score", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		type Req struct {
			XPDelta     int64  `json:"xp_delta"`
			ChallengeID string `json:"challenge_id"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.XPDelta <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "xp_delta must be positive"})
		}

		participant, err := competitionService.SubmitScore(userID, c.Params("id"), req.XPDelta, req.ChallengeID, time.Now().UTC())
		switch {
		case errors.Is(err, services.ErrCompetitionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrCompetitionNotActive):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "score submission failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(participant)
	})

	// 🔒 Admin-only routes
	admin := app.Group("/admin", middleware.AdminAuthMiddleware())

	admin.Post("/competitions", func(c *fiber.Ctx) error {
		var in services.CompetitionInput
		in.Title = c.FormValue("title")
		in.Description = c.FormValue("description")
		in.Theme = c.FormValue("theme")

		var err error
		if in.StartDate, err = time.Parse(time.RFC3339, c.FormValue("start_date")); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_date must be RFC3339"})
		}
		if in.EndDate, err = time.Parse(time.RFC3339, c.FormValue("end_date")); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date must be RFC3339"})
		}
		if in.ParticipationThreshold, err = strconv.ParseInt(c.FormValue("participation_threshold", "0"), 10, 64); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "participation_threshold must be an integer"})
		}
		if in.ParticipationReward, err = strconv.ParseInt(c.FormValue("participation_reward", "0"), 10, 64); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "participation_reward must be an integer"})
		}

		// Optional banner image goes to R2
		var bannerURL string
		if fileHeader, fhErr := c.FormFile("banner"); fhErr == nil && fileHeader != nil {
			bannerURL, err = utils.UploadCompetitionBanner(fileHeader, slug.Make(in.Title))
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "banner upload failed",
					"cause": err.Error(),
				})
			}
		}

		comp, err := competitionService.CreateCompetition(in, bannerURL, time.Now().UTC())
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "failed to create competition",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(comp)
	})

	admin.Post("/competitions/:id/end", func(c *fiber.Ctx) error {
		ranked, err := competitionService.EndCompetition(c.Params("id"), time.Now().UTC())
		switch {
		case errors.Is(err, services.ErrCompetitionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrCompetitionEnded):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to end competition",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message":      "competition ended",
			"ranked_count": len(ranked),
			"podium":       podium(ranked),
		})
	})
}

// podium returns the top three ranked participants for the end-of-competition
// response.
func podium(ranked []models.CompetitionParticipant) []models.CompetitionParticipant {
	if len(ranked) > 3 {
		return ranked[:3]
	}
	return ranked
}
