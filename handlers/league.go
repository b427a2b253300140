// handlers/league.go
package handlers

import (
	"lexamen/middleware"
	"lexamen/services"

	"github.com/gofiber/fiber/v2"
)

// SetupLeagueRoutes exposes the caller's weekly league table.
func SetupLeagueRoutes(r fiber.Router, leagues *services.LeagueService) {
	r.Get("/liga", func(c *fiber.Ctx) error {
		st, err := leagues.GetStanding(userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st)
	})
}

// SetupCronRoutes registers scheduler-triggered endpoints. They sit outside
// the gateway and are guarded by the cron secret only, so they must be
// registered before the gateway middleware.
func SetupCronRoutes(app *fiber.App, leagues *services.LeagueService, cronSecret string) {
	app.Post("/liga/process-week", middleware.CronSecretMiddleware(cronSecret), func(c *fiber.Ctx) error {
		sum, err := leagues.ProcessWeekRollover(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "rollover": sum})
	})
}
