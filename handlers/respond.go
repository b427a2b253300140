// handlers/respond.go
package handlers

import (
	"errors"
	"log"

	"lexamen/gamification"
	"lexamen/middleware"
	"lexamen/services"

	"github.com/gofiber/fiber/v2"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation: fiber.StatusBadRequest,
	services.KindForbidden:  fiber.StatusForbidden,
	services.KindNotFound:   fiber.StatusNotFound,
	services.KindConflict:   fiber.StatusConflict,
}

// fail maps a service error onto a status code. Internal causes stay in the log.
func fail(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		if status, ok := kindStatus[svcErr.Kind]; ok {
			return c.Status(status).JSON(fiber.Map{"error": svcErr.Message})
		}
	} else {
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

// limitReached is the response for a capped free-plan submission.
func limitReached(c *fiber.Ctx, ct gamification.ContentType, used int64) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "daily limit reached",
		"limit": true,
		"used":  used,
		"max":   gamification.DailyFreeLimit(ct),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func userID(c *fiber.Ctx) string {
	return middleware.UserID(c)
}
