// handlers/causa.go
package handlers

import (
	"lexamen/services"

	"github.com/gofiber/fiber/v2"
)

type challengeRequest struct {
	OpponentEmail string `json:"opponent_email"`
}

type answerRequest struct {
	QuestionIdx    *int   `json:"question_idx"`
	SelectedOption string `json:"selected_option"`
	TimeMs         int    `json:"time_ms"`
}

// SetupCausaRoutes wires the duel protocol.
func SetupCausaRoutes(r fiber.Router, causas *services.CausaService) {
	r.Post("/causas/challenge", func(c *fiber.Ctx) error {
		var req challengeRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		created, err := causas.CreateDuel(userID(c), req.OpponentEmail)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/causas", func(c *fiber.Ctx) error {
		lists, err := causas.ListCausas(userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(lists)
	})

	// registered before /causas/:id so "pending" is not taken for an id
	r.Get("/causas/pending", func(c *fiber.Ctx) error {
		pending, err := causas.ListPending(userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"pending": pending})
	})

	r.Get("/causas/:id", func(c *fiber.Ctx) error {
		view, err := causas.GetCausa(c.Params("id"), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view)
	})

	respond := func(accept bool) fiber.Handler {
		return func(c *fiber.Ctx) error {
			status, err := causas.Respond(c.Params("id"), userID(c), accept)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(fiber.Map{"causa_id": c.Params("id"), "status": status})
		}
	}
	r.Post("/causas/:id/accept", respond(true))
	r.Post("/causas/:id/reject", respond(false))

	r.Post("/causas/:id/answer", func(c *fiber.Ctx) error {
		var req answerRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.QuestionIdx == nil {
			return badRequest(c, "question_idx is required")
		}
		out, err := causas.SubmitAnswer(c.Params("id"), userID(c), *req.QuestionIdx, req.SelectedOption, req.TimeMs)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(out)
	})
}
