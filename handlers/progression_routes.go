// handlers/progression_routes.go
package handlers

import (
	"lexamen/gamification"
	"lexamen/services"

	"github.com/gofiber/fiber/v2"
)

type reviewRequest struct {
	FlashcardID string `json:"flashcard_id"`
	Quality     *int   `json:"quality"`
}

type favoriteRequest struct {
	FlashcardID string `json:"flashcard_id"`
	Favorite    *bool  `json:"favorite"`
}

type mcqAttemptRequest struct {
	MCQID          string `json:"mcq_id"`
	SelectedOption string `json:"selected_option"`
	Streak         int    `json:"streak"`
}

type trueFalseAttemptRequest struct {
	TrueFalseID string `json:"true_false_id"`
	Answer      *bool  `json:"answer"`
	Streak      int    `json:"streak"`
}

// SetupProgressionRoutes wires study submissions and the student's own progress views.
func SetupProgressionRoutes(r fiber.Router, reviews *services.ReviewService, quiz *services.QuizService) {
	r.Get("/user/progress", func(c *fiber.Ctx) error {
		sum, err := reviews.GetProgress(userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(sum)
	})

	r.Get("/curriculum/progress", func(c *fiber.Ctx) error {
		topics, err := reviews.CurriculumProgress(userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"topics": topics})
	})

	r.Post("/flashcards/review", func(c *fiber.Ctx) error {
		var req reviewRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.Quality == nil {
			return badRequest(c, "quality is required")
		}

		out, err := reviews.SubmitReview(userID(c), req.FlashcardID, *req.Quality)
		if err != nil {
			return fail(c, err)
		}
		if out.LimitReached {
			return limitReached(c, gamification.ContentFlashcard, out.ReviewsToday)
		}
		return c.JSON(out)
	})

	r.Post("/flashcards/favorite", func(c *fiber.Ctx) error {
		var req favoriteRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		add := req.Favorite == nil || *req.Favorite
		if err := reviews.SetFavorite(userID(c), req.FlashcardID, add); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"flashcard_id": req.FlashcardID, "favorite": add})
	})

	r.Post("/mcq/attempt", func(c *fiber.Ctx) error {
		var req mcqAttemptRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}

		out, err := quiz.SubmitMCQAttempt(userID(c), req.MCQID, req.SelectedOption, req.Streak)
		if err != nil {
			return fail(c, err)
		}
		if out.LimitReached {
			return limitReached(c, gamification.ContentMCQ, out.AttemptsToday)
		}
		return c.JSON(out)
	})

	r.Post("/truefalse/attempt", func(c *fiber.Ctx) error {
		var req trueFalseAttemptRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.Answer == nil {
			return badRequest(c, "answer is required")
		}

		out, err := quiz.SubmitTrueFalseAttempt(userID(c), req.TrueFalseID, *req.Answer, req.Streak)
		if err != nil {
			return fail(c, err)
		}
		if out.LimitReached {
			return limitReached(c, gamification.ContentTrueFalse, out.AttemptsToday)
		}
		return c.JSON(out)
	})

	r.Get("/users/search", func(c *fiber.Ctx) error {
		res, err := reviews.SearchStudents(userID(c), c.Query("q"), c.QueryInt("limit", 0))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"users": res})
	})
}
