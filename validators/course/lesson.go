package courseValidator

import (
	"strconv"
	"strings"

	"lse/middleware"

	"github.com/gofiber/fiber/v2"
)

// LessonID parses and validates the :id path param.
func LessonID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id < 1 {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Lesson id must be a positive integer!"})
		}
		c.Locals("lessonID", uint(id))
		return c.Next()
	}
}

func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title             string `json:"title"`
			Content           string `json:"content"`
			LearningObjective string `json:"learning_objective"`
			SignsTaught       string `json:"signs_taught"`
			Order             *int   `json:"order"`
			TrialVisible      *bool  `json:"trial_visible"`
			ModuleID          *uint  `json:"module_id"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		if reqData.Order == nil {
			errors["order"] = "Order is required!"
		} else if *reqData.Order < 0 {
			errors["order"] = "Order cannot be negative!"
		}
		if reqData.ModuleID == nil || *reqData.ModuleID < 1 {
			errors["module_id"] = "Module id is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

func UpdateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title             *string `json:"title"`
			Content           *string `json:"content"`
			LearningObjective *string `json:"learning_objective"`
			SignsTaught       *string `json:"signs_taught"`
			Order             *int    `json:"order"`
			TrialVisible      *bool   `json:"trial_visible"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Title != nil && strings.TrimSpace(*reqData.Title) == "" {
			errors["title"] = "Title cannot be empty!"
		}
		if reqData.Order != nil && *reqData.Order < 0 {
			errors["order"] = "Order cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLessonUpdate", reqData)
		return c.Next()
	}
}
