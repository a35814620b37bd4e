package courseValidator

import (
	"strconv"
	"strings"

	"lse/middleware"

	"github.com/gofiber/fiber/v2"
)

// ModuleID parses and validates the :id path param.
func ModuleID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id < 1 {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Module id must be a positive integer!"})
		}
		c.Locals("moduleID", uint(id))
		return c.Next()
	}
}

func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title    string `json:"title"`
			Order    *int   `json:"order"`
			Points   *int   `json:"points"`
			CourseID *uint  `json:"course_id"`
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
		if reqData.Points == nil {
			errors["points"] = "Points are required!"
		} else if *reqData.Points < 0 {
			errors["points"] = "Points cannot be negative!"
		}
		if reqData.CourseID == nil || *reqData.CourseID < 1 {
			errors["course_id"] = "Course id is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedModule", reqData)
		return c.Next()
	}
}

func UpdateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title  *string `json:"title"`
			Order  *int    `json:"order"`
			Points *int    `json:"points"`
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
		if reqData.Points != nil && *reqData.Points < 0 {
			errors["points"] = "Points cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedModuleUpdate", reqData)
		return c.Next()
	}
}
