package userValidator

import (
	"strconv"
	"strings"

	"lse/middleware"

	"github.com/gofiber/fiber/v2"
)

// UserID parses and validates the :id path param.
func UserID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id < 1 {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "User id must be a positive integer!"})
		}
		c.Locals("targetUserID", uint(id))
		return c.Next()
	}
}

// UpdateUser validates the mutable user fields. Which of them the caller may
// actually change is decided by the policy engine, not here.
func UpdateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			FirstName     *string `json:"first_name"`
			LastName      *string `json:"last_name"`
			Email         *string `json:"email"`
			Role          *string `json:"role"`
			IsAdmin       *bool   `json:"is_admin"`
			IsActive      *bool   `json:"is_active"`
			CurrentPoints *int    `json:"current_points"`
			TrialEndDate  *string `json:"trial_end_date"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.FirstName != nil && strings.TrimSpace(*reqData.FirstName) == "" {
			errors["first_name"] = "First name cannot be empty!"
		}
		if reqData.LastName != nil && strings.TrimSpace(*reqData.LastName) == "" {
			errors["last_name"] = "Last name cannot be empty!"
		}
		if reqData.Role != nil {
			switch *reqData.Role {
			case "student", "teacher", "demo":
			default:
				errors["role"] = "Role must be one of: student, teacher, demo!"
			}
		}
		if reqData.CurrentPoints != nil && *reqData.CurrentPoints < 0 {
			errors["current_points"] = "Points cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUserUpdate", reqData)
		return c.Next()
	}
}
