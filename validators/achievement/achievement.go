package achievementValidator

import (
	"strconv"
	"strings"

	"lse/middleware"

	"github.com/gofiber/fiber/v2"
)

func AchievementID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid achievement id!", nil)
		}

		c.Locals("achievementID", uint(id))
		return c.Next()
	}
}

func CreateAchievement() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name           string `json:"name"`
			Description    string `json:"description"`
			RequiredPoints *int   `json:"required_points"`
			Icon           string `json:"icon"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Name) == "" {
			errors["name"] = "Name is required!"
		}
		if strings.TrimSpace(reqData.Description) == "" {
			errors["description"] = "Description is required!"
		}
		if reqData.RequiredPoints == nil {
			errors["required_points"] = "Required points are required!"
		} else if *reqData.RequiredPoints < 0 {
			errors["required_points"] = "Required points cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAchievement", reqData)
		return c.Next()
	}
}

func UpdateAchievement() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name           *string `json:"name"`
			Description    *string `json:"description"`
			RequiredPoints *int    `json:"required_points"`
			Icon           *string `json:"icon"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Name != nil && strings.TrimSpace(*reqData.Name) == "" {
			errors["name"] = "Name cannot be empty!"
		}
		if reqData.RequiredPoints != nil && *reqData.RequiredPoints < 0 {
			errors["required_points"] = "Required points cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAchievementUpdate", reqData)
		return c.Next()
	}
}

func AssignAchievement() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			UserID        *uint `json:"user_id"`
			AchievementID *uint `json:"achievement_id"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.UserID == nil || *reqData.UserID < 1 {
			errors["user_id"] = "User id is required!"
		}
		if reqData.AchievementID == nil || *reqData.AchievementID < 1 {
			errors["achievement_id"] = "Achievement id is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAssignment", reqData)
		return c.Next()
	}
}
