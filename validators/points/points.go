package pointsValidator

import (
	"lse/middleware"
	"lse/models"

	"github.com/gofiber/fiber/v2"
)

func AwardPoints() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			UserID           *uint  `json:"user_id"`
			Points           *int   `json:"points"`
			Type             string `json:"type"`
			EventDescription string `json:"event_description"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.UserID == nil || *reqData.UserID < 1 {
			errors["user_id"] = "User id is required!"
		}
		if reqData.Points == nil {
			errors["points"] = "Points are required!"
		} else if *reqData.Points < 1 {
			errors["points"] = "Points must be positive!"
		}
		switch reqData.Type {
		case models.PointsTypeLesson, models.PointsTypeModule, models.PointsTypeCourse:
		default:
			errors["type"] = "Tipo de puntos no válido"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPoints", reqData)
		return c.Next()
	}
}
