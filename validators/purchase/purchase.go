package purchaseValidator

import (
	"strconv"

	"lse/middleware"
	"lse/models"

	"github.com/gofiber/fiber/v2"
)

func PurchaseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid purchase id!", nil)
		}

		c.Locals("purchaseID", uint(id))
		return c.Next()
	}
}

func CreatePurchase() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID *uint `json:"course_id"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.CourseID == nil || *reqData.CourseID < 1 {
			errors["course_id"] = "Course id is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPurchase", reqData)
		return c.Next()
	}
}

// AdminUpdatePurchase validates the manual status-correction payload.
func AdminUpdatePurchase() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Status string `json:"status"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		switch reqData.Status {
		case models.PurchasePending, models.PurchasePaid, models.PurchaseCancelled:
		default:
			errors["status"] = "Estado de compra no válido"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPurchaseUpdate", reqData)
		return c.Next()
	}
}
