package multimediaValidator

import (
	"net/url"
	"strconv"
	"strings"

	"lse/middleware"
	"lse/models"

	"github.com/gofiber/fiber/v2"
)

func validType(t string) bool {
	switch t {
	case models.ResourceTypeVideo, models.ResourceTypeImage, models.ResourceTypeGif,
		models.ResourceTypeAnimation, models.ResourceTypeDocument:
		return true
	}
	return false
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func ResourceID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid resource id!", nil)
		}

		c.Locals("resourceID", uint(id))
		return c.Next()
	}
}

func CreateResource() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			LessonID        *uint  `json:"lesson_id"`
			Type            string `json:"type"`
			URL             string `json:"url"`
			PublicID        string `json:"public_id"`
			DurationSeconds *int   `json:"duration_seconds"`
			Description     string `json:"description"`
			Order           *int   `json:"order"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.LessonID == nil || *reqData.LessonID < 1 {
			errors["lesson_id"] = "Lesson id is required!"
		}
		if !validType(reqData.Type) {
			errors["type"] = "Tipo de recurso no válido"
		}
		if strings.TrimSpace(reqData.URL) == "" {
			errors["url"] = "URL is required!"
		} else if !validURL(reqData.URL) {
			errors["url"] = "La URL debe ser absoluta (http o https)"
		}
		if reqData.Order == nil {
			errors["order"] = "Order is required!"
		} else if *reqData.Order < 0 {
			errors["order"] = "Order cannot be negative!"
		}
		if reqData.DurationSeconds != nil && *reqData.DurationSeconds < 0 {
			errors["duration_seconds"] = "Duration cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedResource", reqData)
		return c.Next()
	}
}

func UpdateResource() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Type            *string `json:"type"`
			URL             *string `json:"url"`
			DurationSeconds *int    `json:"duration_seconds"`
			Description     *string `json:"description"`
			Order           *int    `json:"order"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Type != nil && !validType(*reqData.Type) {
			errors["type"] = "Tipo de recurso no válido"
		}
		if reqData.URL != nil && !validURL(*reqData.URL) {
			errors["url"] = "La URL debe ser absoluta (http o https)"
		}
		if reqData.Order != nil && *reqData.Order < 0 {
			errors["order"] = "Order cannot be negative!"
		}
		if reqData.DurationSeconds != nil && *reqData.DurationSeconds < 0 {
			errors["duration_seconds"] = "Duration cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedResourceUpdate", reqData)
		return c.Next()
	}
}

// UploadResource validates the multipart form of a direct media upload. The
// file itself is size/extension checked in the controller against the
// per-type allow-list.
func UploadResource() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := make(map[string]string)

		lessonID, err := strconv.ParseUint(c.FormValue("lesson_id"), 10, 32)
		if err != nil || lessonID < 1 {
			errors["lesson_id"] = "Lesson id is required!"
		}

		resourceType := c.FormValue("type")
		if !validType(resourceType) {
			errors["type"] = "Tipo de recurso no válido"
		}

		order, err := strconv.Atoi(c.FormValue("order"))
		if err != nil || order < 0 {
			errors["order"] = "Order is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("uploadLessonID", uint(lessonID))
		c.Locals("uploadType", resourceType)
		c.Locals("uploadOrder", order)
		return c.Next()
	}
}
