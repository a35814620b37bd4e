package multimediaController

import (
	"fmt"
	"log"

	"lse/database"
	"lse/middleware"
	"lse/models"
	"lse/policy"
	"lse/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func lessonCourse(db *gorm.DB, lessonID uint) (*models.Lesson, *models.Course, error) {
	var lesson models.Lesson
	if err := db.First(&lesson, lessonID).Error; err != nil {
		return nil, nil, err
	}

	var module models.CourseModule
	if err := db.First(&module, lesson.ModuleID).Error; err != nil {
		return nil, nil, err
	}

	var course models.Course
	if err := db.First(&course, module.CourseID).Error; err != nil {
		return nil, nil, err
	}

	return &lesson, &course, nil
}

func resourceCourse(db *gorm.DB, resourceID uint) (*models.MultimediaResource, *models.Course, error) {
	var resource models.MultimediaResource
	if err := db.First(&resource, resourceID).Error; err != nil {
		return nil, nil, err
	}

	_, course, err := lessonCourse(db, resource.LessonID)
	if err != nil {
		return nil, nil, err
	}

	return &resource, course, nil
}

// ListResources lists the resources of a lesson in display order.
func ListResources(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindResource})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	query := db.Model(&models.MultimediaResource{})
	if lessonID := c.QueryInt("lesson_id", 0); lessonID > 0 {
		query = query.Where("lesson_id = ?", lessonID)
		if decision.Restricted {
			var lesson models.Lesson
			if err := db.First(&lesson, lessonID).Error; err != nil || !lesson.TrialVisible {
				return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Lección no disponible en modo demo", nil)
			}
		}
	} else if decision.Restricted {
		query = query.Joins("JOIN lessons ON lessons.id = multimedia_resources.lesson_id").
			Where("lessons.trial_visible = ?", true)
	}

	var resources []models.MultimediaResource
	if err := query.Order("order_index").Find(&resources).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch resources!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de recursos", resources)
}

// CreateResource registers an already-hosted asset under a lesson.
func CreateResource(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedResource").(*struct {
		LessonID        *uint  `json:"lesson_id"`
		Type            string `json:"type"`
		URL             string `json:"url"`
		PublicID        string `json:"public_id"`
		DurationSeconds *int   `json:"duration_seconds"`
		Description     string `json:"description"`
		Order           *int   `json:"order"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	_, course, err := lessonCourse(db, *reqData.LessonID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lección no encontrada", nil)
	}

	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{
		Kind:    policy.KindResource,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	var existing models.MultimediaResource
	if err := db.Where("lesson_id = ? AND order_index = ?", *reqData.LessonID, *reqData.Order).
		First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			fmt.Sprintf("Ya existe un recurso con el orden %d en esta lección", *reqData.Order), nil)
	}

	duration := 0
	if reqData.DurationSeconds != nil {
		duration = *reqData.DurationSeconds
	}

	resource := models.MultimediaResource{
		LessonID:        *reqData.LessonID,
		Type:            reqData.Type,
		URL:             reqData.URL,
		PublicID:        reqData.PublicID,
		DurationSeconds: duration,
		Description:     reqData.Description,
		Order:           *reqData.Order,
	}

	if err := db.Create(&resource).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			fmt.Sprintf("Ya existe un recurso con el orden %d en esta lección", *reqData.Order), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Recurso creado", resource)
}

// UploadResource takes a multipart file, pushes it to the media host and
// registers the resulting asset under the lesson.
func UploadResource(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("uploadLessonID").(uint)
	resourceType := c.Locals("uploadType").(string)
	order := c.Locals("uploadOrder").(int)

	db := database.Database.Db

	_, course, err := lessonCourse(db, lessonID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lección no encontrada", nil)
	}

	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{
		Kind:    policy.KindResource,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Archivo no proporcionado", nil)
	}

	if err := utils.ValidateUploadFile(fileHeader.Filename, fileHeader.Size, resourceType); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
	}

	var existing models.MultimediaResource
	if err := db.Where("lesson_id = ? AND order_index = ?", lessonID, order).
		First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			fmt.Sprintf("Ya existe un recurso con el orden %d en esta lección", order), nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read upload!", nil)
	}
	defer file.Close()

	result, err := utils.UploadToCloudinary(file, fileHeader.Filename, resourceType, lessonID)
	if err != nil {
		log.Println("Cloudinary upload failed:", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Error al subir el archivo al servidor de medios", nil)
	}

	resource := models.MultimediaResource{
		LessonID:        lessonID,
		Type:            resourceType,
		URL:             result.SecureURL,
		PublicID:        result.PublicID,
		DurationSeconds: int(result.Duration),
		Description:     c.FormValue("description"),
		Order:           order,
	}

	if err := db.Create(&resource).Error; err != nil {
		// Slot was taken between the check and the insert. The remote asset
		// is orphaned otherwise.
		utils.DeleteFromCloudinary(result.PublicID, resourceType)
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			fmt.Sprintf("Ya existe un recurso con el orden %d en esta lección", order), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Recurso subido", resource)
}

// GetResource returns one multimedia resource.
func GetResource(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	resourceID := c.Locals("resourceID").(uint)

	db := database.Database.Db

	resource, course, err := resourceCourse(db, resourceID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Recurso %d no encontrado", resourceID), nil)
	}

	decision := policy.Authorize(claims, policy.ActionRead, &policy.Resource{
		Kind:    policy.KindResource,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}
	if decision.Restricted {
		var lesson models.Lesson
		if err := db.First(&lesson, resource.LessonID).Error; err != nil || !lesson.TrialVisible {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Lección no disponible en modo demo", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Detalles del recurso %d", resourceID), resource)
}

// UpdateResource mutates resource metadata.
func UpdateResource(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	resourceID := c.Locals("resourceID").(uint)

	db := database.Database.Db

	resource, course, err := resourceCourse(db, resourceID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Recurso %d no encontrado", resourceID), nil)
	}

	decision := policy.Authorize(claims, policy.ActionUpdate, &policy.Resource{
		Kind:    policy.KindResource,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	reqData, ok := c.Locals("validatedResourceUpdate").(*struct {
		Type            *string `json:"type"`
		URL             *string `json:"url"`
		DurationSeconds *int    `json:"duration_seconds"`
		Description     *string `json:"description"`
		Order           *int    `json:"order"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Order != nil {
		var existing models.MultimediaResource
		if err := db.Where("lesson_id = ? AND order_index = ? AND id <> ?", resource.LessonID, *reqData.Order, resource.ID).
			First(&existing).Error; err == nil {
			return middleware.JsonResponse(c, fiber.StatusConflict, false,
				fmt.Sprintf("Ya existe un recurso con el orden %d en esta lección", *reqData.Order), nil)
		}
		resource.Order = *reqData.Order
	}
	if reqData.Type != nil {
		resource.Type = *reqData.Type
	}
	if reqData.URL != nil {
		resource.URL = *reqData.URL
	}
	if reqData.DurationSeconds != nil {
		resource.DurationSeconds = *reqData.DurationSeconds
	}
	if reqData.Description != nil {
		resource.Description = *reqData.Description
	}

	if err := db.Save(resource).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			"Ya existe un recurso con ese orden en esta lección", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Recurso %d actualizado", resourceID), resource)
}

// DeleteResource removes the row and, when the asset lives on the media
// host, destroys the remote copy as well.
func DeleteResource(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	resourceID := c.Locals("resourceID").(uint)

	db := database.Database.Db

	resource, course, err := resourceCourse(db, resourceID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Recurso %d no encontrado", resourceID), nil)
	}

	decision := policy.Authorize(claims, policy.ActionDelete, &policy.Resource{
		Kind:    policy.KindResource,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	if err := db.Delete(resource).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete resource!", nil)
	}

	if resource.PublicID != "" {
		if ok := utils.DeleteFromCloudinary(resource.PublicID, resource.Type); !ok {
			log.Println("Cloudinary destroy failed for public id:", resource.PublicID)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Recurso %d eliminado", resourceID), nil)
}
