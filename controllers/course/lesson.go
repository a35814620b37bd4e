package courseController

import (
	"fmt"

	"lse/database"
	"lse/middleware"
	"lse/models"
	"lse/policy"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// PublicListLessons lists trial-visible lessons of active courses. This is
// the unauthenticated teaser view of the catalog.
func PublicListLessons(c *fiber.Ctx) error {
	db := database.Database.Db

	var lessons []models.Lesson
	if err := db.
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Joins("JOIN courses ON courses.id = course_modules.course_id").
		Where("courses.is_active = ? AND lessons.trial_visible = ?", true, true).
		Find(&lessons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de lecciones", lessons)
}

// ListLessons lists lessons for authenticated users. Demo accounts only see
// trial-visible rows.
func ListLessons(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindLesson})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	query := db.Model(&models.Lesson{})
	if moduleID := c.QueryInt("module_id", 0); moduleID > 0 {
		query = query.Where("module_id = ?", moduleID)
	}
	if decision.Restricted {
		query = query.Where("trial_visible = ?", true)
	}

	var lessons []models.Lesson
	if err := query.Order("order_index").Find(&lessons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de lecciones", lessons)
}

// CreateLesson adds a lesson under a module of a course the caller owns.
func CreateLesson(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedLesson").(*struct {
		Title             string `json:"title"`
		Content           string `json:"content"`
		LearningObjective string `json:"learning_objective"`
		SignsTaught       string `json:"signs_taught"`
		Order             *int   `json:"order"`
		TrialVisible      *bool  `json:"trial_visible"`
		ModuleID          *uint  `json:"module_id"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	_, course, err := moduleWithCourse(db, *reqData.ModuleID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Módulo no encontrado", nil)
	}

	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{
		Kind:    policy.KindLesson,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	var existing models.Lesson
	if err := db.Where("module_id = ? AND order_index = ?", *reqData.ModuleID, *reqData.Order).
		First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			fmt.Sprintf("Ya existe una lección con el orden %d en este módulo", *reqData.Order), nil)
	}

	trialVisible := false
	if reqData.TrialVisible != nil {
		trialVisible = *reqData.TrialVisible
	}

	lesson := models.Lesson{
		ModuleID:          *reqData.ModuleID,
		Title:             reqData.Title,
		Content:           reqData.Content,
		LearningObjective: reqData.LearningObjective,
		SignsTaught:       reqData.SignsTaught,
		Order:             *reqData.Order,
		TrialVisible:      trialVisible,
	}

	if err := db.Create(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			fmt.Sprintf("Ya existe una lección con el orden %d en este módulo", *reqData.Order), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lección creada", lesson)
}

// GetLesson returns one lesson. Demo accounts only reach trial-visible ones.
func GetLesson(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(uint)

	db := database.Database.Db

	lesson, course, err := lessonWithCourse(db, lessonID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Lección %d no encontrada", lessonID), nil)
	}

	decision := policy.Authorize(claims, policy.ActionRead, &policy.Resource{
		Kind:    policy.KindLesson,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}
	if decision.Restricted && !lesson.TrialVisible {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Lección no disponible en modo demo", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Detalles de la lección %d", lessonID), lesson)
}

// UpdateLesson mutates a lesson owned by the caller.
func UpdateLesson(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(uint)

	db := database.Database.Db

	lesson, course, err := lessonWithCourse(db, lessonID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Lección %d no encontrada", lessonID), nil)
	}

	decision := policy.Authorize(claims, policy.ActionUpdate, &policy.Resource{
		Kind:    policy.KindLesson,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	reqData, ok := c.Locals("validatedLessonUpdate").(*struct {
		Title             *string `json:"title"`
		Content           *string `json:"content"`
		LearningObjective *string `json:"learning_objective"`
		SignsTaught       *string `json:"signs_taught"`
		Order             *int    `json:"order"`
		TrialVisible      *bool   `json:"trial_visible"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Order != nil {
		var existing models.Lesson
		if err := db.Where("module_id = ? AND order_index = ? AND id <> ?", lesson.ModuleID, *reqData.Order, lesson.ID).
			First(&existing).Error; err == nil {
			return middleware.JsonResponse(c, fiber.StatusConflict, false,
				fmt.Sprintf("Ya existe una lección con el orden %d en este módulo", *reqData.Order), nil)
		}
		lesson.Order = *reqData.Order
	}
	if reqData.Title != nil {
		lesson.Title = *reqData.Title
	}
	if reqData.Content != nil {
		lesson.Content = *reqData.Content
	}
	if reqData.LearningObjective != nil {
		lesson.LearningObjective = *reqData.LearningObjective
	}
	if reqData.SignsTaught != nil {
		lesson.SignsTaught = *reqData.SignsTaught
	}
	if reqData.TrialVisible != nil {
		lesson.TrialVisible = *reqData.TrialVisible
	}

	if err := db.Save(lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			"Ya existe una lección con ese orden en este módulo", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Lección %d actualizada", lessonID), lesson)
}

// DeleteLesson removes a lesson, its multimedia resources and any progress
// rows referencing it.
func DeleteLesson(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(uint)

	db := database.Database.Db

	lesson, course, err := lessonWithCourse(db, lessonID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Lección %d no encontrada", lessonID), nil)
	}

	decision := policy.Authorize(claims, policy.ActionDelete, &policy.Resource{
		Kind:    policy.KindLesson,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", lesson.ID).Delete(&models.MultimediaResource{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lesson_id = ?", lesson.ID).Delete(&models.UserProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(lesson).Error
	})
	if txErr != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Lección %d eliminada", lessonID), nil)
}
