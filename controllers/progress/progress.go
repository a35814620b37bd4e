package progressController

import (
	"fmt"
	"time"

	"lse/database"
	"lse/middleware"
	"lse/models"
	"lse/policy"

	"github.com/gofiber/fiber/v2"
)

// RecordProgress creates the (user, lesson) progress row. A second record for
// the same pair is a conflict; completion updates go through UpdateProgress.
func RecordProgress(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedProgress").(*struct {
		UserID    *uint `json:"user_id"`
		LessonID  *uint `json:"lesson_id"`
		Completed *bool `json:"completed"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	targetUserID := claims.UserID
	if reqData.UserID != nil && *reqData.UserID > 0 {
		targetUserID = *reqData.UserID
	}

	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{
		Kind:         policy.KindProgress,
		TargetUserID: targetUserID,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var lesson models.Lesson
	if err := db.First(&lesson, *reqData.LessonID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lección no encontrada", nil)
	}
	if decision.Restricted && !lesson.TrialVisible {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Lección no disponible en modo demo", nil)
	}

	var existing models.UserProgress
	if err := db.Where("user_id = ? AND lesson_id = ?", targetUserID, lesson.ID).
		First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			"Ya existe un registro de progreso para esta lección", nil)
	}

	now := time.Now()
	progress := models.UserProgress{
		UserID:    targetUserID,
		LessonID:  lesson.ID,
		Completed: reqData.Completed != nil && *reqData.Completed,
		StartDate: &now,
	}
	if progress.Completed {
		progress.CompletionDate = &now
	}

	if err := db.Create(&progress).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			"Ya existe un registro de progreso para esta lección", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Progreso registrado", progress)
}

// ListProgress lists progress rows. Students and demo accounts only see
// their own.
func ListProgress(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindProgress})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	query := db.Model(&models.UserProgress{})
	if decision.Restricted {
		query = query.Where("user_id = ?", claims.UserID)
	} else if userID := c.QueryInt("user_id", 0); userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if lessonID := c.QueryInt("lesson_id", 0); lessonID > 0 {
		query = query.Where("lesson_id = ?", lessonID)
	}

	var rows []models.UserProgress
	if err := query.Find(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de progreso", rows)
}

// UpdateProgress marks a progress row completed or not. Completion stamps
// the completion date; unmarking clears it.
func UpdateProgress(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	progressID := c.Locals("progressID").(uint)

	db := database.Database.Db

	var progress models.UserProgress
	if err := db.First(&progress, progressID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Progreso %d no encontrado", progressID), nil)
	}

	// Own rows may be updated by anyone; others only by teachers or admins.
	if progress.UserID != claims.UserID {
		decision := policy.Authorize(claims, policy.ActionUpdate, &policy.Resource{
			Kind:         policy.KindProgress,
			TargetUserID: progress.UserID,
		})
		if !decision.Allow {
			return middleware.PolicyDenied(c, decision)
		}
	} else {
		decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{
			Kind:         policy.KindProgress,
			TargetUserID: claims.UserID,
		})
		if !decision.Allow {
			return middleware.PolicyDenied(c, decision)
		}
	}

	reqData, ok := c.Locals("validatedProgressUpdate").(*struct {
		Completed *bool `json:"completed"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	progress.Completed = *reqData.Completed
	if progress.Completed {
		now := time.Now()
		progress.CompletionDate = &now
	} else {
		progress.CompletionDate = nil
	}

	if err := db.Save(&progress).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Progreso %d actualizado", progressID), progress)
}

// DeleteProgress removes a progress row. Teachers and admins only.
func DeleteProgress(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionDelete, &policy.Resource{Kind: policy.KindProgress})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	progressID := c.Locals("progressID").(uint)

	db := database.Database.Db

	var progress models.UserProgress
	if err := db.First(&progress, progressID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Progreso %d no encontrado", progressID), nil)
	}

	if err := db.Delete(&progress).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Progreso %d eliminado", progressID), nil)
}

// OverallProgress reports the share of a user's progress records marked
// completed, across every course they have started. No records reports 0%.
func OverallProgress(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	targetUserID := claims.UserID
	if userID := c.QueryInt("user_id", 0); userID > 0 {
		targetUserID = uint(userID)
	}

	var decision policy.Decision
	if targetUserID == claims.UserID {
		decision = policy.Authorize(claims, policy.ActionRead, &policy.Resource{
			Kind:         policy.KindProgress,
			TargetUserID: targetUserID,
		})
	} else {
		decision = policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindProgress})
		if decision.Restricted {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "No autorizado para ver progreso de otro usuario", nil)
		}
	}
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var total int64
	if err := db.Model(&models.UserProgress{}).
		Where("user_id = ?", targetUserID).
		Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute progress!", nil)
	}

	var completed int64
	if err := db.Model(&models.UserProgress{}).
		Where("user_id = ? AND completed = ?", targetUserID, true).
		Count(&completed).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute progress!", nil)
	}

	percentage := 0.0
	if total > 0 {
		percentage = float64(completed) / float64(total) * 100
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progreso global", fiber.Map{
		"user_id":    targetUserID,
		"completed":  completed,
		"total":      total,
		"percentage": percentage,
	})
}

// CourseProgress reports completed and total lesson counts for one course
// plus a percentage. A course with no lessons reports 0%.
func CourseProgress(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	targetUserID := claims.UserID
	if userID := c.QueryInt("user_id", 0); userID > 0 {
		targetUserID = uint(userID)
	}

	var decision policy.Decision
	if targetUserID == claims.UserID {
		decision = policy.Authorize(claims, policy.ActionRead, &policy.Resource{
			Kind:         policy.KindProgress,
			TargetUserID: targetUserID,
		})
	} else {
		decision = policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindProgress})
		if decision.Restricted {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "No autorizado para ver progreso de otro usuario", nil)
		}
	}
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Curso no encontrado", nil)
	}

	var total int64
	if err := db.Model(&models.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", course.ID).
		Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute progress!", nil)
	}

	var completed int64
	if err := db.Model(&models.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progresses.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ? AND user_progresses.user_id = ? AND user_progresses.completed = ?",
			course.ID, targetUserID, true).
		Count(&completed).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute progress!", nil)
	}

	percentage := 0.0
	if total > 0 {
		percentage = float64(completed) / float64(total) * 100
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Progreso del curso %d", courseID), fiber.Map{
		"course_id":  course.ID,
		"user_id":    targetUserID,
		"completed":  completed,
		"total":      total,
		"percentage": percentage,
	})
}
