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

// PublicListCourses is the unauthenticated catalog listing. Only active
// courses are visible.
func PublicListCourses(c *fiber.Ctx) error {
	db := database.Database.Db

	var courses []models.Course
	if err := db.Where("is_active = ?", true).Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de cursos", courses)
}

// ListCourses lists the full catalog for authenticated users.
func ListCourses(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindCourse})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var courses []models.Course
	query := db
	if decision.Restricted {
		// Demo accounts only browse the active catalog.
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de cursos", courses)
}

// CreateCourse creates a course owned by the acting teacher.
func CreateCourse(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{Kind: policy.KindCourse})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	reqData, ok := c.Locals("validatedCourse").(*struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Price       *float64 `json:"price"`
		Points      *int     `json:"points"`
		IsActive    *bool    `json:"is_active"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	description := reqData.Description
	if description == "" {
		description = "info no disponible"
	}
	isActive := true
	if reqData.IsActive != nil {
		isActive = *reqData.IsActive
	}

	db := database.Database.Db

	// Course titles are unique across the catalog
	if err := db.Where("title = ?", reqData.Title).First(&models.Course{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Ya existe un curso con este título", nil)
	}

	course := models.Course{
		Title:       reqData.Title,
		Description: description,
		Price:       *reqData.Price,
		Points:      *reqData.Points,
		IsActive:    isActive,
		CreatedBy:   claims.UserID,
	}

	if err := db.Create(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Curso creado", course)
}

// GetCourse returns one course.
func GetCourse(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ?", courseID).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Curso %d no encontrado", courseID), nil)
	}

	decision := policy.Authorize(claims, policy.ActionRead, &policy.Resource{
		Kind:    policy.KindCourse,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}
	if decision.Restricted && !course.IsActive {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Curso %d no encontrado", courseID), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Detalles del curso %d", courseID), course)
}

// UpdateCourse mutates a course. Only an admin or the owning teacher passes
// the policy check.
func UpdateCourse(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ?", courseID).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Curso %d no encontrado", courseID), nil)
	}

	decision := policy.Authorize(claims, policy.ActionUpdate, &policy.Resource{
		Kind:    policy.KindCourse,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	reqData, ok := c.Locals("validatedCourseUpdate").(*struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Points      *int     `json:"points"`
		IsActive    *bool    `json:"is_active"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Title != nil {
		course.Title = *reqData.Title
	}
	if reqData.Description != nil {
		course.Description = *reqData.Description
	}
	if reqData.Price != nil {
		course.Price = *reqData.Price
	}
	if reqData.Points != nil {
		course.Points = *reqData.Points
	}
	if reqData.IsActive != nil {
		course.IsActive = *reqData.IsActive
	}

	if err := db.Save(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Curso %d actualizado", courseID), course)
}

// DeleteCourse removes a course and cascades through its modules, lessons and
// multimedia resources in one transaction.
func DeleteCourse(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ?", courseID).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Curso %d no encontrado", courseID), nil)
	}

	decision := policy.Authorize(claims, policy.ActionDelete, &policy.Resource{
		Kind:    policy.KindCourse,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		var moduleIDs []uint
		if err := tx.Model(&models.CourseModule{}).Where("course_id = ?", courseID).
			Pluck("id", &moduleIDs).Error; err != nil {
			return err
		}
		if err := cascadeDeleteLessons(tx, moduleIDs); err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", courseID).Delete(&models.CourseModule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&course).Error
	})
	if txErr != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Curso %d eliminado", courseID), nil)
}
