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

// PublicListModules lists modules of active courses without authentication.
func PublicListModules(c *fiber.Ctx) error {
	db := database.Database.Db

	var modules []models.CourseModule
	if err := db.
		Joins("JOIN courses ON courses.id = course_modules.course_id").
		Where("courses.is_active = ?", true).
		Find(&modules).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch modules!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de módulos", modules)
}

// ListModules lists modules for authenticated users, optionally filtered by
// course_id.
func ListModules(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindModule})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	query := db.Model(&models.CourseModule{})
	if courseID := c.QueryInt("course_id", 0); courseID > 0 {
		query = query.Where("course_id = ?", courseID)
	}

	var modules []models.CourseModule
	if err := query.Order("order_index").Find(&modules).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch modules!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de módulos", modules)
}

// CreateModule adds a module to a course the caller owns. The order slot must
// be free within the course.
func CreateModule(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedModule").(*struct {
		Title    string `json:"title"`
		Order    *int   `json:"order"`
		Points   *int   `json:"points"`
		CourseID *uint  `json:"course_id"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ?", *reqData.CourseID).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Curso no encontrado", nil)
	}

	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{
		Kind:    policy.KindModule,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	// Friendlier message than the raw constraint violation. The unique index
	// remains the final guard under concurrency.
	var existing models.CourseModule
	if err := db.Where("course_id = ? AND order_index = ?", *reqData.CourseID, *reqData.Order).
		First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			fmt.Sprintf("Ya existe un módulo con el orden %d en este curso", *reqData.Order), nil)
	}

	module := models.CourseModule{
		CourseID: *reqData.CourseID,
		Title:    reqData.Title,
		Order:    *reqData.Order,
		Points:   *reqData.Points,
	}

	if err := db.Create(&module).Error; err != nil {
		// Lost the race for the order slot
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			fmt.Sprintf("Ya existe un módulo con el orden %d en este curso", *reqData.Order), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Módulo creado", module)
}

// GetModule returns one module.
func GetModule(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	moduleID := c.Locals("moduleID").(uint)

	db := database.Database.Db

	module, course, err := moduleWithCourse(db, moduleID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Módulo no encontrado", nil)
	}

	decision := policy.Authorize(claims, policy.ActionRead, &policy.Resource{
		Kind:    policy.KindModule,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Detalles del módulo %d", moduleID), module)
}

// UpdateModule mutates a module owned by the caller. Changing order re-checks
// the uniqueness slot, excluding the module itself.
func UpdateModule(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	moduleID := c.Locals("moduleID").(uint)

	db := database.Database.Db

	module, course, err := moduleWithCourse(db, moduleID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Módulo no encontrado", nil)
	}

	decision := policy.Authorize(claims, policy.ActionUpdate, &policy.Resource{
		Kind:    policy.KindModule,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	reqData, ok := c.Locals("validatedModuleUpdate").(*struct {
		Title  *string `json:"title"`
		Order  *int    `json:"order"`
		Points *int    `json:"points"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Order != nil {
		var existing models.CourseModule
		if err := db.Where("course_id = ? AND order_index = ? AND id <> ?", module.CourseID, *reqData.Order, module.ID).
			First(&existing).Error; err == nil {
			return middleware.JsonResponse(c, fiber.StatusConflict, false,
				fmt.Sprintf("Ya existe un módulo con el orden %d en este curso", *reqData.Order), nil)
		}
		module.Order = *reqData.Order
	}
	if reqData.Title != nil {
		module.Title = *reqData.Title
	}
	if reqData.Points != nil {
		module.Points = *reqData.Points
	}

	if err := db.Save(module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			"Ya existe un módulo con ese orden en este curso", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Módulo %d actualizado", moduleID), module)
}

// DeleteModule removes a module and its lessons subtree.
func DeleteModule(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	moduleID := c.Locals("moduleID").(uint)

	db := database.Database.Db

	module, course, err := moduleWithCourse(db, moduleID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Módulo no encontrado", nil)
	}

	decision := policy.Authorize(claims, policy.ActionDelete, &policy.Resource{
		Kind:    policy.KindModule,
		OwnerID: course.CreatedBy,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := cascadeDeleteLessons(tx, []uint{module.ID}); err != nil {
			return err
		}
		return tx.Delete(module).Error
	})
	if txErr != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Módulo %d eliminado", moduleID), nil)
}
