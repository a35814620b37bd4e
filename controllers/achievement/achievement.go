package achievementController

import (
	"fmt"
	"time"

	"lse/database"
	"lse/middleware"
	"lse/models"
	"lse/policy"

	"github.com/gofiber/fiber/v2"
)

// ListAchievements lists the achievement catalog. Open to any active account.
func ListAchievements(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindAchievement})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var achievements []models.Achievement
	if err := db.Order("required_points").Find(&achievements).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch achievements!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de logros", achievements)
}

// CreateAchievement adds an achievement to the catalog. Teacher or admin.
func CreateAchievement(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{Kind: policy.KindAchievement})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	reqData, ok := c.Locals("validatedAchievement").(*struct {
		Name           string `json:"name"`
		Description    string `json:"description"`
		RequiredPoints *int   `json:"required_points"`
		Icon           string `json:"icon"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	achievement := models.Achievement{
		Name:           reqData.Name,
		Description:    reqData.Description,
		RequiredPoints: *reqData.RequiredPoints,
		Icon:           reqData.Icon,
	}

	if err := db.Create(&achievement).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create achievement!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Logro creado", achievement)
}

// GetAchievement returns one achievement.
func GetAchievement(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionRead, &policy.Resource{Kind: policy.KindAchievement})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	achievementID := c.Locals("achievementID").(uint)

	db := database.Database.Db

	var achievement models.Achievement
	if err := db.First(&achievement, achievementID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Logro %d no encontrado", achievementID), nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Detalles del logro %d", achievementID), achievement)
}

// UpdateAchievement mutates catalog fields. Teacher or admin.
func UpdateAchievement(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionUpdate, &policy.Resource{Kind: policy.KindAchievement})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	achievementID := c.Locals("achievementID").(uint)

	reqData, ok := c.Locals("validatedAchievementUpdate").(*struct {
		Name           *string `json:"name"`
		Description    *string `json:"description"`
		RequiredPoints *int    `json:"required_points"`
		Icon           *string `json:"icon"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var achievement models.Achievement
	if err := db.First(&achievement, achievementID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Logro %d no encontrado", achievementID), nil)
	}

	if reqData.Name != nil {
		achievement.Name = *reqData.Name
	}
	if reqData.Description != nil {
		achievement.Description = *reqData.Description
	}
	if reqData.RequiredPoints != nil {
		achievement.RequiredPoints = *reqData.RequiredPoints
	}
	if reqData.Icon != nil {
		achievement.Icon = *reqData.Icon
	}

	if err := db.Save(&achievement).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update achievement!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Logro %d actualizado", achievementID), achievement)
}

// DeleteAchievement removes an achievement and its assignments.
func DeleteAchievement(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionDelete, &policy.Resource{Kind: policy.KindAchievement})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	achievementID := c.Locals("achievementID").(uint)

	db := database.Database.Db

	var achievement models.Achievement
	if err := db.First(&achievement, achievementID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Logro %d no encontrado", achievementID), nil)
	}

	if err := db.Where("achievement_id = ?", achievement.ID).Delete(&models.UserAchievement{}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete achievement!", nil)
	}
	if err := db.Delete(&achievement).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete achievement!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Logro %d eliminado", achievementID), nil)
}

// AssignAchievement grants an achievement to a user. Repeat assignments for
// the same pair are a conflict.
func AssignAchievement(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{Kind: policy.KindAchievement})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	reqData, ok := c.Locals("validatedAssignment").(*struct {
		UserID        *uint `json:"user_id"`
		AchievementID *uint `json:"achievement_id"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", *reqData.UserID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Usuario no encontrado", nil)
	}

	var achievement models.Achievement
	if err := db.First(&achievement, *reqData.AchievementID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Logro no encontrado", nil)
	}

	var existing models.UserAchievement
	if err := db.Where("user_id = ? AND achievement_id = ?", user.ID, achievement.ID).
		First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "El usuario ya tiene este logro", nil)
	}

	assignment := models.UserAchievement{
		UserID:        user.ID,
		AchievementID: achievement.ID,
		ObtainedDate:  time.Now(),
	}

	if err := db.Create(&assignment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "El usuario ya tiene este logro", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Logro asignado", assignment)
}

// ListUserAchievements lists the achievements a user has obtained.
func ListUserAchievements(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	targetUserID := claims.UserID
	if userID := c.QueryInt("user_id", 0); userID > 0 {
		targetUserID = uint(userID)
	}

	if targetUserID != claims.UserID {
		decision := policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindProgress})
		if !decision.Allow {
			return middleware.PolicyDenied(c, decision)
		}
		if decision.Restricted {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "No autorizado para ver logros de otro usuario", nil)
		}
	}

	db := database.Database.Db

	var assignments []models.UserAchievement
	if err := db.Where("user_id = ?", targetUserID).Find(&assignments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch achievements!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Logros del usuario %d", targetUserID), assignments)
}
