package userController

import (
	"fmt"
	"time"

	"lse/database"
	"lse/middleware"
	"lse/models"
	"lse/policy"

	"github.com/gofiber/fiber/v2"
)

// userView shapes a user record for the caller. Admins get the full row;
// everyone else gets the restricted projection.
func userView(user *models.User, restricted bool) fiber.Map {
	view := fiber.Map{
		"user_id":           user.ID,
		"first_name":        user.FirstName,
		"last_name":         user.LastName,
		"email":             user.Email,
		"role":              user.Role,
		"current_points":    user.CurrentPoints,
		"registration_date": user.RegistrationDate,
		"trial_end_date":    user.TrialEndDate,
		"last_access":       user.LastAccess,
	}
	if !restricted {
		view["is_active"] = user.IsActive
		view["is_admin"] = user.IsAdmin
	}
	return view
}

// ListUsers is admin only.
func ListUsers(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindUser})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	db := database.Database.Db

	var total int64
	db.Model(&models.User{}).Where("is_deleted = ?", false).Count(&total)

	var users []models.User
	if err := db.Where("is_deleted = ?", false).
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	results := make([]fiber.Map, 0, len(users))
	for i := range users {
		results = append(results, userView(&users[i], false))
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de usuarios", fiber.Map{
		"results": results,
		"pagination": fiber.Map{
			"total":    total,
			"page":     page,
			"per_page": perPage,
		},
	})
}

// GetUser returns one user: self with a restricted projection, anyone for an
// admin.
func GetUser(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	targetID := c.Locals("targetUserID").(uint)

	decision := policy.Authorize(claims, policy.ActionReadOwn, &policy.Resource{
		Kind:         policy.KindUser,
		TargetUserID: targetID,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Usuario no encontrado", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true,
		fmt.Sprintf("Detalles del usuario %d", targetID), userView(&user, decision.Restricted))
}

// UpdateUser lets a user edit their own names; admins may edit everything,
// including the privileged fields the restricted set locks out.
func UpdateUser(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	targetID := c.Locals("targetUserID").(uint)

	decision := policy.Authorize(claims, policy.ActionUpdateOwn, &policy.Resource{
		Kind:         policy.KindUser,
		TargetUserID: targetID,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	reqData, ok := c.Locals("validatedUserUpdate").(*struct {
		FirstName     *string `json:"first_name"`
		LastName      *string `json:"last_name"`
		Email         *string `json:"email"`
		Role          *string `json:"role"`
		IsAdmin       *bool   `json:"is_admin"`
		IsActive      *bool   `json:"is_active"`
		CurrentPoints *int    `json:"current_points"`
		TrialEndDate  *string `json:"trial_end_date"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Usuario no encontrado", nil)
	}

	// Privileged fields require the full (admin) view.
	if decision.Restricted {
		if reqData.Role != nil || reqData.IsAdmin != nil || reqData.IsActive != nil ||
			reqData.CurrentPoints != nil || reqData.TrialEndDate != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false,
				"No puedes modificar rol, puntos ni periodo de prueba", nil)
		}
	}

	if reqData.FirstName != nil {
		user.FirstName = *reqData.FirstName
	}
	if reqData.LastName != nil {
		user.LastName = *reqData.LastName
	}
	if reqData.Email != nil {
		user.Email = *reqData.Email
	}
	if reqData.Role != nil {
		user.Role = *reqData.Role
	}
	if reqData.IsAdmin != nil {
		user.IsAdmin = *reqData.IsAdmin
	}
	if reqData.IsActive != nil {
		user.IsActive = *reqData.IsActive
	}
	if reqData.CurrentPoints != nil {
		user.CurrentPoints = *reqData.CurrentPoints
	}
	if reqData.TrialEndDate != nil {
		parsed, err := time.Parse(time.RFC3339, *reqData.TrialEndDate)
		if err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"trial_end_date": "Must be an RFC3339 timestamp!"})
		}
		user.TrialEndDate = &parsed
	}

	if err := db.Save(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true,
		fmt.Sprintf("Usuario %d actualizado", targetID), userView(&user, decision.Restricted))
}

// DeleteUser is admin only and soft-deletes the target account.
func DeleteUser(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	targetID := c.Locals("targetUserID").(uint)

	decision := policy.Authorize(claims, policy.ActionDelete, &policy.Resource{
		Kind:         policy.KindUser,
		TargetUserID: targetID,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Usuario no encontrado", nil)
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"is_active":  false,
		"is_deleted": true,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Usuario %d eliminado", targetID), nil)
}
