package pointsController

import (
	"fmt"

	"lse/database"
	"lse/middleware"
	"lse/models"
	"lse/policy"
	"lse/utils"

	"github.com/gofiber/fiber/v2"
)

// AwardPoints manually grants (or deducts) points for a user. Teacher and
// admin only. The grant is an append to the ledger plus an additive balance
// update, never a read-modify-write of the total.
func AwardPoints(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	// Manual grants follow the achievement-assignment rule: teachers and
	// admins only.
	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{Kind: policy.KindAchievement})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	reqData, ok := c.Locals("validatedPoints").(*struct {
		UserID           *uint  `json:"user_id"`
		Points           *int   `json:"points"`
		Type             string `json:"type"`
		EventDescription string `json:"event_description"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", *reqData.UserID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Usuario no encontrado", nil)
	}

	entry, err := utils.AwardPoints(db, user.ID, *reqData.Points, reqData.Type, reqData.EventDescription, nil)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to award points!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Puntos otorgados", entry)
}

// ListPoints returns a user's ledger plus the current balance. Students see
// their own; teachers and admins may pass user_id.
func ListPoints(c *fiber.Ctx) error {
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
		if decision.Allow && decision.Restricted {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "No autorizado para ver puntos de otro usuario", nil)
		}
	}
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var entries []models.UserPoints
	if err := db.Where("user_id = ?", targetUserID).Order("id DESC").Find(&entries).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch points!", nil)
	}

	balance, err := utils.LedgerTotal(db, targetUserID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch points!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Puntos del usuario %d", targetUserID), fiber.Map{
		"entries": entries,
		"total":   balance,
	})
}
