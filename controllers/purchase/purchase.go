package purchaseController

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lse/config"
	"lse/database"
	"lse/middleware"
	"lse/models"
	"lse/policy"
	"lse/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v81"
	"gorm.io/gorm"
)

// InitiatePurchase starts a purchase of a course by the caller. Free courses
// are granted immediately; priced courses get a pending purchase plus a
// payment intent whose client secret the frontend completes. If the provider
// rejects the intent the pending row is rolled back so no orphan remains.
func InitiatePurchase(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedPurchase").(*struct {
		CourseID *uint `json:"course_id"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionCreate, &policy.Resource{
		Kind:         policy.KindPurchase,
		TargetUserID: claims.UserID,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var course models.Course
	if err := db.First(&course, *reqData.CourseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Curso no encontrado", nil)
	}
	if !course.IsActive {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "El curso no está disponible", nil)
	}

	var existing models.Purchase
	if err := db.Where("user_id = ? AND course_id = ? AND status = ?",
		claims.UserID, course.ID, models.PurchasePaid).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Ya has comprado este curso", nil)
	}

	purchase := models.Purchase{
		UserID:       claims.UserID,
		CourseID:     course.ID,
		Price:        course.Price,
		Total:        course.Price,
		Status:       models.PurchasePending,
		PurchaseDate: time.Now(),
	}

	if course.Price == 0 {
		if err := db.Create(&purchase).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Ya has comprado este curso", nil)
		}
		if err := utils.MarkPurchasePaid(db, &purchase); err != nil {
			log.Println("Failed to complete free purchase:", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to complete purchase!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Compra completada", fiber.Map{
			"purchase": purchase,
		})
	}

	amountCents := utils.FormatAmountCents(course.Price)
	if amountCents < config.AppConfig.StripeMinAmountCents {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false,
			fmt.Sprintf("El importe mínimo de pago es de %d céntimos", config.AppConfig.StripeMinAmountCents), nil)
	}

	var clientSecret string
	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}

		intent, err := utils.CreatePaymentIntent(amountCents,
			"Curso: "+course.Title,
			claims.Email,
			map[string]string{
				"purchase_id": fmt.Sprintf("%d", purchase.ID),
				"course_id":   fmt.Sprintf("%d", course.ID),
				"user_id":     fmt.Sprintf("%d", claims.UserID),
			})
		if err != nil {
			return err
		}

		if err := tx.Model(&purchase).Update("payment_intent_id", intent.ID).Error; err != nil {
			return err
		}
		purchase.PaymentIntentID = intent.ID
		clientSecret = intent.ClientSecret
		return nil
	})
	if txErr != nil {
		log.Println("Failed to initiate purchase:", txErr)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "No se pudo iniciar el pago", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Compra iniciada", fiber.Map{
		"purchase":      purchase,
		"client_secret": clientSecret,
	})
}

// ListPurchases returns all purchases, admin only, paginated.
func ListPurchases(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionReadList, &policy.Resource{Kind: policy.KindPurchase})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := db.Model(&models.Purchase{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if userID := c.QueryInt("user_id", 0); userID > 0 {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch purchases!", nil)
	}

	var purchases []models.Purchase
	if err := query.Order("id DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&purchases).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch purchases!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listado de compras", fiber.Map{
		"purchases": purchases,
		"total":     total,
		"page":      page,
		"per_page":  perPage,
	})
}

// ListOwnPurchases returns the caller's purchases.
func ListOwnPurchases(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionRead, &policy.Resource{
		Kind:         policy.KindPurchase,
		TargetUserID: claims.UserID,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	db := database.Database.Db

	var purchases []models.Purchase
	if err := db.Where("user_id = ?", claims.UserID).Order("id DESC").Find(&purchases).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch purchases!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tus compras", purchases)
}

// GetPurchase returns one purchase to its buyer, the owning teacher or an
// admin.
func GetPurchase(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	purchaseID := c.Locals("purchaseID").(uint)

	db := database.Database.Db

	var purchase models.Purchase
	if err := db.First(&purchase, purchaseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Compra %d no encontrada", purchaseID), nil)
	}

	var course models.Course
	if err := db.First(&course, purchase.CourseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch purchase!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionRead, &policy.Resource{
		Kind:         policy.KindPurchase,
		OwnerID:      course.CreatedBy,
		TargetUserID: purchase.UserID,
	})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Detalles de la compra %d", purchaseID), purchase)
}

// AdminUpdatePurchase is the manual escape hatch for correcting a purchase
// whose provider state diverged. Moving to paid goes through the same
// idempotent path as the webhook so points are never doubled.
func AdminUpdatePurchase(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionUpdate, &policy.Resource{Kind: policy.KindPurchase})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	purchaseID := c.Locals("purchaseID").(uint)

	reqData, ok := c.Locals("validatedPurchaseUpdate").(*struct {
		Status string `json:"status"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var purchase models.Purchase
	if err := db.First(&purchase, purchaseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Compra %d no encontrada", purchaseID), nil)
	}

	switch reqData.Status {
	case models.PurchasePaid:
		if err := utils.MarkPurchasePaid(db, &purchase); err != nil {
			log.Println("Manual paid transition failed:", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update purchase!", nil)
		}
	default:
		if err := db.Model(&purchase).Update("status", reqData.Status).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update purchase!", nil)
		}
		purchase.Status = reqData.Status
	}

	log.Printf("[PURCHASE] Admin %d set purchase %d to %s", claims.UserID, purchase.ID, purchase.Status)
	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Compra %d actualizada", purchaseID), purchase)
}

// DeletePurchase removes a purchase row. Admin only.
func DeletePurchase(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	decision := policy.Authorize(claims, policy.ActionDelete, &policy.Resource{Kind: policy.KindPurchase})
	if !decision.Allow {
		return middleware.PolicyDenied(c, decision)
	}

	purchaseID := c.Locals("purchaseID").(uint)

	db := database.Database.Db

	var purchase models.Purchase
	if err := db.First(&purchase, purchaseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, fmt.Sprintf("Compra %d no encontrada", purchaseID), nil)
	}

	if err := db.Delete(&purchase).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete purchase!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Compra %d eliminada", purchaseID), nil)
}

// StripeWebhook reconciles provider events with local purchase state. When a
// webhook secret is configured the signature is enforced; without one the
// payload is trusted as-is (local development). Processing errors are logged
// and answered with 200 so the provider does not retry forever; only a bad
// signature gets a 400.
func StripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	var event stripe.Event
	if config.AppConfig.StripeWebhookSecret != "" {
		verified, err := utils.VerifyWebhookSignature(payload, c.Get("Stripe-Signature"))
		if err != nil {
			log.Println("[WEBHOOK] Signature verification failed:", err)
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid signature!", nil)
		}
		event = verified
	} else {
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("[WEBHOOK] Failed to parse event payload:", err)
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid payload!", nil)
		}
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
	default:
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Event ignored", nil)
	}

	if event.Data == nil {
		log.Println("[WEBHOOK] Event has no data object")
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Event ignored", nil)
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		log.Println("[WEBHOOK] Failed to parse payment intent:", err)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Event ignored", nil)
	}

	db := database.Database.Db

	purchase, err := findPurchaseForIntent(db, &intent)
	if err != nil {
		log.Printf("[WEBHOOK] No purchase found for intent %s: %v", intent.ID, err)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Purchase not found", nil)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		if err := utils.MarkPurchasePaid(db, purchase); err != nil {
			log.Printf("[WEBHOOK] Failed to mark purchase %d paid: %v", purchase.ID, err)
		}
	case "payment_intent.payment_failed", "payment_intent.canceled":
		if err := utils.CancelPurchase(db, purchase); err != nil {
			log.Printf("[WEBHOOK] Failed to cancel purchase %d: %v", purchase.ID, err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Event processed", nil)
}

// findPurchaseForIntent locates the purchase by the stored intent id, falling
// back to the purchase_id carried in the intent metadata for intents created
// before the local reference was persisted.
func findPurchaseForIntent(db *gorm.DB, intent *stripe.PaymentIntent) (*models.Purchase, error) {
	var purchase models.Purchase
	err := db.Where("payment_intent_id = ?", intent.ID).First(&purchase).Error
	if err == nil {
		return &purchase, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	rawID, ok := intent.Metadata["purchase_id"]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	if err := db.Where("id = ?", rawID).First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}
