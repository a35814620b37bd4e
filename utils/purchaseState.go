package utils

import (
	"fmt"
	"log"

	"lse/models"

	"gorm.io/gorm"
)

// MarkPurchasePaid transitions a pending purchase to paid, stamps the start
// date and awards the course points exactly once. Safe to call repeatedly for
// the same purchase: a purchase already in a terminal state is left untouched,
// and the points ledger's unique purchase key swallows racing awards. Used by
// both the webhook handler and the stale-pending sweeper.
func MarkPurchasePaid(db *gorm.DB, purchase *models.Purchase) error {
	if purchase.Status == models.PurchasePaid || purchase.Status == models.PurchaseCancelled {
		return nil
	}

	var course models.Course
	if err := db.Where("id = ?", purchase.CourseID).First(&course).Error; err != nil {
		return fmt.Errorf("course %d not found for purchase %d: %v", purchase.CourseID, purchase.ID, err)
	}

	if err := db.Model(purchase).Updates(map[string]interface{}{
		"status":     models.PurchasePaid,
		"start_date": gorm.Expr("CURRENT_TIMESTAMP"),
	}).Error; err != nil {
		return err
	}
	purchase.Status = models.PurchasePaid

	if course.Points > 0 {
		// Idempotence guard: skip when a ledger entry already references
		// this purchase, then rely on the unique index for the race window.
		var existing models.UserPoints
		err := db.Where("purchase_id = ?", purchase.ID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			purchaseID := purchase.ID
			desc := "Compra del curso " + course.Title
			if _, err := AwardPoints(db, purchase.UserID, course.Points, models.PointsTypeCourse, desc, &purchaseID); err != nil {
				log.Printf("[PURCHASE] Failed to award points for purchase %d: %v", purchase.ID, err)
			}
		} else if err != nil {
			log.Printf("[PURCHASE] Ledger lookup failed for purchase %d: %v", purchase.ID, err)
		}
	}

	var user models.User
	if err := db.Where("id = ?", purchase.UserID).First(&user).Error; err == nil {
		SendPurchaseConfirmationEmail(user.Email, user.FirstName, course.Title, course.Points)
	}

	return nil
}

// CancelPurchase moves a pending purchase to cancelled. Terminal states stay.
func CancelPurchase(db *gorm.DB, purchase *models.Purchase) error {
	if purchase.Status == models.PurchasePaid || purchase.Status == models.PurchaseCancelled {
		return nil
	}
	if err := db.Model(purchase).Update("status", models.PurchaseCancelled).Error; err != nil {
		return err
	}
	purchase.Status = models.PurchaseCancelled
	return nil
}
