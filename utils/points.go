package utils

import (
	"time"

	"lse/models"

	"gorm.io/gorm"
)

// AwardPoints appends a ledger entry and bumps the user's denormalized total
// in one transaction. The total is updated with an additive increment, never a
// read-modify-write, so concurrent awards cannot lose updates. purchaseID is
// optional; when set, the ledger's unique index makes the award idempotent per
// purchase.
func AwardPoints(db *gorm.DB, userID uint, points int, pointsType, description string, purchaseID *uint) (*models.UserPoints, error) {
	entry := models.UserPoints{
		UserID:           userID,
		Points:           points,
		Type:             pointsType,
		EventDescription: description,
		Date:             time.Now(),
		PurchaseID:       purchaseID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("current_points", gorm.Expr("current_points + ?", points)).Error
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// LedgerTotal sums a user's ledger entries. Must always equal
// User.CurrentPoints; the nightly reconciler repairs any drift.
func LedgerTotal(db *gorm.DB, userID uint) (int, error) {
	var total int
	err := db.Model(&models.UserPoints{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").Scan(&total).Error
	return total, err
}
