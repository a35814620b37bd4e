package utils

import (
	"log"
	"time"

	"lse/database"
	"lse/models"

	"github.com/robfig/cron/v3"
)

// InitializeReconciler sets up the nightly maintenance jobs: repairing
// drifted point totals and recovering pending purchases whose webhook never
// arrived.
func InitializeReconciler() {
	log.Println("[RECONCILER] Initializing reconciliation scheduler...")

	c := cron.New()

	// Run daily at 4 AM, well outside peak hours
	c.AddFunc("0 4 * * *", func() {
		log.Println("[RECONCILER] Running daily reconciliation...")
		ReconcilePointTotals()
		SweepPendingPurchases()
	})

	c.Start()
	log.Println("[RECONCILER] Reconciliation scheduler started - runs daily at 4 AM")
}

// ReconcilePointTotals recomputes every user's current_points from the
// ledger. The running total is updated additively at write time; this job
// repairs drift from crashes between ledger insert and counter update.
func ReconcilePointTotals() {
	db := database.Database.Db

	var users []models.User
	if err := db.Where("is_deleted = false").Find(&users).Error; err != nil {
		log.Printf("[RECONCILER] Error fetching users: %v", err)
		return
	}

	repaired := 0
	for _, user := range users {
		total, err := LedgerTotal(db, user.ID)
		if err != nil {
			log.Printf("[RECONCILER] Error summing ledger for user %d: %v", user.ID, err)
			continue
		}
		if total != user.CurrentPoints {
			log.Printf("[RECONCILER] User %d points drift: counter=%d ledger=%d", user.ID, user.CurrentPoints, total)
			if err := db.Model(&models.User{}).Where("id = ?", user.ID).
				Update("current_points", total).Error; err != nil {
				log.Printf("[RECONCILER] Error repairing user %d: %v", user.ID, err)
				continue
			}
			repaired++
		}
	}

	log.Printf("[RECONCILER] Point totals checked for %d users, repaired %d", len(users), repaired)
}

// SweepPendingPurchases re-checks pending purchases older than an hour
// against Stripe. Webhooks are at-least-once but not guaranteed to reach us;
// this closes the gap for intents that settled while we were unreachable.
func SweepPendingPurchases() {
	db := database.Database.Db
	cutoff := time.Now().Add(-1 * time.Hour)

	var pending []models.Purchase
	if err := db.
		Where("status = ? AND payment_intent_id <> '' AND created_at < ?", models.PurchasePending, cutoff).
		Find(&pending).Error; err != nil {
		log.Printf("[RECONCILER] Error fetching pending purchases: %v", err)
		return
	}

	log.Printf("[RECONCILER] Found %d stale pending purchases", len(pending))

	for i := range pending {
		purchase := &pending[i]
		intent, err := RetrievePaymentIntent(purchase.PaymentIntentID)
		if err != nil {
			log.Printf("[RECONCILER] Could not retrieve intent %s for purchase %d: %v", purchase.PaymentIntentID, purchase.ID, err)
			continue
		}

		switch intent.Status {
		case "succeeded":
			if err := MarkPurchasePaid(db, purchase); err != nil {
				log.Printf("[RECONCILER] Error marking purchase %d paid: %v", purchase.ID, err)
			} else {
				log.Printf("[RECONCILER] Recovered paid purchase %d from intent %s", purchase.ID, purchase.PaymentIntentID)
			}
		case "canceled":
			if err := CancelPurchase(db, purchase); err != nil {
				log.Printf("[RECONCILER] Error cancelling purchase %d: %v", purchase.ID, err)
			} else {
				log.Printf("[RECONCILER] Cancelled purchase %d from intent %s", purchase.ID, purchase.PaymentIntentID)
			}
		}
	}
}
