package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PurchasePending   = "pending"
	PurchasePaid      = "paid"
	PurchaseCancelled = "cancelled"
)

// Purchase links a user to a course. Status only moves pending->paid or
// pending->cancelled; paid and cancelled are terminal except for the admin
// manual-correction endpoint. At most one paid purchase per (user, course),
// enforced by a partial unique index created in database.ConnectDb.
type Purchase struct {
	gorm.Model
	UserID          uint       `json:"user_id" gorm:"index;not null"`
	CourseID        uint       `json:"course_id" gorm:"index;not null"`
	Price           float64    `json:"price"`
	Total           float64    `json:"total"`
	Status          string     `json:"status" gorm:"default:'pending'"`
	PurchaseDate    time.Time  `json:"purchase_date"`
	StartDate       *time.Time `json:"start_date"` // set when the purchase becomes paid
	PaymentIntentID string     `json:"payment_intent_id" gorm:"index"`
}
