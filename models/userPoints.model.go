package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PointsTypeLesson = "lesson"
	PointsTypeModule = "module"
	PointsTypeCourse = "course"
)

// UserPoints is an append-only ledger entry. The sum of a user's entries must
// always equal User.CurrentPoints. PurchaseID doubles as an idempotency key:
// the unique index keeps a redelivered payment webhook from awarding twice.
type UserPoints struct {
	gorm.Model
	UserID           uint      `json:"user_id" gorm:"index;not null"`
	Points           int       `json:"points" gorm:"not null"`
	Type             string    `json:"type" gorm:"default:'course'"` // lesson, module, course
	EventDescription string    `json:"event_description"`
	Date             time.Time `json:"date"`
	PurchaseID       *uint     `json:"purchase_id" gorm:"uniqueIndex"`
}
