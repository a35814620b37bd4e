package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress tracks one (user, lesson) pair. A second insert for the same
// pair is a conflict, not an upsert.
type UserProgress struct {
	gorm.Model
	UserID         uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	LessonID       uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	Completed      bool       `json:"completed" gorm:"not null"`
	StartDate      *time.Time `json:"start_date"`
	CompletionDate *time.Time `json:"completion_date"` // set iff completed
}
