package models

import (
	"time"

	"gorm.io/gorm"
)

type Achievement struct {
	gorm.Model
	Name           string `json:"name" gorm:"not null"`
	Description    string `json:"description" gorm:"not null"`
	RequiredPoints int    `json:"required_points" gorm:"not null"`
	Icon           string `json:"icon"`
}

// UserAchievement is an explicit assignment created by an admin or teacher.
// Unlocking is not automatic.
type UserAchievement struct {
	gorm.Model
	UserID        uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	AchievementID uint      `json:"achievement_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	ObtainedDate  time.Time `json:"obtained_date"`
}
