package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleDemo    = "demo"
)

type User struct {
	gorm.Model
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email" gorm:"uniqueIndex;not null"`
	ArchivedEmail    string     `json:"-"` // original email kept after account deletion
	Password         string     `json:"-" gorm:"not null"`
	Role             string     `json:"role" gorm:"default:'student'"` // student, teacher, demo
	IsAdmin          bool       `json:"is_admin" gorm:"default:false"`
	IsActive         bool       `json:"is_active"` // no column default: false must survive the insert
	CurrentPoints    int        `json:"current_points" gorm:"default:0"`
	RegistrationDate time.Time  `json:"registration_date"`
	TrialEndDate     *time.Time `json:"trial_end_date"`
	LastAccess       *time.Time `json:"last_access"`
	IsDeleted        bool       `json:"-" gorm:"default:false"`
}
