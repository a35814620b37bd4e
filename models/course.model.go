package models

import "gorm.io/gorm"

// Course is the top of the catalog tree. Each course belongs to the teacher
// that created it; only that teacher (or an admin) may mutate its subtree.
type Course struct {
	gorm.Model
	Title       string  `json:"title" gorm:"uniqueIndex;not null"`
	Description string  `json:"description"`
	Price       float64 `json:"price" gorm:"not null"` // 0 = free course
	Points      int     `json:"points" gorm:"default:0"`
	IsActive    bool    `json:"is_active"` // no column default: false must survive the insert
	CreatedBy   uint    `json:"created_by" gorm:"index"`
}
