package models

import "gorm.io/gorm"

// CourseModule is a section within a course. Order must be unique per course;
// the composite index is the final guard against concurrent creators.
type CourseModule struct {
	gorm.Model
	CourseID uint   `json:"course_id" gorm:"not null;uniqueIndex:idx_modules_course_order"`
	Title    string `json:"title" gorm:"not null"`
	Order    int    `json:"order" gorm:"column:order_index;uniqueIndex:idx_modules_course_order"`
	Points   int    `json:"points" gorm:"default:0"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}
