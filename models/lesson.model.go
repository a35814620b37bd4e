package models

import "gorm.io/gorm"

type Lesson struct {
	gorm.Model
	ModuleID          uint   `json:"module_id" gorm:"not null;uniqueIndex:idx_lessons_module_order"`
	Title             string `json:"title"`
	Content           string `json:"content"`
	LearningObjective string `json:"learning_objective"`
	SignsTaught       string `json:"signs_taught"`
	Order             int    `json:"order" gorm:"column:order_index;uniqueIndex:idx_lessons_module_order"`
	TrialVisible      bool   `json:"trial_visible" gorm:"default:false"` // demo accounts only see these
}
