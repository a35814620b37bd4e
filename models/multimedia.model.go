package models

import "gorm.io/gorm"

const (
	ResourceTypeVideo     = "video"
	ResourceTypeImage     = "image"
	ResourceTypeGif       = "gif"
	ResourceTypeAnimation = "animation"
	ResourceTypeDocument  = "document"
)

// MultimediaResource is a hosted asset attached to a lesson. URL points at the
// media host (Cloudinary); PublicID is kept so the remote asset can be
// destroyed when the row is removed.
type MultimediaResource struct {
	gorm.Model
	LessonID        uint   `json:"lesson_id" gorm:"not null;uniqueIndex:idx_resources_lesson_order"`
	Type            string `json:"type" gorm:"not null"` // video, image, gif, animation, document
	URL             string `json:"url" gorm:"not null"`
	PublicID        string `json:"public_id"`
	DurationSeconds int    `json:"duration_seconds"`
	Description     string `json:"description"`
	Order           int    `json:"order" gorm:"column:order_index;uniqueIndex:idx_resources_lesson_order"`
}
