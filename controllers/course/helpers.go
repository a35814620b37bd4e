package courseController

import (
	"lse/models"

	"gorm.io/gorm"
)

// moduleWithCourse loads a module together with its owning course.
func moduleWithCourse(db *gorm.DB, moduleID uint) (*models.CourseModule, *models.Course, error) {
	var module models.CourseModule
	if err := db.Where("id = ?", moduleID).First(&module).Error; err != nil {
		return nil, nil, err
	}
	var course models.Course
	if err := db.Where("id = ?", module.CourseID).First(&course).Error; err != nil {
		return nil, nil, err
	}
	return &module, &course, nil
}

// lessonWithCourse walks lesson -> module -> course for ownership checks.
func lessonWithCourse(db *gorm.DB, lessonID uint) (*models.Lesson, *models.Course, error) {
	var lesson models.Lesson
	if err := db.Where("id = ?", lessonID).First(&lesson).Error; err != nil {
		return nil, nil, err
	}
	_, course, err := moduleWithCourse(db, lesson.ModuleID)
	if err != nil {
		return nil, nil, err
	}
	return &lesson, course, nil
}

// cascadeDeleteLessons removes lessons under the given module ids along with
// their multimedia resources and progress rows.
func cascadeDeleteLessons(tx *gorm.DB, moduleIDs []uint) error {
	if len(moduleIDs) == 0 {
		return nil
	}

	var lessonIDs []uint
	if err := tx.Model(&models.Lesson{}).Where("module_id IN ?", moduleIDs).
		Pluck("id", &lessonIDs).Error; err != nil {
		return err
	}

	if len(lessonIDs) > 0 {
		if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&models.MultimediaResource{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&models.UserProgress{}).Error; err != nil {
			return err
		}
	}

	return tx.Where("module_id IN ?", moduleIDs).Delete(&models.Lesson{}).Error
}
