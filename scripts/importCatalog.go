package main

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"strings"

	"lse/config"
	"lse/database"
	"lse/models"
)

// Imports a course catalog from Catalog.csv. Expected columns:
// course_title, course_price, course_points, module_title, module_order,
// lesson_title, lesson_order, trial_visible. Rows for the same course and
// module reuse the already-created parents. The creating teacher's user id
// comes from CATALOG_OWNER_ID.
func main() {
	config.LoadConfig()
	database.ConnectDb()

	ownerID, err := strconv.ParseUint(os.Getenv("CATALOG_OWNER_ID"), 10, 32)
	if err != nil || ownerID < 1 {
		log.Fatal("CATALOG_OWNER_ID must be set to the owning teacher's user id")
	}

	file, err := os.Open("Catalog.csv")
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	header := records[0]
	log.Printf("CSV Headers: %v", header)
	log.Printf("Total rows to import: %d", len(records)-1)

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.TrimSpace(h)] = i
	}
	field := func(row []string, name string) string {
		idx, ok := headerIndex[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	db := database.Database.Db

	inserted := 0
	skipped := 0

	courseCache := make(map[string]uint)
	moduleCache := make(map[string]uint)

	for i, row := range records[1:] {
		if i%100 == 0 && i > 0 {
			log.Printf("Processing row %d...", i+1)
		}

		courseTitle := field(row, "course_title")
		moduleTitle := field(row, "module_title")
		lessonTitle := field(row, "lesson_title")
		if courseTitle == "" || moduleTitle == "" || lessonTitle == "" {
			skipped++
			continue
		}

		courseID, ok := courseCache[courseTitle]
		if !ok {
			var course models.Course
			err := db.Where("title = ?", courseTitle).First(&course).Error
			if err != nil {
				price, _ := strconv.ParseFloat(field(row, "course_price"), 64)
				points, _ := strconv.Atoi(field(row, "course_points"))
				course = models.Course{
					Title:       courseTitle,
					Description: "info no disponible",
					Price:       price,
					Points:      points,
					IsActive:    true,
					CreatedBy:   uint(ownerID),
				}
				if err := db.Create(&course).Error; err != nil {
					log.Printf("Row %d: failed to create course %q: %v", i+1, courseTitle, err)
					skipped++
					continue
				}
				inserted++
			}
			courseID = course.ID
			courseCache[courseTitle] = courseID
		}

		moduleKey := courseTitle + "/" + moduleTitle
		moduleID, ok := moduleCache[moduleKey]
		if !ok {
			var module models.CourseModule
			err := db.Where("course_id = ? AND title = ?", courseID, moduleTitle).First(&module).Error
			if err != nil {
				order, _ := strconv.Atoi(field(row, "module_order"))
				module = models.CourseModule{
					CourseID: courseID,
					Title:    moduleTitle,
					Order:    order,
				}
				if err := db.Create(&module).Error; err != nil {
					log.Printf("Row %d: failed to create module %q: %v", i+1, moduleTitle, err)
					skipped++
					continue
				}
				inserted++
			}
			moduleID = module.ID
			moduleCache[moduleKey] = moduleID
		}

		var lesson models.Lesson
		if err := db.Where("module_id = ? AND title = ?", moduleID, lessonTitle).First(&lesson).Error; err == nil {
			skipped++
			continue
		}

		order, _ := strconv.Atoi(field(row, "lesson_order"))
		trialVisible := strings.EqualFold(field(row, "trial_visible"), "true")
		lesson = models.Lesson{
			ModuleID:     moduleID,
			Title:        lessonTitle,
			Order:        order,
			TrialVisible: trialVisible,
		}
		if err := db.Create(&lesson).Error; err != nil {
			log.Printf("Row %d: failed to create lesson %q: %v", i+1, lessonTitle, err)
			skipped++
			continue
		}
		inserted++
	}

	log.Printf("Import finished. Inserted: %d, Skipped: %d", inserted, skipped)
}
