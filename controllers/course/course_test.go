package courseController_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"lse/config"
	"lse/database"
	"lse/middleware"
	"lse/models"
	courseRoutes "lse/routers/courseRoutes"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTKey:    "testsecret",
		SaltRound: 4,
		TrialDays: 7,
	}

	db, err := gorm.Open(sqlite.Open("file:coursetest?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	t.Cleanup(func() {
		for _, table := range []string{"multimedia_resources", "user_progresses", "lessons", "course_modules", "courses", "users"} {
			db.Exec("DELETE FROM " + table)
		}
	})

	app := fiber.New()
	courseRoutes.SetupCourseRoutes(app)
	return app
}

func timeInDays(d int) time.Time {
	return time.Now().AddDate(0, 0, d)
}

func makeUser(t *testing.T, email, role string, isAdmin bool) (*models.User, string) {
	t.Helper()

	user := models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "irrelevant",
		Role:      role,
		IsAdmin:   isAdmin,
		IsActive:  true,
	}
	if err := database.Database.Db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	token, err := middleware.GenerateJWT(&user)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return &user, token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp.StatusCode, parsed
}

func TestCreateCourse(t *testing.T) {
	app := setupApp(t)
	_, teacherToken := makeUser(t, "teacher-cc@test.com", models.RoleTeacher, false)
	_, studentToken := makeUser(t, "student-cc@test.com", models.RoleStudent, false)

	payload := map[string]interface{}{
		"title":  "LSE Nivel A1",
		"price":  49.99,
		"points": 100,
	}

	code, body := doJSON(t, app, "POST", "/courses", teacherToken, payload)
	assert.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, "Curso creado", body["message"])

	code, body = doJSON(t, app, "POST", "/courses", teacherToken, payload)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Ya existe un curso con este título", body["message"])

	code, _ = doJSON(t, app, "POST", "/courses", studentToken, payload)
	assert.Equal(t, fiber.StatusForbidden, code)
}

func TestCreateCourseAsDraft(t *testing.T) {
	app := setupApp(t)
	_, teacherToken := makeUser(t, "teacher-draft@test.com", models.RoleTeacher, false)

	code, _ := doJSON(t, app, "POST", "/courses", teacherToken, map[string]interface{}{
		"title":     "Curso en preparación",
		"price":     25.0,
		"points":    40,
		"is_active": false,
	})
	assert.Equal(t, fiber.StatusCreated, code)

	// The draft flag has to reach the database as stored, not as a column
	// default.
	var course models.Course
	assert.NoError(t, database.Database.Db.Where("title = ?", "Curso en preparación").First(&course).Error)
	assert.False(t, course.IsActive)

	// Omitting the flag still publishes.
	code, _ = doJSON(t, app, "POST", "/courses", teacherToken, map[string]interface{}{
		"title":  "Curso publicado",
		"price":  25.0,
		"points": 40,
	})
	assert.Equal(t, fiber.StatusCreated, code)

	var published models.Course
	assert.NoError(t, database.Database.Db.Where("title = ?", "Curso publicado").First(&published).Error)
	assert.True(t, published.IsActive)
}

func TestUpdateCourseOwnership(t *testing.T) {
	app := setupApp(t)
	owner, ownerToken := makeUser(t, "owner-uc@test.com", models.RoleTeacher, false)
	_, otherToken := makeUser(t, "other-uc@test.com", models.RoleTeacher, false)
	_, adminToken := makeUser(t, "admin-uc@test.com", models.RoleTeacher, true)

	course := models.Course{Title: "Curso propiedad", Price: 10, Points: 50, IsActive: true, CreatedBy: owner.ID}
	database.Database.Db.Create(&course)

	path := fmt.Sprintf("/courses/%d", course.ID)

	code, body := doJSON(t, app, "PUT", path, otherToken, map[string]interface{}{"title": "Robado"})
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "No puedes actualizar cursos de otros profesores", body["message"])

	code, _ = doJSON(t, app, "PUT", path, ownerToken, map[string]interface{}{"title": "Actualizado"})
	assert.Equal(t, fiber.StatusOK, code)

	// Admin bypasses ownership.
	code, _ = doJSON(t, app, "PUT", path, adminToken, map[string]interface{}{"title": "Admin edit"})
	assert.Equal(t, fiber.StatusOK, code)
}

func TestModuleOrderConflict(t *testing.T) {
	app := setupApp(t)
	owner, ownerToken := makeUser(t, "owner-mo@test.com", models.RoleTeacher, false)

	course := models.Course{Title: "Curso con módulos", Price: 0, Points: 10, IsActive: true, CreatedBy: owner.ID}
	database.Database.Db.Create(&course)

	payload := map[string]interface{}{
		"title":     "Módulo uno",
		"order":     1,
		"points":    10,
		"course_id": course.ID,
	}

	code, _ := doJSON(t, app, "POST", "/modules", ownerToken, payload)
	assert.Equal(t, fiber.StatusCreated, code)

	payload["title"] = "Módulo dos"
	code, body := doJSON(t, app, "POST", "/modules", ownerToken, payload)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Ya existe un módulo con el orden 1 en este curso", body["message"])

	// A different slot in the same course is fine.
	payload["order"] = 2
	code, _ = doJSON(t, app, "POST", "/modules", ownerToken, payload)
	assert.Equal(t, fiber.StatusCreated, code)
}

func TestDemoCatalogGating(t *testing.T) {
	app := setupApp(t)
	owner, _ := makeUser(t, "owner-dg@test.com", models.RoleTeacher, false)

	demo := models.User{
		FirstName: "Demo", LastName: "User", Email: "demo-dg@test.com",
		Password: "irrelevant", Role: models.RoleDemo, IsActive: true,
	}
	trialEnd := timeInDays(2)
	demo.TrialEndDate = &trialEnd
	database.Database.Db.Create(&demo)
	demoToken, err := middleware.GenerateJWT(&demo)
	assert.NoError(t, err)

	active := models.Course{Title: "Curso activo", IsActive: true, CreatedBy: owner.ID}
	inactive := models.Course{Title: "Curso borrador", IsActive: false, CreatedBy: owner.ID}
	database.Database.Db.Create(&active)
	database.Database.Db.Create(&inactive)

	module := models.CourseModule{CourseID: active.ID, Title: "M1", Order: 1}
	database.Database.Db.Create(&module)
	visible := models.Lesson{ModuleID: module.ID, Title: "Abierta", Order: 1, TrialVisible: true}
	hidden := models.Lesson{ModuleID: module.ID, Title: "Cerrada", Order: 2, TrialVisible: false}
	database.Database.Db.Create(&visible)
	database.Database.Db.Create(&hidden)

	code, body := doJSON(t, app, "GET", "/courses", demoToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	courses := body["data"].([]interface{})
	assert.Len(t, courses, 1)

	code, body = doJSON(t, app, "GET", "/lessons", demoToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	lessons := body["data"].([]interface{})
	assert.Len(t, lessons, 1)

	code, _ = doJSON(t, app, "GET", fmt.Sprintf("/lessons/%d", hidden.ID), demoToken, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = doJSON(t, app, "GET", fmt.Sprintf("/lessons/%d", visible.ID), demoToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestDeleteCourseCascades(t *testing.T) {
	app := setupApp(t)
	owner, ownerToken := makeUser(t, "owner-dc@test.com", models.RoleTeacher, false)

	course := models.Course{Title: "Curso en cascada", IsActive: true, CreatedBy: owner.ID}
	database.Database.Db.Create(&course)
	module := models.CourseModule{CourseID: course.ID, Title: "M1", Order: 1}
	database.Database.Db.Create(&module)
	lesson := models.Lesson{ModuleID: module.ID, Title: "L1", Order: 1}
	database.Database.Db.Create(&lesson)
	resource := models.MultimediaResource{LessonID: lesson.ID, Type: models.ResourceTypeVideo, URL: "https://example.com/v.mp4", Order: 1}
	database.Database.Db.Create(&resource)

	code, _ := doJSON(t, app, "DELETE", fmt.Sprintf("/courses/%d", course.ID), ownerToken, nil)
	assert.Equal(t, fiber.StatusOK, code)

	var count int64
	database.Database.Db.Model(&models.Lesson{}).Where("module_id = ?", module.ID).Count(&count)
	assert.Zero(t, count)
	database.Database.Db.Model(&models.MultimediaResource{}).Where("lesson_id = ?", lesson.ID).Count(&count)
	assert.Zero(t, count)
}
