package progressController_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"lse/config"
	"lse/database"
	"lse/middleware"
	"lse/models"
	progressRoutes "lse/routers/progressRoutes"

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

	db, err := gorm.Open(sqlite.Open("file:progresstest?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	t.Cleanup(func() {
		for _, table := range []string{"user_points", "user_progresses", "lessons", "course_modules", "courses", "users"} {
			db.Exec("DELETE FROM " + table)
		}
	})

	app := fiber.New()
	progressRoutes.SetupProgressRoutes(app)
	return app
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

func makeCourseWithLessons(t *testing.T, title string, lessonCount int) (*models.Course, []models.Lesson) {
	t.Helper()

	db := database.Database.Db

	course := models.Course{Title: title, IsActive: true, CreatedBy: 1}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	module := models.CourseModule{CourseID: course.ID, Title: "M1", Order: 1}
	if err := db.Create(&module).Error; err != nil {
		t.Fatalf("failed to create module: %v", err)
	}

	lessons := make([]models.Lesson, 0, lessonCount)
	for i := 1; i <= lessonCount; i++ {
		lesson := models.Lesson{ModuleID: module.ID, Title: fmt.Sprintf("L%d", i), Order: i, TrialVisible: true}
		if err := db.Create(&lesson).Error; err != nil {
			t.Fatalf("failed to create lesson: %v", err)
		}
		lessons = append(lessons, lesson)
	}
	return &course, lessons
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

func TestRecordProgressDuplicate(t *testing.T) {
	app := setupApp(t)
	_, studentToken := makeUser(t, "dup-student@test.com", models.RoleStudent, false)
	_, lessons := makeCourseWithLessons(t, "Curso duplicado", 1)

	payload := map[string]interface{}{
		"lesson_id": lessons[0].ID,
		"completed": false,
	}

	code, _ := doJSON(t, app, "POST", "/progress", studentToken, payload)
	assert.Equal(t, fiber.StatusCreated, code)

	code, body := doJSON(t, app, "POST", "/progress", studentToken, payload)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Ya existe un registro de progreso para esta lección", body["message"])
}

func TestRecordProgressForOtherUser(t *testing.T) {
	app := setupApp(t)
	other, _ := makeUser(t, "other-prog@test.com", models.RoleStudent, false)
	_, studentToken := makeUser(t, "self-prog@test.com", models.RoleStudent, false)
	_, teacherToken := makeUser(t, "teacher-prog@test.com", models.RoleTeacher, false)
	_, lessons := makeCourseWithLessons(t, "Curso ajeno", 1)

	payload := map[string]interface{}{
		"user_id":   other.ID,
		"lesson_id": lessons[0].ID,
		"completed": true,
	}

	code, body := doJSON(t, app, "POST", "/progress", studentToken, payload)
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "No autorizado para crear progreso de otro usuario", body["message"])

	code, _ = doJSON(t, app, "POST", "/progress", teacherToken, payload)
	assert.Equal(t, fiber.StatusCreated, code)
}

func TestListProgressRestrictedToOwn(t *testing.T) {
	app := setupApp(t)
	student, studentToken := makeUser(t, "list-student@test.com", models.RoleStudent, false)
	other, _ := makeUser(t, "list-other@test.com", models.RoleStudent, false)
	_, teacherToken := makeUser(t, "list-teacher@test.com", models.RoleTeacher, false)
	_, lessons := makeCourseWithLessons(t, "Curso listado", 2)

	db := database.Database.Db
	db.Create(&models.UserProgress{UserID: student.ID, LessonID: lessons[0].ID, Completed: true})
	db.Create(&models.UserProgress{UserID: other.ID, LessonID: lessons[0].ID, Completed: true})
	db.Create(&models.UserProgress{UserID: other.ID, LessonID: lessons[1].ID, Completed: false})

	// Students only ever see their own rows, even when asking for another
	// user's.
	code, body := doJSON(t, app, "GET", fmt.Sprintf("/progress?user_id=%d", other.ID), studentToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"].([]interface{}), 1)

	code, body = doJSON(t, app, "GET", fmt.Sprintf("/progress?user_id=%d", other.ID), teacherToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"].([]interface{}), 2)
}

func TestCourseProgressPercentage(t *testing.T) {
	app := setupApp(t)
	student, studentToken := makeUser(t, "pct-student@test.com", models.RoleStudent, false)
	course, lessons := makeCourseWithLessons(t, "Curso porcentaje", 4)

	db := database.Database.Db
	db.Create(&models.UserProgress{UserID: student.ID, LessonID: lessons[0].ID, Completed: true})
	db.Create(&models.UserProgress{UserID: student.ID, LessonID: lessons[1].ID, Completed: true})
	db.Create(&models.UserProgress{UserID: student.ID, LessonID: lessons[2].ID, Completed: false})

	code, body := doJSON(t, app, "GET", fmt.Sprintf("/progress/course/%d", course.ID), studentToken, nil)
	assert.Equal(t, fiber.StatusOK, code)

	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["completed"])
	assert.EqualValues(t, 4, data["total"])
	assert.InDelta(t, 50.0, data["percentage"].(float64), 0.01)
}

func TestCourseProgressEmptyCourse(t *testing.T) {
	app := setupApp(t)
	_, studentToken := makeUser(t, "empty-student@test.com", models.RoleStudent, false)
	course, _ := makeCourseWithLessons(t, "Curso vacío", 0)

	code, body := doJSON(t, app, "GET", fmt.Sprintf("/progress/course/%d", course.ID), studentToken, nil)
	assert.Equal(t, fiber.StatusOK, code)

	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 0, data["total"])
	assert.InDelta(t, 0.0, data["percentage"].(float64), 0.01)
}

func TestOverallProgressPercentage(t *testing.T) {
	app := setupApp(t)
	student, studentToken := makeUser(t, "ovr-student@test.com", models.RoleStudent, false)
	_, lessons := makeCourseWithLessons(t, "Curso global", 10)

	// No records yet reports 0%, not a division error.
	code, body := doJSON(t, app, "GET", "/progress/percentage", studentToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 0, data["total"])
	assert.InDelta(t, 0.0, data["percentage"].(float64), 0.01)

	db := database.Database.Db
	db.Create(&models.UserProgress{UserID: student.ID, LessonID: lessons[0].ID, Completed: true})

	// The denominator is the records the student has, not the catalog: one
	// completed record out of one is 100% even with nine lessons untouched.
	code, body = doJSON(t, app, "GET", "/progress/percentage", studentToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	data = body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["completed"])
	assert.EqualValues(t, 1, data["total"])
	assert.InDelta(t, 100.0, data["percentage"].(float64), 0.01)

	db.Create(&models.UserProgress{UserID: student.ID, LessonID: lessons[1].ID, Completed: false})

	code, body = doJSON(t, app, "GET", "/progress/percentage", studentToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	data = body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["completed"])
	assert.EqualValues(t, 2, data["total"])
	assert.InDelta(t, 50.0, data["percentage"].(float64), 0.01)
}

func TestOverallProgressOtherUser(t *testing.T) {
	app := setupApp(t)
	student, _ := makeUser(t, "ovr-target@test.com", models.RoleStudent, false)
	_, otherToken := makeUser(t, "ovr-other@test.com", models.RoleStudent, false)
	_, teacherToken := makeUser(t, "ovr-teacher@test.com", models.RoleTeacher, false)
	_, lessons := makeCourseWithLessons(t, "Curso ajeno", 2)

	db := database.Database.Db
	db.Create(&models.UserProgress{UserID: student.ID, LessonID: lessons[0].ID, Completed: true})

	path := fmt.Sprintf("/progress/percentage?user_id=%d", student.ID)

	code, _ := doJSON(t, app, "GET", path, otherToken, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body := doJSON(t, app, "GET", path, teacherToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.InDelta(t, 100.0, data["percentage"].(float64), 0.01)
}

func TestAwardAndListPoints(t *testing.T) {
	app := setupApp(t)
	student, studentToken := makeUser(t, "pts-student@test.com", models.RoleStudent, false)
	_, teacherToken := makeUser(t, "pts-teacher@test.com", models.RoleTeacher, false)

	payload := map[string]interface{}{
		"user_id":           student.ID,
		"points":            75,
		"type":              models.PointsTypeLesson,
		"event_description": "Lección completada",
	}

	// Students cannot grant points, teachers can.
	code, _ := doJSON(t, app, "POST", "/points", studentToken, payload)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = doJSON(t, app, "POST", "/points", teacherToken, payload)
	assert.Equal(t, fiber.StatusCreated, code)

	code, body := doJSON(t, app, "GET", "/points", studentToken, nil)
	assert.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 75, data["total"])
	assert.Len(t, data["entries"].([]interface{}), 1)
}

func TestAwardPointsRejectsNonPositive(t *testing.T) {
	app := setupApp(t)
	student, _ := makeUser(t, "neg-student@test.com", models.RoleStudent, false)
	_, teacherToken := makeUser(t, "neg-teacher@test.com", models.RoleTeacher, false)

	for _, points := range []int{-500, 0} {
		code, _ := doJSON(t, app, "POST", "/points", teacherToken, map[string]interface{}{
			"user_id":           student.ID,
			"points":            points,
			"type":              models.PointsTypeLesson,
			"event_description": "Ajuste",
		})
		assert.Equal(t, fiber.StatusBadRequest, code)
	}

	// The balance never went negative and no ledger entry was written.
	var reloaded models.User
	assert.NoError(t, database.Database.Db.First(&reloaded, student.ID).Error)
	assert.Zero(t, reloaded.CurrentPoints)

	var entries int64
	database.Database.Db.Model(&models.UserPoints{}).Where("user_id = ?", student.ID).Count(&entries)
	assert.Zero(t, entries)
}
