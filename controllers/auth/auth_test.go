package authController_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"lse/config"
	authController "lse/controllers/auth"
	"lse/database"
	"lse/models"
	authRoutes "lse/routers/authRoutes"

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

	db, err := gorm.Open(sqlite.Open("file:authtest?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	t.Cleanup(func() {
		db.Exec("DELETE FROM users")
	})

	app := fiber.New()
	authRoutes.SetupAuthRoutes(app)
	return app
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

func TestRegisterCreatesDemoWithTrial(t *testing.T) {
	app := setupApp(t)

	code, body := doJSON(t, app, "POST", "/auth/register", "", map[string]string{
		"email":      "Nuevo@Test.com",
		"password":   "password123",
		"first_name": "Nuevo",
		"last_name":  "Usuario",
	})

	assert.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, "Usuario creado", body["message"])

	var user models.User
	err := database.Database.Db.Where("email = ?", "nuevo@test.com").First(&user).Error
	assert.NoError(t, err)
	assert.Equal(t, models.RoleDemo, user.Role)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsAdmin)

	if assert.NotNil(t, user.TrialEndDate) {
		expected := time.Now().AddDate(0, 0, 7)
		assert.WithinDuration(t, expected, *user.TrialEndDate, time.Minute)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := setupApp(t)

	payload := map[string]string{
		"email":      "dup@test.com",
		"password":   "password123",
		"first_name": "Dup",
		"last_name":  "Licate",
	}

	code, _ := doJSON(t, app, "POST", "/auth/register", "", payload)
	assert.Equal(t, fiber.StatusCreated, code)

	code, body := doJSON(t, app, "POST", "/auth/register", "", payload)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "El usuario ya existe", body["message"])
}

// A soft-deleted row escapes the lookup but still holds the unique email
// index, so the insert itself has to surface the conflict.
func TestRegisterEmailHeldBySoftDeletedRow(t *testing.T) {
	app := setupApp(t)

	ghost := models.User{
		FirstName: "Ghost", LastName: "Row", Email: "ghost@test.com",
		Password: "irrelevant", Role: models.RoleStudent, IsActive: true,
	}
	assert.NoError(t, database.Database.Db.Create(&ghost).Error)
	assert.NoError(t, database.Database.Db.Delete(&ghost).Error)

	code, body := doJSON(t, app, "POST", "/auth/register", "", map[string]string{
		"email":      "ghost@test.com",
		"password":   "password123",
		"first_name": "New",
		"last_name":  "Claimant",
	})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "El usuario ya existe", body["message"])
}

func TestLogin(t *testing.T) {
	app := setupApp(t)

	doJSON(t, app, "POST", "/auth/register", "", map[string]string{
		"email":      "login@test.com",
		"password":   "password123",
		"first_name": "Log",
		"last_name":  "In",
	})

	code, body := doJSON(t, app, "POST", "/auth/login", "", map[string]string{
		"email":    "login@test.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, code)

	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])

	// Wrong password and unknown user answer with the same message so
	// account existence cannot be probed.
	code, body = doJSON(t, app, "POST", "/auth/login", "", map[string]string{
		"email":    "login@test.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Usuario o contraseña incorrectos", body["message"])

	code, body = doJSON(t, app, "POST", "/auth/login", "", map[string]string{
		"email":    "nobody@test.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Usuario o contraseña incorrectos", body["message"])
}

func TestChangePassword(t *testing.T) {
	app := setupApp(t)

	doJSON(t, app, "POST", "/auth/register", "", map[string]string{
		"email":      "change@test.com",
		"password":   "password123",
		"first_name": "Change",
		"last_name":  "Pass",
	})
	_, body := doJSON(t, app, "POST", "/auth/login", "", map[string]string{
		"email":    "change@test.com",
		"password": "password123",
	})
	token := body["data"].(map[string]interface{})["access_token"].(string)

	code, body := doJSON(t, app, "PUT", "/auth/change/password", token, map[string]string{
		"old_password": "password123",
		"new_password": "newpassword456",
	})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Contraseña actualizada", body["message"])

	code, _ = doJSON(t, app, "POST", "/auth/login", "", map[string]string{
		"email":    "change@test.com",
		"password": "newpassword456",
	})
	assert.Equal(t, fiber.StatusOK, code)
}

func TestDeleteOwnAccount(t *testing.T) {
	app := setupApp(t)

	doJSON(t, app, "POST", "/auth/register", "", map[string]string{
		"email":      "gone@test.com",
		"password":   "password123",
		"first_name": "Gone",
		"last_name":  "Soon",
	})
	_, body := doJSON(t, app, "POST", "/auth/login", "", map[string]string{
		"email":    "gone@test.com",
		"password": "password123",
	})
	token := body["data"].(map[string]interface{})["access_token"].(string)

	// Wrong phrase is rejected before the password is even checked.
	code, _ := doJSON(t, app, "DELETE", "/auth/account", token, map[string]string{
		"password":     "password123",
		"confirmation": "eliminar",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = doJSON(t, app, "DELETE", "/auth/account", token, map[string]string{
		"password":     "password123",
		"confirmation": authController.ConfirmationPhrase,
	})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Cuenta eliminada", body["message"])

	// The original email is freed for re-registration and the login is dead.
	code, _ = doJSON(t, app, "POST", "/auth/login", "", map[string]string{
		"email":    "gone@test.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusUnauthorized, code)

	var user models.User
	err := database.Database.Db.Unscoped().Where("archived_email = ?", "gone@test.com").First(&user).Error
	assert.NoError(t, err)
	assert.True(t, user.IsDeleted)
	assert.False(t, user.IsActive)
	assert.NotEqual(t, "gone@test.com", user.Email)
}
