package authController

import (
	"fmt"
	"log"
	"time"

	"lse/config"
	"lse/database"
	"lse/middleware"
	"lse/models"
	"lse/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ConfirmationPhrase must be sent literally to delete an account.
const ConfirmationPhrase = "ELIMINAR MI CUENTA"

// Register creates a demo account with a time-bounded trial window.
func Register(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRegister").(*struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "El usuario ya existe", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	trialEnd := time.Now().AddDate(0, 0, config.AppConfig.TrialDays)
	newUser := models.User{
		FirstName:        reqData.FirstName,
		LastName:         reqData.LastName,
		Email:            reqData.Email,
		Password:         string(hashedPassword),
		Role:             models.RoleDemo,
		IsActive:         true,
		CurrentPoints:    0,
		RegistrationDate: time.Now(),
		TrialEndDate:     &trialEnd,
	}

	if err := db.Create(&newUser).Error; err != nil {
		// Lost the race on the unique email index
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "El usuario ya existe", nil)
	}

	utils.SendWelcomeEmail(newUser.Email, newUser.FirstName, config.AppConfig.TrialDays)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Usuario creado", newUser)
}

// Login verifies credentials and issues the claims-bearing session token. All
// failure modes return the same message so callers cannot probe which check
// failed.
func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_active = ? AND is_deleted = ?", reqData.Email, true, false).
		First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Usuario o contraseña incorrectos", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Usuario o contraseña incorrectos", nil)
	}

	now := time.Now()
	db.Model(&user).Update("last_access", now)

	token, err := middleware.GenerateJWT(&user)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User logged, ok", fiber.Map{
		"access_token": token,
		"user":         user,
	})
}

// ChangePassword rotates the caller's password after re-verifying the old one.
func ChangePassword(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedChangePassword").(*struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.OldPassword)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Contraseña actual incorrecta", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.NewPassword), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	if err := db.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update password!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Contraseña actualizada", nil)
}

// DeleteOwnAccount soft-deletes the caller's account. The email is rewritten
// to a unique tombstone so it can be re-registered; the original is preserved
// in archived_email.
func DeleteOwnAccount(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedDeleteAccount").(*struct {
		Password     string `json:"password"`
		Confirmation string `json:"confirmation"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Confirmation != ConfirmationPhrase {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false,
			fmt.Sprintf("Debes escribir exactamente '%s' para confirmar", ConfirmationPhrase), nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Contraseña incorrecta", nil)
	}

	tombstone := fmt.Sprintf("deleted-%s@deleted.lse", uuid.NewString())
	if err := db.Model(&user).Updates(map[string]interface{}{
		"archived_email": user.Email,
		"email":          tombstone,
		"is_active":      false,
		"is_deleted":     true,
	}).Error; err != nil {
		log.Printf("Error soft-deleting user %d: %v", userId, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete account!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Cuenta eliminada", nil)
}
