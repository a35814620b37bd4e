package middleware

import (
	"fmt"
	"strings"
	"time"

	"lse/config"
	"lse/models"
	"lse/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// GenerateJWT signs a session token carrying the identity and entitlement
// snapshot. All authorization decisions downstream are derived from these
// claims, never re-queried from the database.
func GenerateJWT(user *models.User) (string, error) {
	trialEnd := ""
	if user.TrialEndDate != nil {
		trialEnd = user.TrialEndDate.Format(time.RFC3339)
	}

	claims := jwt.MapClaims{
		"userId":       user.ID,
		"email":        user.Email,
		"role":         user.Role,
		"isAdmin":      user.IsAdmin,
		"isActive":     user.IsActive,
		"trialEndDate": trialEnd,
		"iat":          time.Now().Unix(),
		"exp":          time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtSecret := []byte(config.AppConfig.JWTKey)

	return token.SignedString(jwtSecret)
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Missing or invalid Authorization header",
		})
	}

	// The token should be prefixed with "Bearer "
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Invalid Authorization header format",
		})
	}

	tokenString := authHeader[len("Bearer "):]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		jwtSecret := []byte(config.AppConfig.JWTKey)
		return jwtSecret, nil
	})

	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Invalid or expired token",
		})
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || mapClaims["userId"] == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Invalid token payload",
		})
	}

	userID, _ := mapClaims["userId"].(float64) // JWT numbers decode as float64
	email, _ := mapClaims["email"].(string)
	role, _ := mapClaims["role"].(string)
	isAdmin, _ := mapClaims["isAdmin"].(bool)
	isActive, _ := mapClaims["isActive"].(bool)
	trialEnd, _ := mapClaims["trialEndDate"].(string)

	claims := policy.Claims{
		UserID:       uint(userID),
		Email:        email,
		Role:         role,
		IsAdmin:      isAdmin,
		IsActive:     isActive,
		TrialEndDate: trialEnd,
	}

	c.Locals("userId", claims.UserID)
	c.Locals("claims", claims)

	return c.Next()
}

// GetClaims returns the policy claims stashed by JWTMiddleware.
func GetClaims(c *fiber.Ctx) (policy.Claims, bool) {
	claims, ok := c.Locals("claims").(policy.Claims)
	return claims, ok
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusBadRequest, false, "Validation failed!", errors)
}

// PolicyDenied maps a deny decision to the right HTTP status.
func PolicyDenied(c *fiber.Ctx, d policy.Decision) error {
	return JsonResponse(c, fiber.StatusForbidden, false, d.Reason, nil)
}
