package authRoutes

import (
	authControllers "lse/controllers/auth"
	"lse/middleware"
	authValidators "lse/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/register", authValidators.Register(), authControllers.Register)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Put("/change/password", authValidators.ChangePassword(), middleware.JWTMiddleware, authControllers.ChangePassword)
	authGroup.Delete("/account", authValidators.DeleteAccount(), middleware.JWTMiddleware, authControllers.DeleteOwnAccount)
}
