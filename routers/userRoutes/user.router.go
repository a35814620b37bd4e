package userRoutes

import (
	userControllers "lse/controllers/user"
	"lse/middleware"
	userValidators "lse/validators/user"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/users", middleware.JWTMiddleware)

	userGroup.Get("/", userControllers.ListUsers)
	userGroup.Get("/:id", userValidators.UserID(), userControllers.GetUser)
	userGroup.Put("/:id", userValidators.UserID(), userValidators.UpdateUser(), userControllers.UpdateUser)
	userGroup.Delete("/:id", userValidators.UserID(), userControllers.DeleteUser)
}
