package multimediaRoutes

import (
	multimediaControllers "lse/controllers/multimedia"
	"lse/middleware"
	multimediaValidators "lse/validators/multimedia"

	"github.com/gofiber/fiber/v2"
)

func SetupMultimediaRoutes(app *fiber.App) {
	resourceGroup := app.Group("/multimedia-resources", middleware.JWTMiddleware)

	resourceGroup.Get("/", multimediaControllers.ListResources)
	resourceGroup.Post("/", multimediaValidators.CreateResource(), multimediaControllers.CreateResource)
	resourceGroup.Post("/upload", multimediaValidators.UploadResource(), multimediaControllers.UploadResource)
	resourceGroup.Get("/:id", multimediaValidators.ResourceID(), multimediaControllers.GetResource)
	resourceGroup.Put("/:id", multimediaValidators.ResourceID(), multimediaValidators.UpdateResource(), multimediaControllers.UpdateResource)
	resourceGroup.Delete("/:id", multimediaValidators.ResourceID(), multimediaControllers.DeleteResource)
}
