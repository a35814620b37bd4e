package progressRoutes

import (
	pointsControllers "lse/controllers/points"
	progressControllers "lse/controllers/progress"
	"lse/middleware"
	courseValidators "lse/validators/course"
	pointsValidators "lse/validators/points"
	progressValidators "lse/validators/progress"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressRoutes(app *fiber.App) {
	progressGroup := app.Group("/progress", middleware.JWTMiddleware)

	progressGroup.Get("/", progressControllers.ListProgress)
	progressGroup.Post("/", progressValidators.RecordProgress(), progressControllers.RecordProgress)
	progressGroup.Get("/percentage", progressControllers.OverallProgress)
	progressGroup.Get("/course/:id", courseValidators.CourseID(), progressControllers.CourseProgress)
	progressGroup.Put("/:id", progressValidators.ProgressID(), progressValidators.UpdateProgress(), progressControllers.UpdateProgress)
	progressGroup.Delete("/:id", progressValidators.ProgressID(), progressControllers.DeleteProgress)

	pointsGroup := app.Group("/points", middleware.JWTMiddleware)

	pointsGroup.Get("/", pointsControllers.ListPoints)
	pointsGroup.Post("/", pointsValidators.AwardPoints(), pointsControllers.AwardPoints)
}
