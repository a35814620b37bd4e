package achievementRoutes

import (
	achievementControllers "lse/controllers/achievement"
	"lse/middleware"
	achievementValidators "lse/validators/achievement"

	"github.com/gofiber/fiber/v2"
)

func SetupAchievementRoutes(app *fiber.App) {
	achievementGroup := app.Group("/achievements", middleware.JWTMiddleware)

	achievementGroup.Get("/", achievementControllers.ListAchievements)
	achievementGroup.Post("/", achievementValidators.CreateAchievement(), achievementControllers.CreateAchievement)
	achievementGroup.Post("/assign", achievementValidators.AssignAchievement(), achievementControllers.AssignAchievement)
	achievementGroup.Get("/user", achievementControllers.ListUserAchievements)
	achievementGroup.Get("/:id", achievementValidators.AchievementID(), achievementControllers.GetAchievement)
	achievementGroup.Put("/:id", achievementValidators.AchievementID(), achievementValidators.UpdateAchievement(), achievementControllers.UpdateAchievement)
	achievementGroup.Delete("/:id", achievementValidators.AchievementID(), achievementControllers.DeleteAchievement)
}
