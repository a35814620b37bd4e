package courseRoutes

import (
	courseControllers "lse/controllers/course"
	"lse/middleware"
	courseValidators "lse/validators/course"

	"github.com/gofiber/fiber/v2"
)

func SetupCourseRoutes(app *fiber.App) {
	// Unauthenticated catalog teasers.
	app.Get("/courses-public", courseControllers.PublicListCourses)
	app.Get("/modules-public", courseControllers.PublicListModules)
	app.Get("/lessons-public", courseControllers.PublicListLessons)

	courseGroup := app.Group("/courses", middleware.JWTMiddleware)
	courseGroup.Get("/", courseControllers.ListCourses)
	courseGroup.Post("/", courseValidators.CreateCourse(), courseControllers.CreateCourse)
	courseGroup.Get("/:id", courseValidators.CourseID(), courseControllers.GetCourse)
	courseGroup.Put("/:id", courseValidators.CourseID(), courseValidators.UpdateCourse(), courseControllers.UpdateCourse)
	courseGroup.Delete("/:id", courseValidators.CourseID(), courseControllers.DeleteCourse)

	moduleGroup := app.Group("/modules", middleware.JWTMiddleware)
	moduleGroup.Get("/", courseControllers.ListModules)
	moduleGroup.Post("/", courseValidators.CreateModule(), courseControllers.CreateModule)
	moduleGroup.Get("/:id", courseValidators.ModuleID(), courseControllers.GetModule)
	moduleGroup.Put("/:id", courseValidators.ModuleID(), courseValidators.UpdateModule(), courseControllers.UpdateModule)
	moduleGroup.Delete("/:id", courseValidators.ModuleID(), courseControllers.DeleteModule)

	lessonGroup := app.Group("/lessons", middleware.JWTMiddleware)
	lessonGroup.Get("/", courseControllers.ListLessons)
	lessonGroup.Post("/", courseValidators.CreateLesson(), courseControllers.CreateLesson)
	lessonGroup.Get("/:id", courseValidators.LessonID(), courseControllers.GetLesson)
	lessonGroup.Put("/:id", courseValidators.LessonID(), courseValidators.UpdateLesson(), courseControllers.UpdateLesson)
	lessonGroup.Delete("/:id", courseValidators.LessonID(), courseControllers.DeleteLesson)
}
