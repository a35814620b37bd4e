package main

import (
	"log"

	"lse/config"
	"lse/database"
	achievementRoutes "lse/routers/achievementRoutes"
	authRoutes "lse/routers/authRoutes"
	courseRoutes "lse/routers/courseRoutes"
	multimediaRoutes "lse/routers/multimediaRoutes"
	progressRoutes "lse/routers/progressRoutes"
	purchaseRoutes "lse/routers/purchaseRoutes"
	userRoutes "lse/routers/userRoutes"
	"lse/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	utils.InitStripe()
	utils.InitializeReconciler()

	app := fiber.New(fiber.Config{
		BodyLimit: 110 * 1024 * 1024, // video uploads top out at 100MB
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	userRoutes.SetupUserRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	multimediaRoutes.SetupMultimediaRoutes(app)
	purchaseRoutes.SetupPurchaseRoutes(app)
	progressRoutes.SetupProgressRoutes(app)
	achievementRoutes.SetupAchievementRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
