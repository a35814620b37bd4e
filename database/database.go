package database

import (
	"fmt"
	"log"
	"os"

	"lse/config"
	"lse/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb establishes a connection to PostgreSQL
func ConnectDb() {
	cfg := config.AppConfig

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		os.Exit(2)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	RunMigrations(db)

	// Save database instance globally
	Database = DbInstance{Db: db}
}

// RunMigrations performs database migrations
func RunMigrations(db *gorm.DB) {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.CourseModule{},
		&models.Lesson{},
		&models.MultimediaResource{},
		&models.Purchase{},
		&models.UserPoints{},
		&models.UserProgress{},
		&models.Achievement{},
		&models.UserAchievement{},
	)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// AutoMigrate cannot express a partial index. One paid purchase per
	// (user, course); pending and cancelled rows may repeat.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_purchases_one_paid ON purchases (user_id, course_id) WHERE status = 'paid'",
	).Error; err != nil {
		log.Fatalf("Failed to create paid-purchase index: %v", err)
	}

	log.Println("Migrations completed successfully.")
}
