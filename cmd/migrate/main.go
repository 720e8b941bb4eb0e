package main

import (
	"log"
	"os"

	"ai-reading-be/internal/model"
	"ai-reading-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Extensions used by column defaults
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate
	models := []interface{}{
		&model.Document{},
		&model.Annotation{},
		&model.AssessmentResult{},
		&model.AssessmentAnswer{},
		&model.Notification{},
	}
	log.Printf("Running AutoMigrate for %d tables...", len(models))

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Views
	postMigrationSQL := []string{
		`CREATE OR REPLACE VIEW learner_assessment_summary AS
		 SELECT r.user_id, r.document_id, COUNT(*) AS attempts, MAX(r.score) AS best_score,
		        AVG(r.score)::int AS average_score, MAX(r.completed_at) AS last_completed_at
		 FROM assessment_results r
		 GROUP BY r.user_id, r.document_id;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}
