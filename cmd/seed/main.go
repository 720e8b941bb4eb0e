package main

import (
	"context"
	"log"
	"os"

	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/model"
	"ai-reading-be/internal/repository/specification"
	"ai-reading-be/internal/repository/unitofwork"
	"ai-reading-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// sampleChapters are registered for the seed learner so the reader can be tried without uploads.
var sampleChapters = []entity.Document{
	{Title: "The Fundamental Unit of Life", PageCount: 24, ClassLevel: "Grade 9", Subject: "Science", Chapter: "Cells"},
	{Title: "Motion", PageCount: 18, ClassLevel: "Grade 9", Subject: "Science", Chapter: "Motion"},
	{Title: "Number Systems", PageCount: 32, ClassLevel: "Grade 9", Subject: "Mathematics", Chapter: "Real Numbers"},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	userId, err := uuid.Parse(os.Getenv("SEED_USER_ID"))
	if err != nil {
		log.Fatal("Error: SEED_USER_ID must be the learner UUID to seed for")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	log.Println("Seeding sample chapters...")
	created := 0
	for _, c := range sampleChapters {
		existing, err := uow.DocumentRepository().FindOne(ctx,
			specification.ByUserID{UserID: userId},
			specification.Filter("title", c.Title),
		)
		if err != nil {
			log.Fatalf("Error: Failed to look up '%s': %v", c.Title, err)
		}
		if existing != nil {
			log.Printf("Chapter '%s' already exists, skipping...", c.Title)
			continue
		}

		doc := c
		doc.Id = uuid.New()
		doc.UserId = userId
		if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
			log.Printf("Error creating chapter '%s': %v", c.Title, err)
			continue
		}
		created++
		log.Printf("Created chapter: %s (%d pages)", doc.Title, doc.PageCount)
	}

	if created > 0 {
		err := uow.NotificationRepository().CreateNotification(ctx, &model.Notification{
			UserID:   userId,
			TypeCode: "WELCOME",
			Title:    "Your bookshelf is ready",
			Message:  "Sample chapters were added to your library. Open one to start reading.",
		})
		if err != nil {
			log.Printf("Error creating welcome notification: %v", err)
		}
	}

	log.Println("Seeding completed!")
}
