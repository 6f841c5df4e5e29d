package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"marketplace/internal/database"
	"marketplace/internal/repository"
)

// Deletes expired and long-revoked session token rows. Meant to run from
// cron; the API never reads rows this prunes.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	tokenRepo := repository.NewSessionTokenRepository(db)
	deleted, err := tokenRepo.DeleteExpired(context.Background())
	if err != nil {
		log.Fatalf("cleanup session_tokens failed: %v", err)
	}

	log.Printf("token cleanup completed: session_tokens=%d", deleted)
}
