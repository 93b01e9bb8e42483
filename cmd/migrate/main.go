package main

import (
	"log"

	"projecthub-chat/internal/config"
	"projecthub-chat/internal/domain"
	"projecthub-chat/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// pgcrypto provides gen_random_uuid() used by the bulk read-receipt insert
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		log.Fatalf("Failed to create pgcrypto extension: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.ChatRoom{},
		&domain.ChatParticipant{},
		&domain.Message{},
		&domain.MessageAttachment{},
		&domain.MessageReaction{},
		&domain.MessageRead{},
	); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Println("Migrations applied successfully")
}
