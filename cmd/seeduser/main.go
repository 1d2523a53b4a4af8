package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"editais-platform/internal/config"
	"editais-platform/internal/store"
	"editais-platform/models"
	"editais-platform/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds the first API user. There is no self-service registration, so
// this runs once per deployment before anything else can log in.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	users := store.NewUserStore(client.Database(cfg.DBName))

	username := os.Getenv("SEED_USERNAME")
	if username == "" {
		username = "admin"
	}

	if existing, err := users.FindByUsername(context.Background(), username); err == nil {
		fmt.Printf("User %q already exists (id %s)\n", existing.Username, existing.ID.Hex())
		os.Exit(0)
	}

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		log.Fatal("SEED_PASSWORD is required")
	}

	hash, err := utils.HashPassword(password, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Name:         "Administrador",
		PasswordHash: hash,
		Role:         "admin",
	}
	if err := users.Create(context.Background(), user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User created: %s (id %s)\n", user.Username, user.ID.Hex())
	fmt.Println("Login at POST /login to obtain a token.")
}
