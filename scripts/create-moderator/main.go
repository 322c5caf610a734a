package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/features/user"
	"github.com/studyhub/studyhub-server-go/pkg/config"
	"github.com/studyhub/studyhub-server-go/pkg/logger"
	"github.com/studyhub/studyhub-server-go/pkg/types"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Get underlying SQL connection
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Error("Failed to get SQL DB", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Test connection
	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		appLogger.Error("Failed to ping database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("Database connection established")

	reader := bufio.NewReader(os.Stdin)

	// Get user details
	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	fmt.Print("Password (min 6 chars): ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)

	// Validate required fields
	if email == "" || username == "" || len(password) < 6 {
		fmt.Println("❌ Error: Email, username, and password (min 6 chars) are required")
		os.Exit(1)
	}

	// Create moderator user
	newUser, err := user.Create(db, user.CreateInput{
		Email:    email,
		Username: username,
		Password: password,
		Role:     types.RoleModerator,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			fmt.Println("❌ Error: A user with this email already exists")
			os.Exit(1)
		}
		appLogger.Error("Failed to create moderator", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("\n✅ Moderator created successfully!")
	fmt.Printf("   ID: %s\n", newUser.ID)
	fmt.Printf("   Email: %s\n", newUser.Email)
	fmt.Printf("   Role: %s\n", newUser.Role)
}
