package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"localservices/internal/config"
	"localservices/internal/database"
	"localservices/internal/modules/auth"
	jwtsvc "localservices/internal/pkg/jwt"
	"localservices/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	sessions := auth.NewSessionService(
		repository.NewSessionRepository(db),
		repository.NewUserRepository(db),
		jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL),
		cfg.SessionPepper,
		cfg.SessionTTL,
	)

	n, err := sessions.PurgeExpired(context.Background(), cfg.RevokedRetention)
	if err != nil {
		log.Fatalf("cleanup sessions failed: %v", err)
	}

	log.Printf("session cleanup completed: sessions=%d", n)
}
