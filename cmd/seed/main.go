package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"localservices/internal/config"
	"localservices/internal/database"
	"localservices/internal/domain"
	"localservices/internal/modules/auth"
	"localservices/internal/modules/booking"
	jwtsvc "localservices/internal/pkg/jwt"
	"localservices/internal/repository"
)

// seed makes sure one admin, one customer and one provider exist, replaces
// all bookings with a single REQUESTED one between them, and prints a fresh
// access/refresh token pair for each user.
func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM booking_status_history")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM sessions")

	users := repository.NewUserRepository(db)
	sessions := auth.NewSessionService(
		repository.NewSessionRepository(db),
		users,
		jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL),
		cfg.SessionPepper,
		cfg.SessionTTL,
	)

	log.Println("Creating users...")
	seedUsers := []*domain.User{
		{Email: "admin@localservices.dev", Name: "Admin", Role: domain.RoleAdmin},
		{Email: "customer@localservices.dev", Name: "Customer", Role: domain.RoleCustomer},
		{Email: "provider@localservices.dev", Name: "Provider", Role: domain.RoleProvider},
	}
	for i, u := range seedUsers {
		// users survive reseeding so their ids stay stable
		existing, err := users.GetByEmail(ctx, u.Email)
		switch {
		case err == nil:
			if existing.IsSuspended() {
				if _, err := users.Reinstate(ctx, existing.ID, time.Now().UTC()); err != nil {
					log.Fatalf("reinstate user %s: %v", u.Email, err)
				}
				existing.AccountStatus = domain.AccountActive
			}
			seedUsers[i] = existing
			u = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := users.Create(ctx, u); err != nil {
				log.Fatalf("create user %s: %v", u.Email, err)
			}
		default:
			log.Fatalf("load user %s: %v", u.Email, err)
		}

		issued, err := sessions.IssueSession(ctx, u)
		if err != nil {
			log.Fatalf("issue session for %s: %v", u.Email, err)
		}
		log.Printf("user %s id=%d role=%s token=%s refresh_token=%s", u.Email, u.ID, u.Role, issued.AccessToken, issued.RefreshToken)
	}

	log.Println("Creating booking...")
	engine := booking.NewService(booking.NewRepository(db), booking.NewAuditTrail(db), booking.SystemClock(), booking.RandomReferences())
	customer, provider := seedUsers[1], seedUsers[2]
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	total := 12000.0
	b, err := engine.CreateBooking(ctx, booking.NewBookingParams{
		CustomerID:       customer.ID,
		ProviderID:       provider.ID,
		StartTime:        start,
		EndTime:          start.Add(2 * time.Hour),
		Address:          "12 Market Street",
		Notes:            "Deep cleaning, two rooms",
		TotalAmount:      total,
		CommissionAmount: total * cfg.CommissionRate,
	}, customer.ID)
	if err != nil {
		log.Fatalf("create booking: %v", err)
	}
	log.Printf("booking id=%d reference=%s status=%s", b.ID, b.Reference, b.Status())

	log.Println("Seed completed")
}
