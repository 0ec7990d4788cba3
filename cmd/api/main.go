package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"localservices/internal/config"
	"localservices/internal/database"
	"localservices/internal/middleware"
	"localservices/internal/modules/admin"
	"localservices/internal/modules/auth"
	"localservices/internal/modules/booking"
	jwtsvc "localservices/internal/pkg/jwt"
	"localservices/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := booking.NewRepository(db)
	auditTrail := booking.NewAuditTrail(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	sessionService := auth.NewSessionService(sessionRepo, userRepo, j, cfg.SessionPepper, cfg.SessionTTL)
	authHandler := auth.NewHandler(sessionService)

	bookingService := booking.NewService(bookingRepo, auditTrail, booking.SystemClock(), booking.RandomReferences())
	bookingHandler := booking.NewHandler(bookingService, cfg.CommissionRate)

	adminService := admin.NewService(userRepo, sessionService, bookingService)
	adminHandler := admin.NewHandler(adminService)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), middleware.RequestID(), middleware.ErrorLogger(), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalTokenAuth(cfg.InternalToken, cfg.InternalAllowedIPs))
		bookingHandler.RegisterInternalRoutes(internal)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j, sessionService))
		{
			bookingHandler.RegisterRoutes(protected)

			adminGroup := protected.Group("/admin")
			adminGroup.Use(middleware.AdminOnly())
			adminHandler.RegisterRoutes(adminGroup)
		}
	}

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
