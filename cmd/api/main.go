package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/library-api/internal/config"
	"github.com/yourusername/library-api/internal/handler"
	"github.com/yourusername/library-api/internal/middleware"
	pgRepo "github.com/yourusername/library-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/library-api/internal/repository/redis"
	"github.com/yourusername/library-api/internal/service"
	"github.com/yourusername/library-api/internal/storage"
	"github.com/yourusername/library-api/pkg/auth"
	"github.com/yourusername/library-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories
	userRepo := pgRepo.NewUserRepo(db)
	bookRepo := pgRepo.NewBookRepo(db)
	otpRepo, err := redisRepo.NewOTPRepo(redisClient, cfg.Verification.OTPTTL())
	if err != nil {
		log.Printf("Failed to initialize OTPRepo: %v", err)
		os.Exit(1)
	}

	// File storage
	var fileStorage storage.FileStorage
	switch cfg.Storage.Backend {
	case "s3":
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.Storage.S3)
	default:
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.LocalDir)
	}
	if err != nil {
		log.Printf("Failed to initialize file storage: %v", err)
		os.Exit(1)
	}

	// Email
	var emailService service.EmailService
	if cfg.Email.Provider == "resend" {
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize email service: %v", err)
			os.Exit(1)
		}
	} else {
		log.Println("email provider is noop, outbound mail is logged only")
		emailService = &service.NoopEmailService{}
	}

	// Services
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWT service: %v", err)
		os.Exit(1)
	}
	authService := service.NewAuthService(userRepo, jwtService)
	verificationService, err := service.NewVerificationService(
		userRepo, otpRepo, emailService,
		cfg.Verification.OTPTTL(), cfg.Verification.ResetTTL(),
		cfg.Email.ResetBaseURL,
	)
	if err != nil {
		log.Printf("Failed to initialize verification service: %v", err)
		os.Exit(1)
	}
	bookService := service.NewBookService(bookRepo, fileStorage)

	// Handlers and middleware
	authHandler := handler.NewAuthHandler(authService, verificationService)
	bookHandler := handler.NewBookHandler(bookService)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	isProduction := os.Getenv("GIN_MODE") == "release"
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Trusted proxies affect c.ClientIP(), which the rate limiter keys on.
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			strict := rateLimiter.Limit(middleware.StrictAuthRateLimitConfig())
			authGroup.POST("/send-otp", strict, authHandler.SendOTP)
			authGroup.POST("/verify-otp", strict, authHandler.VerifyOTP)
			authGroup.POST("/signup", strict, authHandler.Signup)
			authGroup.POST("/login", strict, authHandler.Login)
			authGroup.POST("/forgot-password", strict, authHandler.ForgotPassword)
			authGroup.POST("/reset-password/:token", strict, authHandler.ResetPassword)
			authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
		}

		bookGroup := api.Group("/books")
		{
			general := rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig())
			bookGroup.GET("", general, bookHandler.List)
			bookGroup.GET("/export", authMiddleware.RequireAuth(), bookHandler.ExportXLSX)
			bookGroup.GET("/:id", general, bookHandler.Get)
			bookGroup.GET("/:id/cover", bookHandler.Cover)
			bookGroup.GET("/:id/download", general, bookHandler.Download)
			bookGroup.POST("", authMiddleware.RequireAuth(), bookHandler.Upload)
		}
	}

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
