package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aerosense/aerosense-api/internal/config"
	jwtinfra "github.com/aerosense/aerosense-api/internal/infrastructure/jwt"
	"github.com/aerosense/aerosense-api/internal/infrastructure/postgres"
	s3infra "github.com/aerosense/aerosense-api/internal/infrastructure/s3"
	"github.com/aerosense/aerosense-api/internal/infrastructure/smtp"
	transporthttp "github.com/aerosense/aerosense-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		if cfg.AppEnv != "development" {
			log.Fatal("JWT_SECRET must be set outside development")
		}
		log.Println("WARN: JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "dev-only-insecure-secret"
	}

	ctx := context.Background()

	if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	mailer := smtp.NewMailer(cfg)

	deps := &transporthttp.Deps{
		DB:             pool,
		UserRepo:       postgres.NewUserRepo(pool),
		ProfileRepo:    postgres.NewProfileRepo(pool),
		ResetTokenRepo: postgres.NewResetTokenRepo(pool),
		ObjectStore:    s3Store,
		Mailer:         mailer,
		JWTProvider:    jwtProvider,
		OTPTTL:         time.Duration(cfg.OTPExpiryMinutes) * time.Minute,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
