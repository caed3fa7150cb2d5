// Command mockapi runs the stand-in clinic backend for local development.
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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"iris-therapy-portal/internal/config"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/middleware"
	"iris-therapy-portal/internal/mockapi"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	logger := logging.New(cfg.LogLevel).With("service", "mockapi")

	db, err := mockapi.InitDB(mockapi.DatabaseConfig{Driver: cfg.MockAPI.DBDriver, DSN: cfg.MockAPI.DSN})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err := mockapi.Seed(context.Background(), db, cfg.Location, time.Now()); err != nil {
		log.Fatalf("Error seeding database: %v", err)
	}

	mailer, err := mockapi.NewMailer(mockapi.MailerConfig{
		Transport:    cfg.MockAPI.Mailer.Transport,
		DefaultFrom:  cfg.MockAPI.Mailer.DefaultFrom,
		ResendAPIKey: cfg.MockAPI.Mailer.ResendAPIKey,
	}, logger)
	if err != nil {
		log.Fatalf("Error creating mailer: %v", err)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := mockapi.NewServer(db, mockapi.Config{
		JWTSecret:       cfg.MockAPI.JWTSecret,
		OTPExpiry:       time.Duration(cfg.MockAPI.OTPExpiryMinutes) * time.Minute,
		LoginRatePerMin: cfg.MockAPI.LoginRatePerMin,
		Location:        cfg.Location,
	}, mailer, logger)
	router := server.Router(middleware.RequestLogger(logger))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.MockAPI.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("mockapi listening", "addr", srv.Addr, "db", cfg.MockAPI.DBDriver, "mailer", cfg.MockAPI.Mailer.Transport)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("mockapi forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("mockapi stopped")
}
