package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"iris-therapy-portal/internal/apiclient"
	"iris-therapy-portal/internal/config"
	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/middleware"
	"iris-therapy-portal/internal/observability/metrics"
	"iris-therapy-portal/internal/routes"
	"iris-therapy-portal/internal/session"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	api, err := apiclient.New(cfg.APIBaseURL,
		apiclient.WithLogger(logger),
		apiclient.WithObserver(metrics.NewUpstreamMetrics(reg)),
	)
	if err != nil {
		log.Fatalf("Error creating API client: %v", err)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-CSRF-Token"}
	router.Use(cors.New(corsConfig))

	if cfg.Cookie.HashKey == nil {
		logger.Warn("COOKIE_HASH_KEY not set; sessions will not survive a restart")
	}
	err = routes.SetupRoutes(router, routes.Dependencies{
		API:         api,
		Sessions:    session.NewCodec(cfg.Cookie.HashKey, cfg.Cookie.BlockKey, cfg.Cookie.Secure),
		Location:    cfg.Location,
		Logger:      logger,
		Gatherer:    reg,
		AuthMetrics: metrics.NewAuthMetrics(reg),
	})
	if err != nil {
		log.Fatalf("Error setting up routes: %v", err)
	}

	var handler http.Handler = router
	if cfg.CSRFKey != nil {
		var trusted []string
		if u, err := url.Parse(cfg.Origin); err == nil && u.Host != "" {
			trusted = append(trusted, u.Host)
		}
		handler = middleware.CSRF(cfg.CSRFKey, cfg.Cookie.Secure, trusted)(router)
	} else {
		logger.Warn("CSRF_KEY not set; form posts are not CSRF protected")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("portal listening", "addr", srv.Addr, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down portal")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("portal forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("portal stopped")
}
