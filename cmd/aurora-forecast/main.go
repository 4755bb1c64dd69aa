package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/aurorawatch/aurora-forecast/internal/api/http"
	"github.com/aurorawatch/aurora-forecast/internal/aurora"
	"github.com/aurorawatch/aurora-forecast/internal/aurora/providers"
	"github.com/aurorawatch/aurora-forecast/internal/cache"
	"github.com/aurorawatch/aurora-forecast/internal/config"
	"github.com/aurorawatch/aurora-forecast/internal/scheduler"
	"github.com/aurorawatch/aurora-forecast/internal/swpc"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound calls; datasets set tighter per-call
	// deadlines via context.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Process-wide cache; every externally sourced value reads through it.
	store := cache.New(cfg.CacheCapacity)

	// Geolocation provider chain, consulted in order.
	chain := []aurora.LocationProvider{
		providers.NewIPAPIProvider(httpClient),
		providers.NewIPWhoisProvider(httpClient),
	}
	resolver := aurora.NewResolver(store, chain)

	// NOAA datasets and the aggregating service.
	source := swpc.NewClient(httpClient)
	service := aurora.NewService(store, source)

	// Scheduler that keeps the short-TTL datasets warm.
	warmer := scheduler.New(service, cfg.WarmInterval)
	if err := warmer.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer warmer.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "aurora-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "aurora-forecast",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, resolver, service, store)

	// Start server with graceful shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
