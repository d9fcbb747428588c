/**
 * @description
 * This is the main entry point for the card-point-service. It starts an HTTP
 * server that answers card point lookups by proxying them to the upstream
 * point API and normalizing the answer.
 *
 * Key features:
 * - Loads application configuration from environment variables or a .env file.
 * - Warns at startup, and on a schedule, when the upstream credential is near expiry.
 * - Publishes a lookup event to RabbitMQ when a broker is configured.
 * - Implements graceful shutdown to ensure clean resource cleanup on termination.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - The service's internal packages for config, API handling, the upstream client and RabbitMQ integration.
 */
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/transfa/card-point-service/internal/api"
	"github.com/transfa/card-point-service/internal/app"
	"github.com/transfa/card-point-service/internal/config"
	"github.com/transfa/card-point-service/pkg/pointclient"
	"github.com/transfa/card-point-service/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	if cfg.AuthToken == "" {
		log.Println("level=warn component=main msg=\"AUTH_TOKEN is empty; upstream calls will be rejected\"")
	}
	app.LogCredentialWarnings(cfg.AuthToken, time.Now())

	client := pointclient.NewClient(pointclient.Config{
		URL:       cfg.UpstreamURL,
		AuthToken: cfg.AuthToken,
		Timeout:   cfg.UpstreamTimeout,
	})
	template := pointclient.PayloadTemplate{
		PointType: cfg.PointType,
		ExpMonth:  cfg.CardExpMonth,
		ExpYear:   cfg.CardExpYear,
		CvcNumber: cfg.CardCVC,
	}

	publisher := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.LookupEventsExchange)
	defer publisher.Close()

	service := app.NewService(client, template, publisher)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	scheduler := app.NewScheduler(cfg.CredentialCheckSchedule, cfg.AuthToken, logger, api.ObserveCredentialExpiry)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("cannot start credential check: %v", err)
	}
	scheduler.CheckCredential()

	handlers := api.NewPointHandlers(service)
	router := api.PointRoutes(handlers, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	<-scheduler.Stop().Done()
	log.Println("Server gracefully stopped")
}
