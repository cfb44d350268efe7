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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/zoobzio/hookz"

	apihttp "github.com/payflow/payment-service/internal/adapter/primary/http"
	"github.com/payflow/payment-service/internal/adapter/secondary/events"
	"github.com/payflow/payment-service/internal/adapter/secondary/storage"
	"github.com/payflow/payment-service/internal/core"
	"github.com/payflow/payment-service/internal/core/service"
)

func main() {
	// Get configuration from environment variables
	dataFile := getEnv("DATA_FILE", "payments.json")
	apiKey := getEnv("API_KEY", "")
	port := getEnv("PORT", "8080")

	// Initialize secondary adapter: file-backed store (implements output port)
	store := storage.NewFileStore(dataFile)
	log.Printf("Using %s", store)

	// Initialize secondary adapter: in-process lifecycle events
	publisher := events.NewPublisher()
	for _, key := range []hookz.Key{events.PaymentCreated, events.PaymentCompleted, events.PaymentFailed} {
		key := key
		if _, err := publisher.Subscribe(key, func(_ context.Context, p core.Payment) error {
			log.Printf("event %s: payment=%s status=%s amount=%d", key, p.ID, p.Status, p.Amount)
			return nil
		}); err != nil {
			log.Fatalf("Failed to register %s hook: %v", key, err)
		}
	}

	// Initialize core: background processor and service (implements input port)
	processor := service.NewPaymentProcessor(store, publisher)
	paymentService := service.NewPaymentService(store, publisher, processor)

	// Initialize primary adapter: HTTP handler (uses input port)
	paymentHandler := apihttp.NewPaymentHandler(paymentService)

	// Initialize Echo
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	api := e.Group("/api/v1", apihttp.APIKeyAuth(apiKey))
	api.POST("/payments", paymentHandler.CreatePayment)
	api.GET("/payments", paymentHandler.ListPayments)
	api.GET("/payments/:id", paymentHandler.GetPayment)
	api.PATCH("/payments/:id", paymentHandler.UpdatePayment)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", port)
		log.Printf("Starting API server on %s", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	// Cancel any pending simulations, then drain event deliveries
	processor.Close()
	if err := publisher.Close(); err != nil {
		log.Printf("Event publisher shutdown: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
