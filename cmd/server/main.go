package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tailor-orders/internal/config"
	"tailor-orders/internal/database"
	"tailor-orders/internal/handlers"
	"tailor-orders/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set. Migrations will be skipped.")
	}

	var store *database.Store
	if cfg.DatabaseURL != "" {
		migrator, err := database.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize migrator: %v", err)
		} else {
			defer migrator.Close()
			if err := migrator.Run(); err != nil {
				log.Printf("Warning: Migration failed: %v", err)
			} else {
				log.Println("Migrations completed successfully")
			}
		}

		store, err = database.NewStore(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize database store: %v", err)
			log.Println("Database operations will be limited. Please configure DATABASE_URL properly.")
		} else {
			defer store.Close()
		}
	}

	ordersHandler := handlers.NewOrdersHandler(store)

	router := gin.Default()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api")

	// Intake is public; the admin views require a session
	api.POST("/orders", ordersHandler.CreateOrder)
	api.GET("/orders", middleware.OptionalAuth(cfg.JWTSecret), ordersHandler.ListOrders)
	api.PUT("/orders/:order_id", middleware.RequireAuth(cfg.JWTSecret), ordersHandler.UpdateOrder)
	api.PATCH("/orders/:order_id/status", middleware.RequireAuth(cfg.JWTSecret), ordersHandler.UpdateStatus)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
