// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/domain/analytics"
	"github.com/sportshop/store-api/internal/domain/cart"
	"github.com/sportshop/store-api/internal/domain/inventory"
	"github.com/sportshop/store-api/internal/domain/order"
	"github.com/sportshop/store-api/internal/domain/product"
	"github.com/sportshop/store-api/internal/domain/user"
	"github.com/sportshop/store-api/internal/infrastructure/database/postgres"
	"github.com/sportshop/store-api/internal/infrastructure/database/redis"
	"github.com/sportshop/store-api/internal/interfaces/http"
	"github.com/sportshop/store-api/internal/interfaces/http/handlers"
	"github.com/sportshop/store-api/internal/interfaces/http/routes"
	"github.com/sportshop/store-api/internal/pkg/auth"
	"github.com/sportshop/store-api/internal/pkg/email"
	"github.com/sportshop/store-api/internal/pkg/logger"
	"github.com/sportshop/store-api/internal/pkg/pdf"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr := logger.New(cfg)
	logr.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting")

	db, err := postgres.NewConnection(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB(), logr)
	if err := migration.RunAutoMigrations(); err != nil {
		logr.WithError(err).Fatal("Database migration failed")
	}
	if _, err := migration.CreateIndexes(); err != nil {
		logr.WithError(err).Warn("Index creation failed")
	}

	gdb := db.GetDB()
	jwtManager := auth.NewJWTManager(cfg)

	userService := user.NewService(gdb, cfg, jwtManager)
	catalog := product.NewService(gdb, redisClient, cfg, logr)
	adminService := product.NewAdminService(gdb, cfg, catalog)
	categoryService := product.NewCategoryService(gdb, catalog)
	inventoryService := inventory.NewService(gdb, cfg)
	cartService := cart.NewService(gdb)
	emailService := email.NewService(cfg, logr)
	orderService := order.NewService(gdb, cfg, cartService, inventoryService, emailService, logr)
	analyticsService := analytics.NewService(gdb, inventoryService)
	pdfService := pdf.NewService(cfg)

	if cfg.IsDevelopment() {
		err := migration.SeedInitialData(context.Background(), cfg, postgres.Seeders{
			Users:      userService,
			Categories: categoryService,
			Products:   adminService,
		})
		if err != nil {
			logr.WithError(err).Warn("Data seeding failed")
		}
	}

	server := http.NewServer(cfg, logr, http.Dependencies{
		Handlers: &routes.Handlers{
			Auth:      handlers.NewAuthHandler(userService, logr),
			Category:  handlers.NewCategoryHandler(categoryService, logr),
			Product:   handlers.NewProductHandler(catalog, logr),
			Cart:      handlers.NewCartHandler(cartService, logr),
			Order:     handlers.NewOrderHandler(orderService, logr),
			Invoice:   handlers.NewInvoiceHandler(orderService, pdfService, logr),
			Admin:     handlers.NewAdminHandler(adminService, logr),
			Analytics: handlers.NewAnalyticsHandler(analyticsService, logr),
		},
		JWTManager: jwtManager,
		Redis:      redisClient.GetClient(),
		Database:   db,
		Cache:      redisClient,
	})

	go func() {
		if err := server.Start(); err != nil {
			logr.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logr.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logr.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	emailService.Wait()
	logr.Info("Server shutdown completed")
}
