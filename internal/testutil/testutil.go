// Package testutil opens throwaway stores for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sportshop/store-api/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// NewDB opens a private in-memory SQLite database and migrates models into it.
// A single connection keeps the memory database alive and serializes writers.
func NewDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "sqlite",
		DSN:        ":memory:",
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// NewRedis starts an in-memory Redis server and returns a client for it
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})
	return client, mr
}

// Config returns a configuration with production defaults and a fixed secret
func Config() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "Sport Shop API",
			Version:     "test",
			Environment: "test",
			PublicURL:   "http://localhost:3000",
		},
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		JWT: config.JWTConfig{
			Secret:            "test-secret-test-secret-test-secret!",
			AccessTokenExpiry: time.Hour,
		},
		Security: config.SecurityConfig{
			BcryptCost:         4,
			MinPasswordLength:  6,
			RateLimitPerMinute: 1000,
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			CORSAllowedHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Session-ID"},
		},
		Shop: config.ShopConfig{
			FreeShippingThreshold: 100000,
			FlatShippingCost:      5000,
			DefaultPaymentMethod:  "transferencia",
			OrderNumberAttempts:   5,
			DefaultMinStock:       5,
			CatalogCacheTTL:       time.Minute,
		},
		Company: config.CompanyConfig{
			Name:  "Sport Shop",
			Email: "ventas@sportshop.local",
		},
		Logging: config.LoggingConfig{Level: "error", Format: "json"},
	}
}
