// cmd/mailtest/main.go
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/domain/order"
	"github.com/sportshop/store-api/internal/pkg/email"
	"github.com/sportshop/store-api/internal/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run ./cmd/mailtest <recipient>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	emailService := email.NewService(cfg, logger.New(cfg))
	if !emailService.Enabled() {
		log.Fatal("EMAIL_ENABLED is false")
	}

	sample := &order.Order{
		Number:        "ORD-TEST-0000",
		CustomerName:  "Cliente de prueba",
		CustomerEmail: os.Args[1],
		Address:       "Calle de prueba 123",
		City:          "Rosario",
		Province:      "Santa Fe",
		Subtotal:      45000,
		ShippingCost:  cfg.ShippingFor(45000),
		Total:         45000 + cfg.ShippingFor(45000),
		Status:        order.StatusPending,
		PaymentMethod: cfg.Shop.DefaultPaymentMethod,
		CreatedAt:     time.Now(),
		Items: []order.OrderItem{{
			ProductName: "Zapatilla Runner",
			VariantInfo: "Rojo / 42",
			SKU:         "RUN-ROJ-42",
			Quantity:    1,
			UnitPrice:   45000,
			Subtotal:    45000,
		}},
	}

	emailService.OrderPlaced(context.Background(), sample)
	emailService.Wait()
}
