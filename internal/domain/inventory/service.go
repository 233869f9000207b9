// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/domain/product"
	"github.com/sportshop/store-api/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Service owns every stock mutation on variants
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// Line is one stock movement request
type Line struct {
	VariantID   uint
	Quantity    int
	ProductName string
}

// LowStockItem is a variant at or below its minimum stock
type LowStockItem struct {
	VariantID   uint   `json:"id"`
	SKU         string `json:"sku"`
	Color       string `json:"color"`
	Size        string `json:"talla"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"stock_minimo"`
	ProductName string `json:"producto_nombre"`
}

// Reserve decrements stock for every line inside tx. Each decrement is
// conditional on enough stock being left, so concurrent checkouts cannot
// oversell; the first line that cannot be covered fails the whole call.
func (s *Service) Reserve(tx *gorm.DB, lines []Line) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return apperror.InvalidRequest("La cantidad debe ser al menos 1")
		}

		result := tx.Model(&product.Variant{}).
			Where("id = ? AND stock >= ?", line.VariantID, line.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to decrement stock for variant %d: %w", line.VariantID, result.Error)
		}
		if result.RowsAffected == 0 {
			available, err := s.available(tx, line.VariantID)
			if err != nil {
				return err
			}
			return apperror.InsufficientStock(line.ProductName, available)
		}
	}
	return nil
}

// Release returns stock for every line inside tx
func (s *Service) Release(tx *gorm.DB, lines []Line) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		result := tx.Model(&product.Variant{}).
			Where("id = ?", line.VariantID).
			UpdateColumn("stock", gorm.Expr("stock + ?", line.Quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to restore stock for variant %d: %w", line.VariantID, result.Error)
		}
	}
	return nil
}

// LowStock lists active variants whose stock is at or below their minimum, lowest first
func (s *Service) LowStock(ctx context.Context, limit int) ([]LowStockItem, error) {
	items := []LowStockItem{}
	err := s.db.WithContext(ctx).
		Table("product_variants AS v").
		Select("v.id AS variant_id, v.sku, v.color, v.size, v.stock, v.min_stock, p.name AS product_name").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("v.is_active = ? AND v.stock <= v.min_stock", true).
		Order("v.stock ASC, v.id ASC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock variants: %w", err)
	}
	return items, nil
}

func (s *Service) available(tx *gorm.DB, variantID uint) (int, error) {
	var v product.Variant
	err := tx.Select("stock").Where("id = ?", variantID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock for variant %d: %w", variantID, err)
	}
	return v.Stock, nil
}
