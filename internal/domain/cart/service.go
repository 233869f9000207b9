// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sportshop/store-api/internal/domain/product"
	"github.com/sportshop/store-api/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles cart business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new cart service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// AddLineRequest represents an add to cart request
type AddLineRequest struct {
	VariantID uint `json:"variante_id" binding:"required"`
	Quantity  *int `json:"cantidad"`
}

// UpdateLineRequest represents a quantity change
type UpdateLineRequest struct {
	Quantity int `json:"cantidad"`
}

const lineSelect = `ci.id, ci.cart_id, ci.variant_id, ci.quantity, ci.unit_price,
	v.sku, v.color, v.size, v.stock, v.sale_price, v.discount_price,
	v.is_active AS variant_active, p.is_active AS product_active, p.name AS product_name,
	COALESCE((SELECT pi.url FROM product_images pi
		WHERE pi.product_id = p.id AND pi.is_primary = ?
		ORDER BY pi.sort_order, pi.id LIMIT 1), '') AS image`

// GetOrCreate returns the owner's cart, creating it on first use. Creation
// is an upsert on the owner column followed by a re-read, so two concurrent
// first requests end up with the same cart.
func (s *Service) GetOrCreate(ctx context.Context, owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return s.getOrCreate(s.db.WithContext(ctx), owner)
}

// Find returns the owner's cart without creating one
func (s *Service) Find(ctx context.Context, owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return s.find(s.db.WithContext(ctx), owner)
}

// Snapshot returns the cart with live variant data and totals
func (s *Service) Snapshot(ctx context.Context, owner Owner) (*Snapshot, error) {
	c, err := s.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	lines, err := s.Lines(s.db.WithContext(ctx), c.ID)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(c.ID, lines), nil
}

// AddLine puts a variant in the cart. An existing line only gains quantity;
// a new line captures the variant's current price. Returns the product name.
func (s *Service) AddLine(ctx context.Context, owner Owner, req AddLineRequest) (string, error) {
	if err := owner.Validate(); err != nil {
		return "", err
	}
	if req.VariantID == 0 {
		return "", apperror.InvalidRequest("variante_id es requerido")
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		return "", apperror.InvalidRequest("La cantidad debe ser al menos 1")
	}

	var productName string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := s.activeVariant(tx, req.VariantID)
		if err != nil {
			return err
		}
		productName = v.ProductName

		c, err := s.getOrCreate(tx, owner)
		if err != nil {
			return err
		}

		var existing CartItem
		err = tx.Where("cart_id = ? AND variant_id = ?", c.ID, v.ID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if v.Stock < quantity {
				return apperror.InsufficientStock(v.ProductName, v.Stock)
			}
			item := CartItem{
				CartID:    c.ID,
				VariantID: v.ID,
				Quantity:  quantity,
				UnitPrice: product.CurrentPrice(v.SalePrice, v.DiscountPrice),
			}
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "cart_id"}, {Name: "variant_id"}},
				DoNothing: true,
			}).Create(&item)
			if result.Error != nil {
				return fmt.Errorf("failed to create cart item: %w", result.Error)
			}
			if result.RowsAffected > 0 {
				return nil
			}
			// another request created the line first; merge into it
			err = tx.Where("cart_id = ? AND variant_id = ?", c.ID, v.ID).First(&existing).Error
		}
		if err != nil {
			return fmt.Errorf("failed to read cart item: %w", err)
		}
		return s.growLine(tx, &existing, quantity, v)
	})
	if err != nil {
		return "", err
	}
	return productName, nil
}

// UpdateLine sets a line's quantity
func (s *Service) UpdateLine(ctx context.Context, owner Owner, itemID uint, quantity int) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if quantity < 1 {
		return apperror.InvalidRequest("La cantidad debe ser al menos 1")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.find(tx, owner)
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound("Item no encontrado en el carrito")
		}
		if err != nil {
			return err
		}

		var item CartItem
		if err := tx.Where("id = ? AND cart_id = ?", itemID, c.ID).First(&item).Error; err != nil {
			return apperror.FromDB(err, "Item no encontrado en el carrito", "")
		}

		var v stockRow
		err = tx.Table("product_variants AS v").
			Select("v.stock, p.name AS product_name").
			Joins("JOIN products p ON p.id = v.product_id").
			Where("v.id = ?", item.VariantID).
			Scan(&v).Error
		if err != nil {
			return fmt.Errorf("failed to read variant stock: %w", err)
		}
		if v.Stock < quantity {
			return apperror.InsufficientStock(v.ProductName, v.Stock)
		}

		if err := tx.Model(&item).Update("quantity", quantity).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		return nil
	})
}

// RemoveLine deletes one line from the owner's cart
func (s *Service) RemoveLine(ctx context.Context, owner Owner, itemID uint) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)

	c, err := s.find(db, owner)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.NotFound("Item no encontrado en el carrito")
	}
	if err != nil {
		return err
	}

	result := db.Where("id = ? AND cart_id = ?", itemID, c.ID).Delete(&CartItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("Item no encontrado en el carrito")
	}
	return nil
}

// Clear removes every line. Clearing a cart that does not exist is a no-op.
func (s *Service) Clear(ctx context.Context, owner Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)

	c, err := s.find(db, owner)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.DeleteLines(db, c.ID)
}

// Lines loads every line of a cart joined with its variant, product and primary image
func (s *Service) Lines(db *gorm.DB, cartID uint) ([]Line, error) {
	lines := []Line{}
	err := db.Table("cart_items AS ci").
		Select(lineSelect, true).
		Joins("JOIN product_variants v ON v.id = ci.variant_id").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("ci.cart_id = ?", cartID).
		Order("ci.id").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart lines: %w", err)
	}
	return lines, nil
}

// DeleteLines empties a cart inside the given handle
func (s *Service) DeleteLines(db *gorm.DB, cartID uint) error {
	if err := db.Where("cart_id = ?", cartID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// DeleteItems removes the given lines of a cart inside the given handle
func (s *Service) DeleteItems(db *gorm.DB, cartID uint, itemIDs []uint) error {
	if len(itemIDs) == 0 {
		return nil
	}
	if err := db.Where("cart_id = ? AND id IN ?", cartID, itemIDs).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to remove cart items: %w", err)
	}
	return nil
}

// FindIn is Find on an existing handle, for use inside a transaction
func (s *Service) FindIn(db *gorm.DB, owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return s.find(db, owner)
}

// growLine adds quantity to an existing line as long as the total fits in stock
func (s *Service) growLine(tx *gorm.DB, line *CartItem, quantity int, v *variantRow) error {
	if v.Stock < line.Quantity+quantity {
		return apperror.InsufficientStock(v.ProductName, v.Stock)
	}

	result := tx.Model(&CartItem{}).
		Where("id = ? AND quantity + ? <= ?", line.ID, quantity, v.Stock).
		Update("quantity", gorm.Expr("quantity + ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to update cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.InsufficientStock(v.ProductName, v.Stock)
	}
	return nil
}

type variantRow struct {
	ID            uint
	Stock         int
	SalePrice     int64
	DiscountPrice *int64
	ProductName   string
}

type stockRow struct {
	Stock       int
	ProductName string
}

func (s *Service) activeVariant(db *gorm.DB, variantID uint) (*variantRow, error) {
	var rows []variantRow
	err := db.Table("product_variants AS v").
		Select("v.id, v.stock, v.sale_price, v.discount_price, p.name AS product_name").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("v.id = ? AND v.is_active = ? AND p.is_active = ?", variantID, true, true).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read variant: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("Producto no encontrado")
	}
	return &rows[0], nil
}

func (s *Service) find(db *gorm.DB, owner Owner) (*Cart, error) {
	var c Cart
	err := ownerScope(db, owner).First(&c).Error
	if err != nil {
		return nil, apperror.FromDB(err, "Carrito no encontrado", "")
	}
	return &c, nil
}

func (s *Service) getOrCreate(db *gorm.DB, owner Owner) (*Cart, error) {
	c := Cart{UserID: owner.UserID}
	if owner.UserID == nil {
		sid := owner.SessionID
		c.SessionID = &sid
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return s.find(db, owner)
}

func ownerScope(db *gorm.DB, owner Owner) *gorm.DB {
	if owner.UserID != nil {
		return db.Where("user_id = ?", *owner.UserID)
	}
	return db.Where("session_id = ?", owner.SessionID)
}
