// internal/domain/cart/entity.go
package cart

import (
	"strings"
	"time"

	"github.com/sportshop/store-api/internal/pkg/apperror"
)

// Cart belongs to exactly one user or one guest session. Both owner
// columns are unique, which is what makes creation an idempotent upsert.
type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex" json:"usuario_id"`
	SessionID *string   `gorm:"uniqueIndex;size:255" json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// CartItem is one (cart, variant) line. UnitPrice is captured when the
// line is first added and never repriced.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_variant" json:"carrito_id"`
	VariantID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_variant" json:"variante_id"`
	Quantity  int       `gorm:"not null" json:"cantidad"`
	UnitPrice int64     `gorm:"not null" json:"precio_unitario"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// Owner identifies whose cart is meant. An authenticated user wins over
// a guest session when both are known.
type Owner struct {
	UserID    *uint
	SessionID string
}

// NewOwner resolves the cart owner from an optional user and a session header
func NewOwner(userID *uint, sessionID string) Owner {
	if userID != nil {
		return Owner{UserID: userID}
	}
	return Owner{SessionID: strings.TrimSpace(sessionID)}
}

// Validate requires one of user or session
func (o Owner) Validate() error {
	if o.UserID == nil && o.SessionID == "" {
		return apperror.InvalidRequest("Debe enviar token o x-session-id")
	}
	return nil
}

// Line is a cart line joined with live variant and product data
type Line struct {
	ID            uint   `json:"id"`
	CartID        uint   `json:"carrito_id"`
	VariantID     uint   `json:"variante_id"`
	Quantity      int    `json:"cantidad"`
	UnitPrice     int64  `json:"precio_unitario"`
	SKU           string `json:"sku"`
	Color         string `json:"color"`
	Size          string `json:"talla"`
	Stock         int    `json:"stock"`
	SalePrice     int64  `json:"precio_venta"`
	DiscountPrice *int64 `json:"precio_descuento"`
	ProductName   string `json:"producto_nombre"`
	Image         string `json:"imagen"`
	VariantActive bool   `json:"-"`
	ProductActive bool   `json:"-"`
}

// Purchasable reports whether both the variant and its product are still on sale
func (l *Line) Purchasable() bool {
	return l.VariantActive && l.ProductActive
}

// Snapshot is the cart as shown to the shopper
type Snapshot struct {
	ID         uint   `json:"id"`
	Items      []Line `json:"items"`
	Subtotal   int64  `json:"subtotal"`
	TotalItems int    `json:"total_items"`
}

// NewSnapshot totals lines at their stored unit price
func NewSnapshot(cartID uint, lines []Line) *Snapshot {
	snap := &Snapshot{ID: cartID, Items: lines}
	if snap.Items == nil {
		snap.Items = []Line{}
	}
	for _, l := range lines {
		snap.Subtotal += l.UnitPrice * int64(l.Quantity)
		snap.TotalItems += l.Quantity
	}
	return snap
}
