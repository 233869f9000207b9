// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"
)

// Product represents a catalog product. Sellable units are its variants.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"nombre"`
	Slug        string    `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string    `gorm:"type:text" json:"descripcion"`
	CategoryID  *uint     `gorm:"index" json:"categoria_id"`
	IsFeatured  bool      `gorm:"default:false" json:"destacado"`
	IsNew       bool      `gorm:"default:false" json:"nuevo"`
	IsActive    bool      `gorm:"default:true;index" json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Category *Category     `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Images   []ProductImage `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"imagenes,omitempty"`
	Variants []Variant      `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variantes,omitempty"`
}

// Category groups products for browsing
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"nombre"`
	Slug        string    `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string    `gorm:"size:500" json:"descripcion"`
	SortOrder   int       `gorm:"default:0" json:"orden"`
	IsActive    bool      `gorm:"default:true" json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductImage represents product images
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"producto_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"default:0" json:"orden"`
	IsPrimary bool      `gorm:"default:false" json:"es_principal"`
	CreatedAt time.Time `json:"created_at"`
}

// Variant is one sellable color/size combination with its own stock and prices
type Variant struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     uint      `gorm:"not null;index" json:"producto_id"`
	SKU           string    `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Color         string    `gorm:"size:50" json:"color"`
	Size          string    `gorm:"size:20" json:"talla"`
	Stock         int       `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	MinStock      int       `gorm:"not null;default:5" json:"stock_minimo"`
	CostPrice     int64     `gorm:"not null" json:"precio_compra"`
	SalePrice     int64     `gorm:"not null" json:"precio_venta"`
	DiscountPrice *int64    `json:"precio_descuento"`
	IsActive      bool      `gorm:"default:true;index" json:"activo"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string      { return "products" }
func (Category) TableName() string     { return "categories" }
func (ProductImage) TableName() string { return "product_images" }
func (Variant) TableName() string      { return "product_variants" }

// CurrentPrice is the discount price when one is set, otherwise the sale price
func (v *Variant) CurrentPrice() int64 {
	return CurrentPrice(v.SalePrice, v.DiscountPrice)
}

// Descriptor is the "color size" label printed on order lines
func (v *Variant) Descriptor() string {
	return Descriptor(v.Color, v.Size)
}

// CurrentPrice applies the discount-or-sale rule to raw column values
func CurrentPrice(sale int64, discount *int64) int64 {
	if discount != nil && *discount > 0 {
		return *discount
	}
	return sale
}

// Descriptor joins color and size, dropping blanks
func Descriptor(color, size string) string {
	return strings.Join(strings.Fields(color+" "+size), " ")
}

// PrimaryImage returns the primary image URL, falling back to the first one
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}
