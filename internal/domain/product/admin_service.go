// internal/domain/product/admin_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/pkg/apperror"
	"gorm.io/gorm"
)

// AdminService handles back-office writes on products and variants
type AdminService struct {
	db      *gorm.DB
	config  *config.Config
	catalog *Service
}

// NewAdminService creates a new admin service. Writes invalidate catalog's cache.
func NewAdminService(db *gorm.DB, cfg *config.Config, catalog *Service) *AdminService {
	return &AdminService{
		db:      db,
		config:  cfg,
		catalog: catalog,
	}
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	Name        string                 `json:"nombre"`
	Slug        string                 `json:"slug"`
	Description string                 `json:"descripcion"`
	CategoryID  *uint                  `json:"categoria_id"`
	IsFeatured  bool                   `json:"destacado"`
	IsNew       bool                   `json:"nuevo"`
	Images      []string               `json:"imagenes"`
	Variants    []CreateVariantRequest `json:"variantes"`
}

// UpdateProductRequest changes only the fields that are present
type UpdateProductRequest struct {
	Name        *string `json:"nombre"`
	Slug        *string `json:"slug"`
	Description *string `json:"descripcion"`
	CategoryID  *uint   `json:"categoria_id"`
	IsFeatured  *bool   `json:"destacado"`
	IsNew       *bool   `json:"nuevo"`
	IsActive    *bool   `json:"activo"`
}

// CreateVariantRequest represents variant creation data. ProductID is
// ignored when the variant is nested in a product creation.
type CreateVariantRequest struct {
	ProductID     uint   `json:"producto_id"`
	SKU           string `json:"sku"`
	Color         string `json:"color"`
	Size          string `json:"talla"`
	Stock         int    `json:"stock"`
	MinStock      *int   `json:"stock_minimo"`
	CostPrice     *int64 `json:"precio_compra"`
	SalePrice     *int64 `json:"precio_venta"`
	DiscountPrice *int64 `json:"precio_descuento"`
}

// UpdateVariantRequest changes only the fields that are present, except
// DiscountPrice which is always written so that null clears the discount.
type UpdateVariantRequest struct {
	SKU           *string `json:"sku"`
	Color         *string `json:"color"`
	Size          *string `json:"talla"`
	Stock         *int    `json:"stock"`
	MinStock      *int    `json:"stock_minimo"`
	CostPrice     *int64  `json:"precio_compra"`
	SalePrice     *int64  `json:"precio_venta"`
	DiscountPrice *int64  `json:"precio_descuento"`
	IsActive      *bool   `json:"activo"`
}

// ProductWithVariants is a back-office listing row
type ProductWithVariants struct {
	Product
	CategoryName string `json:"categoria_nombre"`
}

// CreateProduct inserts a product with its images and variants atomically
func (s *AdminService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Name == "" || req.Slug == "" {
		return nil, apperror.InvalidRequest("Nombre y slug son obligatorios")
	}

	if err := s.ensureSlugFree(ctx, s.db, req.Slug, 0); err != nil {
		return nil, err
	}

	p := Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		IsFeatured:  req.IsFeatured,
		IsNew:       req.IsNew,
		IsActive:    true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return apperror.FromDB(err, "", "slug")
		}

		for i, url := range req.Images {
			img := ProductImage{
				ProductID: p.ID,
				URL:       url,
				AltText:   p.Name,
				SortOrder: i + 1,
				IsPrimary: i == 0,
			}
			if err := tx.Create(&img).Error; err != nil {
				return fmt.Errorf("failed to create product image: %w", err)
			}
			p.Images = append(p.Images, img)
		}

		for i := range req.Variants {
			v, err := s.buildVariant(p.ID, &req.Variants[i])
			if err != nil {
				return err
			}
			if err := s.ensureSKUFree(ctx, tx, v.SKU, 0); err != nil {
				return err
			}
			if err := tx.Create(v).Error; err != nil {
				return apperror.FromDB(err, "", "sku")
			}
			p.Variants = append(p.Variants, *v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.catalog.InvalidateCategories(ctx)
	return &p, nil
}

// UpdateProduct applies a partial update
func (s *AdminService) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*Product, error) {
	var p Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, apperror.FromDB(err, "Producto no encontrado", "")
	}
	oldSlug := p.Slug

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if slug == "" {
			return nil, apperror.InvalidRequest("El slug no puede estar vacío")
		}
		if slug != p.Slug {
			if err := s.ensureSlugFree(ctx, s.db, slug, p.ID); err != nil {
				return nil, err
			}
		}
		updates["slug"] = slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.IsNew != nil {
		updates["is_new"] = *req.IsNew
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&p).Updates(updates).Error; err != nil {
			return nil, apperror.FromDB(err, "Producto no encontrado", "slug")
		}
	}

	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}

	s.catalog.Invalidate(ctx, oldSlug, p.Slug)
	s.catalog.InvalidateCategories(ctx)
	return &p, nil
}

// DeleteProduct soft-deletes the product identified by slug
func (s *AdminService) DeleteProduct(ctx context.Context, slug string) (*Product, error) {
	var p Product
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, apperror.FromDB(err, "Producto no encontrado", "")
	}

	if err := s.db.WithContext(ctx).Model(&p).Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate product: %w", err)
	}
	p.IsActive = false

	s.catalog.Invalidate(ctx, slug)
	s.catalog.InvalidateCategories(ctx)
	return &p, nil
}

// ListProductsWithVariants returns every product with its active variants, newest first
func (s *AdminService) ListProductsWithVariants(ctx context.Context) ([]ProductWithVariants, error) {
	var products []Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("id")
		}).
		Order("id DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	rows := make([]ProductWithVariants, len(products))
	for i, p := range products {
		rows[i] = ProductWithVariants{Product: p}
		if p.Category != nil {
			rows[i].CategoryName = p.Category.Name
		}
	}
	return rows, nil
}

// CreateVariant adds a variant to an existing product
func (s *AdminService) CreateVariant(ctx context.Context, req *CreateVariantRequest) (*Variant, error) {
	if req.ProductID == 0 {
		return nil, apperror.InvalidRequest("producto_id, sku, precio_compra y precio_venta son obligatorios")
	}

	var p Product
	if err := s.db.WithContext(ctx).Select("id", "slug").First(&p, req.ProductID).Error; err != nil {
		return nil, apperror.FromDB(err, "Producto no encontrado", "")
	}

	v, err := s.buildVariant(p.ID, req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSKUFree(ctx, s.db, v.SKU, 0); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return nil, apperror.FromDB(err, "", "sku")
	}

	s.catalog.Invalidate(ctx, p.Slug)
	return v, nil
}

// UpdateVariant applies a partial update to a variant
func (s *AdminService) UpdateVariant(ctx context.Context, id uint, req *UpdateVariantRequest) (*Variant, error) {
	var v Variant
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, apperror.FromDB(err, "Variante no encontrada", "")
	}

	var discount interface{}
	if req.DiscountPrice != nil {
		discount = *req.DiscountPrice
	}
	updates := map[string]interface{}{
		"discount_price": discount,
	}
	if req.SKU != nil {
		sku := strings.TrimSpace(*req.SKU)
		if sku == "" {
			return nil, apperror.InvalidRequest("El sku no puede estar vacío")
		}
		if sku != v.SKU {
			if err := s.ensureSKUFree(ctx, s.db, sku, v.ID); err != nil {
				return nil, err
			}
		}
		updates["sku"] = sku
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.Size != nil {
		updates["size"] = *req.Size
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, apperror.InvalidRequest("El stock no puede ser negativo")
		}
		updates["stock"] = *req.Stock
	}
	if req.MinStock != nil {
		updates["min_stock"] = *req.MinStock
	}
	if req.CostPrice != nil {
		updates["cost_price"] = *req.CostPrice
	}
	if req.SalePrice != nil {
		updates["sale_price"] = *req.SalePrice
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Model(&v).Updates(updates).Error; err != nil {
		return nil, apperror.FromDB(err, "Variante no encontrada", "sku")
	}
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload variant: %w", err)
	}

	s.invalidateProductOf(ctx, v.ProductID)
	return &v, nil
}

func (s *AdminService) buildVariant(productID uint, req *CreateVariantRequest) (*Variant, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" || req.CostPrice == nil || req.SalePrice == nil {
		return nil, apperror.InvalidRequest("producto_id, sku, precio_compra y precio_venta son obligatorios")
	}
	if req.Stock < 0 {
		return nil, apperror.InvalidRequest("El stock no puede ser negativo")
	}

	minStock := s.config.Shop.DefaultMinStock
	if req.MinStock != nil {
		minStock = *req.MinStock
	}

	return &Variant{
		ProductID:     productID,
		SKU:           sku,
		Color:         req.Color,
		Size:          req.Size,
		Stock:         req.Stock,
		MinStock:      minStock,
		CostPrice:     *req.CostPrice,
		SalePrice:     *req.SalePrice,
		DiscountPrice: req.DiscountPrice,
		IsActive:      true,
	}, nil
}

// ensureSlugFree reports DuplicateKey when another product already owns slug
func (s *AdminService) ensureSlugFree(ctx context.Context, db *gorm.DB, slug string, exceptID uint) error {
	var existing Product
	err := db.WithContext(ctx).Select("id").Where("slug = ? AND id <> ?", slug, exceptID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	return apperror.DuplicateKey("slug")
}

// ensureSKUFree reports DuplicateKey when another variant already owns sku
func (s *AdminService) ensureSKUFree(ctx context.Context, db *gorm.DB, sku string, exceptID uint) error {
	var existing Variant
	err := db.WithContext(ctx).Select("id").Where("sku = ? AND id <> ?", sku, exceptID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check sku: %w", err)
	}
	return apperror.DuplicateKey("sku")
}

func (s *AdminService) invalidateProductOf(ctx context.Context, productID uint) {
	var p Product
	if err := s.db.WithContext(ctx).Select("slug").First(&p, productID).Error; err == nil {
		s.catalog.Invalidate(ctx, p.Slug)
	}
}
