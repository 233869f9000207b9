// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sportshop/store-api/internal/pkg/apperror"
	"gorm.io/gorm"
)

// CategoryService handles category operations
type CategoryService struct {
	db      *gorm.DB
	catalog *Service
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, catalog *Service) *CategoryService {
	return &CategoryService{
		db:      db,
		catalog: catalog,
	}
}

// CategoryWithCount is a category with the number of active products in it
type CategoryWithCount struct {
	Category
	ProductCount int64 `json:"total_productos"`
}

// CategoryRequest is used for both create and update; nil fields are left alone on update
type CategoryRequest struct {
	Name        *string `json:"nombre"`
	Slug        *string `json:"slug"`
	Description *string `json:"descripcion"`
	SortOrder   *int    `json:"orden"`
	IsActive    *bool   `json:"activo"`
}

// ListCategories returns active categories ordered for navigation, through the cache
func (s *CategoryService) ListCategories(ctx context.Context) ([]CategoryWithCount, error) {
	var cached []CategoryWithCount
	if s.catalog.cache.get(ctx, cacheKeyCategories, &cached) {
		return cached, nil
	}

	// shared by every waiter, so it must outlive the caller that started it
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.catalog.group.Do(cacheKeyCategories, func() (interface{}, error) {
		rows := []CategoryWithCount{}
		if err := s.countQuery(loadCtx).Order("c.sort_order, c.name").Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		s.catalog.cache.set(loadCtx, cacheKeyCategories, rows)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]CategoryWithCount), nil
}

// GetCategory returns one active category with its product count
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*CategoryWithCount, error) {
	var rows []CategoryWithCount
	if err := s.countQuery(ctx).Where("c.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("Categoría no encontrada")
	}
	return &rows[0], nil
}

// CreateCategory inserts a category
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryRequest) (*Category, error) {
	if req.Name == nil || req.Slug == nil || strings.TrimSpace(*req.Name) == "" || strings.TrimSpace(*req.Slug) == "" {
		return nil, apperror.InvalidRequest("Nombre y slug son obligatorios")
	}

	c := Category{
		Name:     strings.TrimSpace(*req.Name),
		Slug:     strings.TrimSpace(*req.Slug),
		IsActive: true,
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.SortOrder != nil {
		c.SortOrder = *req.SortOrder
	}

	if err := s.ensureSlugFree(ctx, c.Slug, 0); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperror.FromDB(err, "", "slug")
	}

	s.catalog.InvalidateCategories(ctx)
	return &c, nil
}

// UpdateCategory applies a partial update
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryRequest) (*Category, error) {
	var c Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, apperror.FromDB(err, "Categoría no encontrada", "")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if slug == "" {
			return nil, apperror.InvalidRequest("El slug no puede estar vacío")
		}
		if slug != c.Slug {
			if err := s.ensureSlugFree(ctx, slug, c.ID); err != nil {
				return nil, err
			}
		}
		updates["slug"] = slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&c).Updates(updates).Error; err != nil {
			return nil, apperror.FromDB(err, "Categoría no encontrada", "slug")
		}
	}
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload category: %w", err)
	}

	s.catalog.InvalidateCategories(ctx)
	return &c, nil
}

// DeleteCategory soft-deletes a category; its products keep their reference
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&Category{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("Categoría no encontrada")
	}

	s.catalog.InvalidateCategories(ctx)
	return nil
}

func (s *CategoryService) countQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("categories AS c").
		Select("c.*, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN products p ON p.category_id = c.id AND p.is_active = ?", true).
		Where("c.is_active = ?", true).
		Group("c.id")
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, slug string, exceptID uint) error {
	var existing Category
	err := s.db.WithContext(ctx).Select("id").Where("slug = ? AND id <> ?", slug, exceptID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	return apperror.DuplicateKey("slug")
}
