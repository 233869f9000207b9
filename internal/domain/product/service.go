// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/pkg/apperror"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	featuredLimit = 8
	newestLimit   = 8
	relatedLimit  = 4
)

// Service handles public catalog reads
type Service struct {
	db     *gorm.DB
	config *config.Config
	cache  *catalogCache
	group  singleflight.Group
}

// NewService creates a new catalog service. cache may be nil.
func NewService(db *gorm.DB, cache Cache, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		cache: &catalogCache{
			backend: cache,
			ttl:     cfg.Shop.CatalogCacheTTL,
			log:     log,
		},
	}
}

// Summary is the short product form used by listings
type Summary struct {
	ID   uint   `json:"id"`
	Name string `json:"nombre"`
	Slug string `json:"slug"`
}

// ProductDetail is a product with its category name, images and variants
type ProductDetail struct {
	Product
	CategoryName string `json:"categoria_nombre"`
}

// ListProducts returns every active product, newest first
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Featured returns up to eight featured active products
func (s *Service) Featured(ctx context.Context) ([]Summary, error) {
	return s.summaries(s.db.WithContext(ctx).
		Where("is_featured = ? AND is_active = ?", true, true).
		Order("id").
		Limit(featuredLimit))
}

// Newest returns the eight most recently created active products
func (s *Service) Newest(ctx context.Context) ([]Summary, error) {
	return s.summaries(s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(newestLimit))
}

// Search matches active products whose name contains q, ignoring case
func (s *Service) Search(ctx context.Context, q string) ([]Summary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.InvalidRequest("Parámetro de búsqueda requerido")
	}

	pattern := "%" + strings.ToLower(q) + "%"
	return s.summaries(s.db.WithContext(ctx).
		Where("is_active = ? AND LOWER(name) LIKE ?", true, pattern).
		Order("name"))
}

// Related returns up to four active products sharing the category of slug.
// An unknown slug yields an empty list.
func (s *Service) Related(ctx context.Context, slug string) ([]Summary, error) {
	var p Product
	err := s.db.WithContext(ctx).Select("id", "category_id").Where("slug = ?", slug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []Summary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if p.CategoryID == nil {
		return []Summary{}, nil
	}

	return s.summaries(s.db.WithContext(ctx).
		Where("category_id = ? AND slug <> ? AND is_active = ?", *p.CategoryID, slug, true).
		Order("id").
		Limit(relatedLimit))
}

// GetBySlug returns an active product with images and variants, through the cache
func (s *Service) GetBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	key := productCacheKey(slug)

	var cached ProductDetail
	if s.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	// shared by every waiter, so it must outlive the caller that started it
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		detail, err := s.loadDetail(loadCtx, s.db.Where("products.slug = ? AND products.is_active = ?", slug, true))
		if err != nil {
			return nil, err
		}
		s.cache.set(loadCtx, key, detail)
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProductDetail), nil
}

// GetByID returns a product in any state, for the back office
func (s *Service) GetByID(ctx context.Context, id uint) (*ProductDetail, error) {
	return s.loadDetail(ctx, s.db.Where("products.id = ?", id))
}

// Invalidate drops cached entries for the given product slugs
func (s *Service) Invalidate(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, productCacheKey(slug))
		}
	}
	s.cache.del(ctx, keys...)
}

// InvalidateCategories drops the cached category listing
func (s *Service) InvalidateCategories(ctx context.Context) {
	s.cache.del(ctx, cacheKeyCategories)
}

func (s *Service) loadDetail(ctx context.Context, scope *gorm.DB) (*ProductDetail, error) {
	var p Product
	err := scope.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, id")
		}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		First(&p).Error
	if err != nil {
		return nil, apperror.FromDB(err, "Producto no encontrado", "slug")
	}

	detail := &ProductDetail{Product: p}
	if p.Category != nil {
		detail.CategoryName = p.Category.Name
	}
	return detail, nil
}

func (s *Service) summaries(query *gorm.DB) ([]Summary, error) {
	summaries := []Summary{}
	if err := query.Model(&Product{}).Select("id", "name", "slug").Scan(&summaries).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return summaries, nil
}
