// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/domain/cart"
	"github.com/sportshop/store-api/internal/domain/order"
	"github.com/sportshop/store-api/internal/domain/product"
	"github.com/sportshop/store-api/internal/domain/user"
	"github.com/sportshop/store-api/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},

		&product.Category{},
		&product.Product{},
		&product.ProductImage{},
		&product.Variant{},

		&cart.Cart{},
		&cart.CartItem{},

		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log *logrus.Logger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("running database auto-migrations")

	for _, model := range Models() {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates the composite indexes that gorm tags cannot express.
// Failures are logged and counted, never fatal.
func (m *Migration) CreateIndexes() (int, error) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_categories_sort_order ON categories(sort_order)",

		"CREATE INDEX IF NOT EXISTS idx_product_variants_product_active ON product_variants(product_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_product_variants_low_stock ON product_variants(is_active, stock)",

		"CREATE INDEX IF NOT EXISTS idx_product_images_product_primary ON product_images(product_id, is_primary)",

		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_order_items_variant_created ON order_items(variant_id, created_at)",

		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).WithField("sql", indexSQL).Warn("failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("database indexes ensured")

	if failed > 0 {
		return failed, fmt.Errorf("%d of %d indexes failed", failed, len(indexes))
	}
	return 0, nil
}

// Seeders are the services used to insert development data, so seed rows
// pass the same validation as API writes.
type Seeders struct {
	Users      *user.Service
	Categories *product.CategoryService
	Products   *product.AdminService
}

// SeedInitialData inserts the admin account, categories and a few sample
// products. Existing rows are left untouched.
func (m *Migration) SeedInitialData(ctx context.Context, cfg *config.Config, seeders Seeders) error {
	m.log.Info("seeding initial data")

	created, err := seeders.Users.EnsureAdmin(ctx, cfg.Seed.AdminName, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if created {
		m.log.WithField("email", cfg.Seed.AdminEmail).Info("created admin user")
	}

	categoryIDs, err := m.seedCategories(ctx, seeders.Categories)
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedProducts(ctx, seeders.Products, categoryIDs); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	m.log.Info("initial data seeded")
	return nil
}

func (m *Migration) seedCategories(ctx context.Context, categories *product.CategoryService) (map[string]uint, error) {
	defaults := []struct {
		name, slug, description string
	}{
		{"Calzado", "calzado", "Zapatillas y botines"},
		{"Indumentaria", "indumentaria", "Remeras, shorts y camperas"},
		{"Accesorios", "accesorios", "Pelotas, bolsos y medias"},
	}

	ids := make(map[string]uint, len(defaults))
	for i, d := range defaults {
		var existing product.Category
		err := m.db.WithContext(ctx).Where("slug = ?", d.slug).First(&existing).Error
		if err == nil {
			ids[d.slug] = existing.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		sortOrder := i + 1
		c, err := categories.CreateCategory(ctx, &product.CategoryRequest{
			Name:        &d.name,
			Slug:        &d.slug,
			Description: &d.description,
			SortOrder:   &sortOrder,
		})
		if err != nil {
			return nil, err
		}
		ids[d.slug] = c.ID
		m.log.WithField("slug", d.slug).Info("created category")
	}
	return ids, nil
}

func (m *Migration) seedProducts(ctx context.Context, products *product.AdminService, categoryIDs map[string]uint) error {
	var count int64
	if err := m.db.WithContext(ctx).Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	price := func(v int64) *int64 { return &v }
	category := func(slug string) *uint {
		if id, ok := categoryIDs[slug]; ok {
			return &id
		}
		return nil
	}

	samples := []product.CreateProductRequest{
		{
			Name:        "Zapatilla Running Pro",
			Slug:        "zapatilla-running-pro",
			Description: "Zapatilla liviana para entrenamiento diario",
			CategoryID:  category("calzado"),
			IsFeatured:  true,
			IsNew:       true,
			Variants: []product.CreateVariantRequest{
				{SKU: "ZRP-NEG-41", Color: "Negro", Size: "41", Stock: 10, CostPrice: price(30000), SalePrice: price(60000)},
				{SKU: "ZRP-NEG-42", Color: "Negro", Size: "42", Stock: 8, CostPrice: price(30000), SalePrice: price(60000)},
				{SKU: "ZRP-AZU-42", Color: "Azul", Size: "42", Stock: 3, CostPrice: price(30000), SalePrice: price(60000), DiscountPrice: price(52000)},
			},
		},
		{
			Name:        "Remera Dry Fit",
			Slug:        "remera-dry-fit",
			Description: "Remera respirable de secado rápido",
			CategoryID:  category("indumentaria"),
			IsNew:       true,
			Variants: []product.CreateVariantRequest{
				{SKU: "RDF-BLA-M", Color: "Blanco", Size: "M", Stock: 25, CostPrice: price(6000), SalePrice: price(15000)},
				{SKU: "RDF-BLA-L", Color: "Blanco", Size: "L", Stock: 20, CostPrice: price(6000), SalePrice: price(15000)},
			},
		},
		{
			Name:        "Pelota de Fútbol N5",
			Slug:        "pelota-futbol-n5",
			Description: "Pelota cosida a mano, tamaño oficial",
			CategoryID:  category("accesorios"),
			IsFeatured:  true,
			Variants: []product.CreateVariantRequest{
				{SKU: "PEL-N5", Color: "Blanco", Size: "5", Stock: 4, CostPrice: price(12000), SalePrice: price(25000)},
			},
		},
	}

	for i := range samples {
		p, err := products.CreateProduct(ctx, &samples[i])
		if err != nil {
			if errors.Is(err, apperror.ErrDuplicateKey) {
				continue
			}
			return err
		}
		m.log.WithField("slug", p.Slug).Info("created sample product")
	}
	return nil
}
