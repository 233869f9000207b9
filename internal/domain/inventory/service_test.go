package inventory

import (
	"context"
	"testing"

	"github.com/sportshop/store-api/internal/domain/product"
	"github.com/sportshop/store-api/internal/pkg/apperror"
	"github.com/sportshop/store-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t, &product.Product{}, &product.Variant{})
	return NewService(db, testutil.Config()), db
}

func seedVariant(t *testing.T, db *gorm.DB, sku string, stock, minStock int) *product.Variant {
	t.Helper()
	p := product.Product{Name: "Producto " + sku, Slug: "p-" + sku, IsActive: true}
	require.NoError(t, db.Create(&p).Error)
	v := product.Variant{ProductID: p.ID, SKU: sku, Stock: stock, MinStock: minStock, SalePrice: 1000, CostPrice: 500, IsActive: true}
	require.NoError(t, db.Create(&v).Error)
	return &v
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var v product.Variant
	require.NoError(t, db.First(&v, id).Error)
	return v.Stock
}

func TestReserve_Decrements(t *testing.T) {
	s, db := setup(t)
	a := seedVariant(t, db, "A", 5, 1)
	b := seedVariant(t, db, "B", 2, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return s.Reserve(tx, []Line{{VariantID: a.ID, Quantity: 3}, {VariantID: b.ID, Quantity: 2}})
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stockOf(t, db, a.ID))
	assert.Equal(t, 0, stockOf(t, db, b.ID))
}

func TestReserve_InsufficientRollsBackEverything(t *testing.T) {
	s, db := setup(t)
	a := seedVariant(t, db, "A", 5, 1)
	b := seedVariant(t, db, "B", 1, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return s.Reserve(tx, []Line{
			{VariantID: a.ID, Quantity: 3, ProductName: "A"},
			{VariantID: b.ID, Quantity: 2, ProductName: "Calza B"},
		})
	})
	require.ErrorIs(t, err, apperror.ErrInsufficientStock)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 1, appErr.Details["stock_disponible"])
	assert.Equal(t, "Calza B", appErr.Details["producto"])

	assert.Equal(t, 5, stockOf(t, db, a.ID))
	assert.Equal(t, 1, stockOf(t, db, b.ID))
}

func TestReserve_SecondBuyerLoses(t *testing.T) {
	s, db := setup(t)
	v := seedVariant(t, db, "A", 3, 1)

	first := db.Transaction(func(tx *gorm.DB) error {
		return s.Reserve(tx, []Line{{VariantID: v.ID, Quantity: 2}})
	})
	second := db.Transaction(func(tx *gorm.DB) error {
		return s.Reserve(tx, []Line{{VariantID: v.ID, Quantity: 2}})
	})

	assert.NoError(t, first)
	assert.ErrorIs(t, second, apperror.ErrInsufficientStock)
	assert.Equal(t, 1, stockOf(t, db, v.ID))
}

func TestRelease(t *testing.T) {
	s, db := setup(t)
	v := seedVariant(t, db, "A", 1, 1)

	require.NoError(t, s.Release(db, []Line{{VariantID: v.ID, Quantity: 4}}))
	assert.Equal(t, 5, stockOf(t, db, v.ID))
}

func TestLowStock(t *testing.T) {
	s, db := setup(t)
	seedVariant(t, db, "OK", 10, 5)
	seedVariant(t, db, "EDGE", 5, 5)
	seedVariant(t, db, "ZERO", 0, 5)
	off := seedVariant(t, db, "OFF", 0, 5)
	require.NoError(t, db.Model(off).Update("is_active", false).Error)

	items, err := s.LowStock(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ZERO", items[0].SKU)
	assert.Equal(t, "EDGE", items[1].SKU)
	assert.Equal(t, "Producto ZERO", items[0].ProductName)
}
