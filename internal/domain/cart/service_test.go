package cart

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
	db := testutil.NewDB(t,
		&product.Category{}, &product.Product{}, &product.ProductImage{}, &product.Variant{},
		&Cart{}, &CartItem{},
	)
	return NewService(db), db
}

func seedVariant(t *testing.T, db *gorm.DB, sku string, stock int, price int64, discount *int64) *product.Variant {
	t.Helper()
	p := product.Product{Name: "Calza " + sku, Slug: "calza-" + sku, IsActive: true}
	require.NoError(t, db.Create(&p).Error)
	v := product.Variant{
		ProductID:     p.ID,
		SKU:           sku,
		Color:         "Negro",
		Size:          "M",
		Stock:         stock,
		MinStock:      1,
		CostPrice:     price / 2,
		SalePrice:     price,
		DiscountPrice: discount,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&v).Error)
	return &v
}

func qty(n int) *int { return &n }

func guest(id string) Owner { return NewOwner(nil, id) }

func TestOwner(t *testing.T) {
	uid := uint(7)

	o := NewOwner(&uid, "sess")
	assert.Equal(t, &uid, o.UserID)
	assert.Empty(t, o.SessionID)

	o = NewOwner(nil, "  sess  ")
	assert.Nil(t, o.UserID)
	assert.Equal(t, "sess", o.SessionID)

	assert.ErrorIs(t, NewOwner(nil, " ").Validate(), apperror.ErrInvalidRequest)
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	s, db := setup(t)
	ctx := context.Background()

	first, err := s.GetOrCreate(ctx, guest("abc"))
	require.NoError(t, err)
	second, err := s.GetOrCreate(ctx, guest("abc"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	uid := uint(3)
	userCart, err := s.GetOrCreate(ctx, NewOwner(&uid, ""))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, userCart.ID)

	var count int64
	require.NoError(t, db.Model(&Cart{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestFind_Missing(t *testing.T) {
	s, _ := setup(t)

	_, err := s.Find(context.Background(), guest("nope"))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAddLine_DefaultsAndPriceCapture(t *testing.T) {
	s, db := setup(t)
	ctx := context.Background()
	discount := int64(15000)
	v := seedVariant(t, db, "CZ-1", 10, 20000, &discount)

	name, err := s.AddLine(ctx, guest("abc"), AddLineRequest{VariantID: v.ID})
	require.NoError(t, err)
	assert.Equal(t, "Calza CZ-1", name)

	// price change after the line exists does not reprice it
	require.NoError(t, db.Model(v).Update("discount_price", nil).Error)

	_, err = s.AddLine(ctx, guest("abc"), AddLineRequest{VariantID: v.ID, Quantity: qty(2)})
	require.NoError(t, err)

	snap, err := s.Snapshot(ctx, guest("abc"))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.Items[0].Quantity)
	assert.Equal(t, int64(15000), snap.Items[0].UnitPrice)
	assert.Equal(t, int64(45000), snap.Subtotal)
	assert.Equal(t, 3, snap.TotalItems)
}

func TestAddLine_Errors(t *testing.T) {
	s, db := setup(t)
	ctx := context.Background()
	v := seedVariant(t, db, "CZ-1", 2, 10000, nil)

	tests := []struct {
		name string
		req  AddLineRequest
		want error
	}{
		{"missing variant", AddLineRequest{}, apperror.ErrInvalidRequest},
		{"zero quantity", AddLineRequest{VariantID: v.ID, Quantity: qty(0)}, apperror.ErrInvalidRequest},
		{"unknown variant", AddLineRequest{VariantID: 999}, apperror.ErrNotFound},
		{"over stock", AddLineRequest{VariantID: v.ID, Quantity: qty(3)}, apperror.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddLine(ctx, guest("abc"), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := s.AddLine(ctx, guest("abc"), AddLineRequest{VariantID: v.ID, Quantity: qty(2)})
	require.NoError(t, err)
	_, err = s.AddLine(ctx, guest("abc"), AddLineRequest{VariantID: v.ID})
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock, "existing plus new quantity exceeds stock")

	snap, err := s.Snapshot(ctx, guest("abc"))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity, "rejected add leaves the line as it was")
}

func TestAddLine_ConcurrentFirstAddMerges(t *testing.T) {
	s, db := setup(t)
	ctx := context.Background()
	v := seedVariant(t, db, "CZ-1", 5, 10000, nil)

	// another request inserts the same line between our lookup and our insert
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:rival_cart_line", func(tx *gorm.DB) {
		item, ok := tx.Statement.Dest.(*CartItem)
		if raced || !ok {
			return
		}
		raced = true
		rival := CartItem{CartID: item.CartID, VariantID: item.VariantID, Quantity: 1, UnitPrice: item.UnitPrice}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			tx.AddError(err)
		}
	}))

	_, err := s.AddLine(ctx, guest("abc"), AddLineRequest{VariantID: v.ID, Quantity: qty(2)})
	require.NoError(t, err)
	require.True(t, raced)

	snap, err := s.Snapshot(ctx, guest("abc"))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.Items[0].Quantity)
}

func TestAddLine_InactiveProduct(t *testing.T) {
	s, db := setup(t)
	v := seedVariant(t, db, "CZ-1", 5, 10000, nil)
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", v.ProductID).Update("is_active", false).Error)

	_, err := s.AddLine(context.Background(), guest("abc"), AddLineRequest{VariantID: v.ID})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateLine(t *testing.T) {
	s, db := setup(t)
	ctx := context.Background()
	v := seedVariant(t, db, "CZ-1", 5, 10000, nil)

	_, err := s.AddLine(ctx, guest("abc"), AddLineRequest{VariantID: v.ID})
	require.NoError(t, err)
	snap, err := s.Snapshot(ctx, guest("abc"))
	require.NoError(t, err)
	itemID := snap.Items[0].ID

	assert.ErrorIs(t, s.UpdateLine(ctx, guest("abc"), itemID, 0), apperror.ErrInvalidRequest)
	assert.ErrorIs(t, s.UpdateLine(ctx, guest("abc"), itemID, 6), apperror.ErrInsufficientStock)
	assert.ErrorIs(t, s.UpdateLine(ctx, guest("other"), itemID, 2), apperror.ErrNotFound)
	assert.ErrorIs(t, s.UpdateLine(ctx, guest("abc"), itemID+100, 2), apperror.ErrNotFound)

	require.NoError(t, s.UpdateLine(ctx, guest("abc"), itemID, 5))
	snap, err = s.Snapshot(ctx, guest("abc"))
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Items[0].Quantity)
}

func TestRemoveLineAndClear(t *testing.T) {
	s, db := setup(t)
	ctx := context.Background()
	a := seedVariant(t, db, "A", 5, 1000, nil)
	b := seedVariant(t, db, "B", 5, 2000, nil)

	_, err := s.AddLine(ctx, guest("abc"), AddLineRequest{VariantID: a.ID})
	require.NoError(t, err)
	_, err = s.AddLine(ctx, guest("abc"), AddLineRequest{VariantID: b.ID})
	require.NoError(t, err)

	snap, err := s.Snapshot(ctx, guest("abc"))
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)

	require.NoError(t, s.RemoveLine(ctx, guest("abc"), snap.Items[0].ID))
	assert.ErrorIs(t, s.RemoveLine(ctx, guest("abc"), snap.Items[0].ID), apperror.ErrNotFound)

	require.NoError(t, s.Clear(ctx, guest("abc")))
	require.NoError(t, s.Clear(ctx, guest("never-seen")))

	snap, err = s.Snapshot(ctx, guest("abc"))
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.Subtotal)
}

func TestSnapshot_JoinsVariantData(t *testing.T) {
	s, db := setup(t)
	ctx := context.Background()
	v := seedVariant(t, db, "CZ-1", 4, 10000, nil)
	require.NoError(t, db.Create(&product.ProductImage{ProductID: v.ProductID, URL: "/img/b.jpg", SortOrder: 2}).Error)
	require.NoError(t, db.Create(&product.ProductImage{ProductID: v.ProductID, URL: "/img/a.jpg", SortOrder: 1, IsPrimary: true}).Error)

	_, err := s.AddLine(ctx, guest("abc"), AddLineRequest{VariantID: v.ID, Quantity: qty(2)})
	require.NoError(t, err)

	snap, err := s.Snapshot(ctx, guest("abc"))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)

	line := snap.Items[0]
	assert.Equal(t, "CZ-1", line.SKU)
	assert.Equal(t, "Negro", line.Color)
	assert.Equal(t, "M", line.Size)
	assert.Equal(t, 4, line.Stock)
	assert.Equal(t, "Calza CZ-1", line.ProductName)
	assert.Equal(t, "/img/a.jpg", line.Image)
	assert.True(t, line.Purchasable())
}

func TestSnapshot_EmptyCartHasNoNilItems(t *testing.T) {
	s, _ := setup(t)

	snap, err := s.Snapshot(context.Background(), guest("fresh"))
	require.NoError(t, err)
	assert.NotNil(t, snap.Items)
	assert.NotZero(t, snap.ID)
}
