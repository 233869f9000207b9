package order

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/sportshop/store-api/internal/domain/cart"
	"github.com/sportshop/store-api/internal/domain/inventory"
	"github.com/sportshop/store-api/internal/domain/product"
	"github.com/sportshop/store-api/internal/pkg/apperror"
	"github.com/sportshop/store-api/internal/pkg/auth"
	"github.com/sportshop/store-api/internal/pkg/logger"
	"github.com/sportshop/store-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	placed  []string
	changed []Status
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, o *Order) {
	n.placed = append(n.placed, o.Number)
}

func (n *recordingNotifier) StatusChanged(_ context.Context, o *Order, previous Status) {
	n.changed = append(n.changed, previous, o.Status)
}

type fixture struct {
	db       *gorm.DB
	carts    *cart.Service
	orders   *Service
	notifier *recordingNotifier
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t,
		&product.Category{}, &product.Product{}, &product.ProductImage{}, &product.Variant{},
		&cart.Cart{}, &cart.CartItem{},
		&Order{}, &OrderItem{}, &OrderStatusHistory{},
	)
	cfg := testutil.Config()
	carts := cart.NewService(db)
	notifier := &recordingNotifier{}
	orders := NewService(db, cfg, carts, inventory.NewService(db, cfg), notifier, logger.Discard())
	return &fixture{db: db, carts: carts, orders: orders, notifier: notifier}
}

func (f *fixture) variant(t *testing.T, sku string, stock int, price int64) *product.Variant {
	t.Helper()
	p := product.Product{Name: "Remera " + sku, Slug: "remera-" + sku, IsActive: true}
	require.NoError(t, f.db.Create(&p).Error)
	v := product.Variant{
		ProductID: p.ID,
		SKU:       sku,
		Color:     "Rojo",
		Size:      "M",
		Stock:     stock,
		MinStock:  1,
		CostPrice: price / 2,
		SalePrice: price,
		IsActive:  true,
	}
	require.NoError(t, f.db.Create(&v).Error)
	return &v
}

func (f *fixture) add(t *testing.T, owner cart.Owner, v *product.Variant, quantity int) {
	t.Helper()
	_, err := f.carts.AddLine(context.Background(), owner, cart.AddLineRequest{VariantID: v.ID, Quantity: &quantity})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var v product.Variant
	require.NoError(t, f.db.First(&v, id).Error)
	return v.Stock
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerName:  "Ana Pérez",
		CustomerEmail: "ana@example.com",
		Address:       "Av. Siempre Viva 742",
		City:          "Córdoba",
		Province:      "Córdoba",
	}
}

func guest(id string) cart.Owner { return cart.NewOwner(nil, id) }

func TestCreateOrder_TotalsAndSideEffects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "SKU-RED-M", 10, 20000)
	f.add(t, guest("s1"), v, 2)

	conf, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, conf.Status)
	assert.Equal(t, int64(45000), conf.Total)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{4}-\d{4}$`), conf.Number)

	o, err := f.orders.GetByNumber(ctx, conf.Number)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), o.Subtotal)
	assert.Equal(t, int64(5000), o.ShippingCost)
	assert.Equal(t, o.Subtotal+o.ShippingCost, o.Total)
	assert.Equal(t, "transferencia", o.PaymentMethod)
	assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
	assert.Nil(t, o.PostalCode)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Rojo M", o.Items[0].VariantInfo)
	assert.Equal(t, "SKU-RED-M", o.Items[0].SKU)
	assert.Equal(t, int64(40000), o.Items[0].Subtotal)
	require.Len(t, o.History, 1)
	assert.Equal(t, StatusPending, o.History[0].Status)

	assert.Equal(t, 8, f.stock(t, v.ID))

	snap, err := f.carts.Snapshot(ctx, guest("s1"))
	require.NoError(t, err)
	assert.Empty(t, snap.Items)

	assert.Equal(t, []string{conf.Number}, f.notifier.placed)
}

func TestCreateOrder_FreeShippingAndCurrentPrice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.variant(t, "A", 10, 60000)
	b := f.variant(t, "B", 10, 30000)
	f.add(t, guest("s1"), a, 1)
	f.add(t, guest("s1"), b, 2)

	// discount applied after the line was added is what the order charges
	discount := int64(25000)
	require.NoError(t, f.db.Model(b).Update("discount_price", discount).Error)

	conf, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.NoError(t, err)

	o, err := f.orders.GetByNumber(ctx, conf.Number)
	require.NoError(t, err)
	assert.Equal(t, int64(110000), o.Subtotal)
	assert.Zero(t, o.ShippingCost)
	assert.Equal(t, int64(110000), o.Total)

	var sum int64
	for _, item := range o.Items {
		sum += item.Subtotal
	}
	assert.Equal(t, o.Subtotal, sum)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := setup(t)
	req := validRequest()
	req.Province = "   "

	_, err := f.orders.CreateOrder(context.Background(), guest("s1"), req)
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)

	_, err = f.orders.CreateOrder(context.Background(), cart.Owner{}, validRequest())
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
}

func TestCreateOrder_NoCart(t *testing.T) {
	f := setup(t)

	_, err := f.orders.CreateOrder(context.Background(), guest("ghost"), validRequest())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.carts.GetOrCreate(ctx, guest("s1"))
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)
	assert.Zero(t, f.count(t, &Order{}))
}

func TestCreateOrder_InactiveLinesSkipped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	active := f.variant(t, "ON", 5, 10000)
	retired := f.variant(t, "OFF", 5, 10000)
	f.add(t, guest("s1"), active, 1)
	f.add(t, guest("s1"), retired, 1)
	require.NoError(t, f.db.Model(retired).Update("is_active", false).Error)

	conf, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.NoError(t, err)

	o, err := f.orders.GetByNumber(ctx, conf.Number)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "ON", o.Items[0].SKU)

	snap, err := f.carts.Snapshot(ctx, guest("s1"))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, retired.ID, snap.Items[0].VariantID)
	assert.Equal(t, 5, f.stock(t, retired.ID))

	// only inactive lines left
	_, err = f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)
	assert.Equal(t, int64(1), f.count(t, &Order{}))
}

func TestCreateOrder_InsufficientStockLeavesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "A", 5, 10000)
	f.add(t, guest("s1"), v, 4)
	require.NoError(t, f.db.Model(v).Update("stock", 3).Error)

	_, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.ErrorIs(t, err, apperror.ErrInsufficientStock)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 3, appErr.Details["stock_disponible"])

	assert.Zero(t, f.count(t, &Order{}))
	assert.Zero(t, f.count(t, &OrderItem{}))
	assert.Equal(t, 3, f.stock(t, v.ID))

	snap, err := f.carts.Snapshot(ctx, guest("s1"))
	require.NoError(t, err)
	assert.Len(t, snap.Items, 1)
}

func TestCreateOrder_CompetingCartsCannotOversell(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "A", 3, 10000)
	f.add(t, guest("s1"), v, 2)
	f.add(t, guest("s2"), v, 2)

	_, first := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	_, second := f.orders.CreateOrder(ctx, guest("s2"), validRequest())

	assert.NoError(t, first)
	assert.ErrorIs(t, second, apperror.ErrInsufficientStock)
	assert.Equal(t, 1, f.stock(t, v.ID))
	assert.Equal(t, int64(1), f.count(t, &Order{}))
}

func TestCreateOrder_StockTakenAfterCartReadRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "A", 3, 10000)
	f.add(t, guest("s1"), v, 2)

	// a competing checkout takes two units after our stock check passed
	taken := false
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:competing_checkout", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*[]OrderItem); !ok || taken {
			return
		}
		taken = true
		err := tx.Session(&gorm.Session{NewDB: true}).
			Model(&product.Variant{}).
			Where("id = ?", v.ID).
			UpdateColumn("stock", gorm.Expr("stock - ?", 2)).Error
		if err != nil {
			tx.AddError(err)
		}
	}))

	_, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.True(t, taken)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	assert.Equal(t, int64(0), f.count(t, &Order{}))
	assert.Equal(t, int64(0), f.count(t, &OrderItem{}))
	assert.Equal(t, 3, f.stock(t, v.ID), "whole transaction rolled back")

	snap, err := f.carts.Snapshot(ctx, guest("s1"))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
}

func TestCreateOrder_RetriesNumberCollision(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "A", 10, 10000)

	numbers := []string{"ORD-2601-0001", "ORD-2601-0001", "ORD-2601-0002"}
	calls := 0
	f.orders.newNumber = func(time.Time) string {
		n := numbers[calls]
		calls++
		return n
	}

	f.add(t, guest("s1"), v, 1)
	first, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "ORD-2601-0001", first.Number)

	f.add(t, guest("s2"), v, 1)
	second, err := f.orders.CreateOrder(ctx, guest("s2"), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "ORD-2601-0002", second.Number)
	assert.Equal(t, 3, calls)

	o, err := f.orders.GetByNumber(ctx, second.Number)
	require.NoError(t, err)
	assert.Len(t, o.Items, 1)
	assert.Equal(t, 8, f.stock(t, v.ID))
}

func TestCreateOrder_NumberAttemptsExhausted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "A", 10, 10000)
	f.orders.newNumber = func(time.Time) string { return "ORD-2601-7777" }

	f.add(t, guest("s1"), v, 1)
	_, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.NoError(t, err)

	f.add(t, guest("s2"), v, 1)
	_, err = f.orders.CreateOrder(ctx, guest("s2"), validRequest())
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.Equal(t, int64(1), f.count(t, &Order{}))
	assert.Equal(t, 9, f.stock(t, v.ID))
}

func TestOrderItemsAreSnapshots(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "A", 10, 10000)
	f.add(t, guest("s1"), v, 1)

	conf, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&product.Product{}).Where("id = ?", v.ProductID).
		Updates(map[string]interface{}{"name": "Renamed", "is_active": false}).Error)
	require.NoError(t, f.db.Model(v).Updates(map[string]interface{}{"sale_price": 1, "color": "Azul"}).Error)

	o, err := f.orders.GetByNumber(ctx, conf.Number)
	require.NoError(t, err)
	assert.Equal(t, "Remera A", o.Items[0].ProductName)
	assert.Equal(t, "Rojo M", o.Items[0].VariantInfo)
	assert.Equal(t, int64(10000), o.Items[0].UnitPrice)
}

func TestGetByNumber_NotFound(t *testing.T) {
	f := setup(t)

	_, err := f.orders.GetByNumber(context.Background(), "ORD-0000-0000")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListForUserAndAll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "A", 50, 10000)
	uid := uint(42)
	user := cart.NewOwner(&uid, "")

	for i := 0; i < 3; i++ {
		f.add(t, user, v, 1)
		_, err := f.orders.CreateOrder(ctx, user, validRequest())
		require.NoError(t, err)
	}
	f.add(t, guest("s1"), v, 1)
	_, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.NoError(t, err)

	page, err := f.orders.ListForUser(ctx, uid, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Orders, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.True(t, page.Orders[0].ID > page.Orders[1].ID, "newest first")

	page, err = f.orders.ListForUser(ctx, uid, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 10, page.Pagination.Limit)

	all, err := f.orders.ListAll(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Pagination.Total)
	assert.Equal(t, 20, all.Pagination.Limit)

	none, err := f.orders.ListAll(ctx, ListFilter{Status: StatusShipped})
	require.NoError(t, err)
	assert.Zero(t, none.Pagination.Total)
	assert.Empty(t, none.Orders)

	_, err = f.orders.ListAll(ctx, ListFilter{Status: "perdida"})
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
}

func TestUpdateStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "A", 10, 10000)
	f.add(t, guest("s1"), v, 3)
	conf, err := f.orders.CreateOrder(ctx, guest("s1"), validRequest())
	require.NoError(t, err)
	admin := auth.Identity{UserID: 1, Role: auth.RoleAdmin}

	t.Run("invalid status leaves order unchanged", func(t *testing.T) {
		_, err := f.orders.UpdateStatus(ctx, conf.ID, UpdateStatusRequest{Status: "perdida"}, admin)
		assert.ErrorIs(t, err, apperror.ErrInvalidRequest)

		o, err := f.orders.GetByNumber(ctx, conf.Number)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.orders.UpdateStatus(ctx, 9999, UpdateStatusRequest{Status: StatusConfirmed}, admin)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("notes kept when omitted", func(t *testing.T) {
		notes := "pagado por transferencia"
		o, err := f.orders.UpdateStatus(ctx, conf.ID, UpdateStatusRequest{Status: StatusConfirmed, AdminNotes: &notes}, admin)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, o.Status)

		o, err = f.orders.UpdateStatus(ctx, conf.ID, UpdateStatusRequest{Status: StatusProcessing}, admin)
		require.NoError(t, err)
		require.NotNil(t, o.AdminNotes)
		assert.Equal(t, notes, *o.AdminNotes)
		assert.Len(t, o.History, 3)
		require.NotNil(t, o.History[2].CreatedBy)
		assert.Equal(t, uint(1), *o.History[2].CreatedBy)
	})

	t.Run("cancel restores stock once", func(t *testing.T) {
		assert.Equal(t, 7, f.stock(t, v.ID))

		_, err := f.orders.UpdateStatus(ctx, conf.ID, UpdateStatusRequest{Status: StatusCancelled}, admin)
		require.NoError(t, err)
		assert.Equal(t, 10, f.stock(t, v.ID))

		_, err = f.orders.UpdateStatus(ctx, conf.ID, UpdateStatusRequest{Status: StatusCancelled}, admin)
		require.NoError(t, err)
		assert.Equal(t, 10, f.stock(t, v.ID))
	})

	t.Run("reopening takes stock again", func(t *testing.T) {
		_, err := f.orders.UpdateStatus(ctx, conf.ID, UpdateStatusRequest{Status: StatusConfirmed}, admin)
		require.NoError(t, err)
		assert.Equal(t, 7, f.stock(t, v.ID))
	})

	assert.Equal(t, []Status{
		StatusPending, StatusConfirmed,
		StatusConfirmed, StatusProcessing,
		StatusProcessing, StatusCancelled,
		StatusCancelled, StatusConfirmed,
	}, f.notifier.changed)
}

func TestExportXLSX(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	v := f.variant(t, "A", 10, 10000)
	for i := 0; i < 2; i++ {
		owner := guest(fmt.Sprintf("s%d", i))
		f.add(t, owner, v, 1)
		_, err := f.orders.CreateOrder(ctx, owner, validRequest())
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, f.orders.ExportXLSX(ctx, "", &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Número", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Ana Pérez", sheet.Rows[1].Cells[2].String())

	assert.ErrorIs(t, f.orders.ExportXLSX(ctx, "perdida", &buf), apperror.ErrInvalidRequest)
}

func TestGenerateNumber(t *testing.T) {
	now := time.Date(2025, time.March, 9, 23, 0, 0, 0, time.UTC)
	n := GenerateNumber(now)
	assert.Regexp(t, regexp.MustCompile(`^ORD-2503-\d{4}$`), n)
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}

func TestFormatAmount(t *testing.T) {
	tests := map[int64]string{
		0:       "$0",
		999:     "$999",
		5000:    "$5.000",
		45000:   "$45.000",
		1234567: "$1.234.567",
		-100000: "-$100.000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatAmount(in))
	}
	assert.Equal(t, "En preparación", StatusProcessing.Label())
	assert.Equal(t, "otro", Status("otro").Label())
}
