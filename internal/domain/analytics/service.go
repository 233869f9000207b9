// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/sportshop/store-api/internal/domain/inventory"
	"github.com/sportshop/store-api/internal/domain/order"
	"github.com/sportshop/store-api/internal/pkg/auth"
	"gorm.io/gorm"
)

const (
	listLimit      = 10
	topProductDays = 30
)

// Service handles analytics business logic
type Service struct {
	db        *gorm.DB
	inventory *inventory.Service
	now       func() time.Time
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, inventoryService *inventory.Service) *Service {
	return &Service{
		db:        db,
		inventory: inventoryService,
		now:       time.Now,
	}
}

// Totals represents the headline dashboard counters
type Totals struct {
	TotalOrders    int64 `json:"total_ordenes"`
	PendingOrders  int64 `json:"ordenes_pendientes"`
	TotalSales     int64 `json:"ventas_totales"`
	ActiveProducts int64 `json:"productos_activos"`
	ActiveVariants int64 `json:"variantes_activas"`
	TotalCustomers int64 `json:"clientes"`
}

// RecentOrder is one row of the latest orders list
type RecentOrder struct {
	Number       string    `json:"numero_orden"`
	CustomerName string    `json:"cliente_nombre"`
	Total        int64     `json:"total"`
	Status       string    `json:"estado"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProductSalesData is a product ranked by units sold
type ProductSalesData struct {
	ProductName string `json:"producto"`
	TotalSold   int64  `json:"total_vendido"`
	Revenue     int64  `json:"total_ventas"`
}

// StatusData counts orders per status
type StatusData struct {
	Status string `json:"estado"`
	Count  int64  `json:"cantidad"`
	Value  int64  `json:"total"`
}

// Dashboard represents the admin statistics payload
type Dashboard struct {
	Statistics    Totals                   `json:"statistics"`
	RecentOrders  []RecentOrder            `json:"recentOrders"`
	TopProducts   []ProductSalesData       `json:"topProducts"`
	LowStock      []inventory.LowStockItem `json:"lowStock"`
	OrdersByState []StatusData             `json:"ordersByStatus"`
}

// GetDashboard retrieves the admin dashboard statistics. Cancelled orders
// do not count as sales.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	dash := &Dashboard{}

	totals, err := s.totals(db)
	if err != nil {
		return nil, err
	}
	dash.Statistics = *totals

	dash.RecentOrders = []RecentOrder{}
	err = db.Raw(`SELECT number, customer_name, total, status, created_at
		FROM orders ORDER BY created_at DESC, id DESC LIMIT ?`, listLimit).
		Scan(&dash.RecentOrders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent orders: %w", err)
	}

	since := s.now().AddDate(0, 0, -topProductDays)
	dash.TopProducts = []ProductSalesData{}
	err = db.Raw(`SELECT p.name AS product_name,
			SUM(oi.quantity) AS total_sold,
			SUM(oi.subtotal) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN product_variants v ON v.id = oi.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE oi.created_at >= ? AND o.status <> ?
		GROUP BY p.id, p.name
		ORDER BY total_sold DESC, p.name
		LIMIT ?`, since, order.StatusCancelled, listLimit).
		Scan(&dash.TopProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}

	dash.LowStock, err = s.inventory.LowStock(ctx, listLimit)
	if err != nil {
		return nil, err
	}

	dash.OrdersByState = []StatusData{}
	err = db.Raw(`SELECT status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS value
		FROM orders GROUP BY status ORDER BY status`).
		Scan(&dash.OrdersByState).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders by status: %w", err)
	}

	return dash, nil
}

func (s *Service) totals(db *gorm.DB) (*Totals, error) {
	t := &Totals{}
	queries := []struct {
		dest *int64
		sql  string
		args []interface{}
	}{
		{&t.TotalOrders, "SELECT COUNT(*) FROM orders", nil},
		{&t.PendingOrders, "SELECT COUNT(*) FROM orders WHERE status = ?", []interface{}{order.StatusPending}},
		{&t.TotalSales, "SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> ?", []interface{}{order.StatusCancelled}},
		{&t.ActiveProducts, "SELECT COUNT(*) FROM products WHERE is_active = ?", []interface{}{true}},
		{&t.ActiveVariants, "SELECT COUNT(*) FROM product_variants WHERE is_active = ?", []interface{}{true}},
		{&t.TotalCustomers, "SELECT COUNT(*) FROM users WHERE role = ?", []interface{}{auth.RoleCustomer}},
	}

	for _, q := range queries {
		if err := db.Raw(q.sql, q.args...).Scan(q.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to get dashboard totals: %w", err)
		}
	}
	return t, nil
}
