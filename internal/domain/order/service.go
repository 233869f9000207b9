// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/domain/cart"
	"github.com/sportshop/store-api/internal/domain/inventory"
	"github.com/sportshop/store-api/internal/domain/product"
	"github.com/sportshop/store-api/internal/pkg/apperror"
	"github.com/sportshop/store-api/internal/pkg/auth"
	"gorm.io/gorm"
)

// Notifier is told about order events after they are committed
type Notifier interface {
	OrderPlaced(ctx context.Context, o *Order)
	StatusChanged(ctx context.Context, o *Order, previous Status)
}

// NumberFunc draws a candidate order number
type NumberFunc func(now time.Time) string

// GenerateNumber returns ORD-YYMM-RRRR with a random zero-padded suffix
func GenerateNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", now.UTC().Format("0601"), rand.Intn(10000))
}

// Service handles order business logic
type Service struct {
	db               *gorm.DB
	config           *config.Config
	cartService      *cart.Service
	inventoryService *inventory.Service
	notifier         Notifier
	log              *logrus.Logger
	newNumber        NumberFunc
	now              func() time.Time
}

// NewService creates a new order service. notifier may be nil.
func NewService(
	db *gorm.DB,
	cfg *config.Config,
	cartService *cart.Service,
	inventoryService *inventory.Service,
	notifier Notifier,
	log *logrus.Logger,
) *Service {
	return &Service{
		db:               db,
		config:           cfg,
		cartService:      cartService,
		inventoryService: inventoryService,
		notifier:         notifier,
		log:              log,
		newNumber:        GenerateNumber,
		now:              time.Now,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	CustomerName  string `json:"cliente_nombre"`
	CustomerEmail string `json:"cliente_email"`
	CustomerPhone string `json:"cliente_telefono"`
	Address       string `json:"direccion_envio"`
	City          string `json:"ciudad"`
	Province      string `json:"provincia"`
	PostalCode    string `json:"codigo_postal"`
	PaymentMethod string `json:"metodo_pago"`
	CustomerNotes string `json:"notas_cliente"`
}

// Normalize trims every field and checks the mandatory ones
func (r *CreateOrderRequest) Normalize() error {
	for _, f := range []*string{
		&r.CustomerName, &r.CustomerEmail, &r.CustomerPhone, &r.Address, &r.City,
		&r.Province, &r.PostalCode, &r.PaymentMethod, &r.CustomerNotes,
	} {
		*f = strings.TrimSpace(*f)
	}

	if r.CustomerName == "" || r.CustomerEmail == "" || r.Address == "" || r.City == "" || r.Province == "" {
		return apperror.InvalidRequest("Todos los campos obligatorios deben estar completos")
	}
	return nil
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status     Status  `json:"estado"`
	AdminNotes *string `json:"notas_admin"`
}

// ListFilter represents order list query parameters
type ListFilter struct {
	Status Status `form:"estado"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// CreateOrder turns the owner's cart into an order. Stock is decremented
// and the cart emptied in the same transaction that writes the order.
// Lines whose variant or product is no longer active are skipped and stay
// in the cart.
func (s *Service) CreateOrder(ctx context.Context, owner cart.Owner, req CreateOrderRequest) (*Confirmation, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	var created Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.cartService.FindIn(tx, owner)
		if err != nil {
			return err
		}

		all, err := s.cartService.Lines(tx, c.ID)
		if err != nil {
			return err
		}
		lines, dropped := splitPurchasable(all)
		if len(dropped) > 0 {
			s.log.WithFields(logrus.Fields{
				"cart_id":     c.ID,
				"variant_ids": variantIDs(dropped),
			}).Warn("Skipping inactive cart lines at checkout")
		}
		if len(lines) == 0 {
			return apperror.EmptyCart()
		}

		for _, l := range lines {
			if l.Stock < l.Quantity {
				return apperror.InsufficientStock(l.ProductName, l.Stock)
			}
		}

		created = s.buildOrder(owner, req, lines)
		if err := s.insertWithNumber(tx, &created); err != nil {
			return err
		}

		items := make([]OrderItem, len(lines))
		for i, l := range lines {
			price := product.CurrentPrice(l.SalePrice, l.DiscountPrice)
			items[i] = OrderItem{
				OrderID:     created.ID,
				VariantID:   l.VariantID,
				ProductName: l.ProductName,
				VariantInfo: product.Descriptor(l.Color, l.Size),
				SKU:         l.SKU,
				Quantity:    l.Quantity,
				UnitPrice:   price,
				Subtotal:    price * int64(l.Quantity),
			}
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		created.Items = items

		if err := s.inventoryService.Reserve(tx, inventoryLines(items)); err != nil {
			return err
		}

		if err := s.recordStatus(tx, created.ID, StatusPending, "Orden creada", owner.UserID); err != nil {
			return err
		}

		itemIDs := make([]uint, len(lines))
		for i, l := range lines {
			itemIDs[i] = l.ID
		}
		return s.cartService.DeleteItems(tx, c.ID, itemIDs)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     created.ID,
		"order_number": created.Number,
		"total":        created.Total,
	}).Info("Order created")

	if s.notifier != nil {
		s.notifier.OrderPlaced(context.WithoutCancel(ctx), &created)
	}

	return &Confirmation{
		ID:     created.ID,
		Number: created.Number,
		Total:  created.Total,
		Status: created.Status,
	}, nil
}

// GetByNumber returns an order with its items and status history
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("number = ?", number).
		First(&o).Error
	if err != nil {
		return nil, apperror.FromDB(err, "Orden no encontrada", "")
	}
	return &o, nil
}

// ListForUser returns the user's orders, newest first
func (s *Service) ListForUser(ctx context.Context, userID uint, page, limit int) (*ListResponse, error) {
	page, limit = normalizePage(page, limit, 10)
	query := s.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", userID)
	return s.list(query, page, limit)
}

// ListAll returns every order, optionally filtered by status
func (s *Service) ListAll(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.InvalidRequest("Estado inválido")
	}
	page, limit := normalizePage(filter.Page, filter.Limit, 20)

	query := s.db.WithContext(ctx).Model(&Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return s.list(query, page, limit)
}

// UpdateStatus moves an order to a new status. Cancelling returns the
// order's units to stock; leaving cancelada takes them again.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, req UpdateStatusRequest, actor auth.Identity) (*Order, error) {
	if !req.Status.Valid() {
		return nil, apperror.InvalidRequest("Estado inválido")
	}

	var (
		o        Order
		previous Status
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&o, orderID).Error; err != nil {
			return apperror.FromDB(err, "Orden no encontrada", "")
		}
		previous = o.Status

		updates := map[string]interface{}{"status": req.Status}
		if req.AdminNotes != nil {
			updates["admin_notes"] = *req.AdminNotes
		}
		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", o.ID, previous).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update order status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.InvalidRequest("La orden fue modificada, intente nuevamente")
		}

		switch {
		case req.Status == StatusCancelled && previous != StatusCancelled:
			if err := s.inventoryService.Release(tx, inventoryLines(o.Items)); err != nil {
				return err
			}
		case previous == StatusCancelled && req.Status != StatusCancelled:
			if err := s.inventoryService.Reserve(tx, inventoryLines(o.Items)); err != nil {
				return err
			}
		}

		comment := ""
		if req.AdminNotes != nil {
			comment = *req.AdminNotes
		}
		userID := actor.UserID
		return s.recordStatus(tx, o.ID, req.Status, comment, &userID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     previous,
		"to":       req.Status,
		"actor_id": actor.UserID,
	}).Info("Order status updated")

	updated, err := s.GetByNumber(ctx, o.Number)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && previous != req.Status {
		s.notifier.StatusChanged(context.WithoutCancel(ctx), updated, previous)
	}
	return updated, nil
}

func (s *Service) buildOrder(owner cart.Owner, req CreateOrderRequest, lines []cart.Line) Order {
	var subtotal int64
	for _, l := range lines {
		subtotal += product.CurrentPrice(l.SalePrice, l.DiscountPrice) * int64(l.Quantity)
	}
	shipping := s.config.ShippingFor(subtotal)

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = s.config.Shop.DefaultPaymentMethod
	}

	return Order{
		UserID:        owner.UserID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		City:          req.City,
		Province:      req.Province,
		PostalCode:    optional(req.PostalCode),
		Subtotal:      subtotal,
		ShippingCost:  shipping,
		Total:         subtotal + shipping,
		Status:        StatusPending,
		PaymentStatus: PaymentStatusPending,
		PaymentMethod: paymentMethod,
		CustomerNotes: optional(req.CustomerNotes),
	}
}

// insertWithNumber creates the order row, drawing a new number each time
// the unique index rejects one. Each attempt runs under its own savepoint
// so a rejected insert does not abort the surrounding transaction.
func (s *Service) insertWithNumber(tx *gorm.DB, o *Order) error {
	attempts := s.config.Shop.OrderNumberAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		o.ID = 0
		o.Number = s.newNumber(s.now())

		savepoint := fmt.Sprintf("order_number_%d", attempt)
		if err := tx.SavePoint(savepoint).Error; err != nil {
			return fmt.Errorf("failed to create savepoint: %w", err)
		}

		err := tx.Create(o).Error
		if err == nil {
			return nil
		}
		if !apperror.IsUniqueViolation(err) {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := tx.RollbackTo(savepoint).Error; err != nil {
			return fmt.Errorf("failed to roll back to savepoint: %w", err)
		}
		s.log.WithFields(logrus.Fields{
			"order_number": o.Number,
			"attempt":      attempt,
		}).Warn("Order number collision, retrying")
	}

	return apperror.Internal(fmt.Errorf("no free order number after %d attempts", attempts))
}

func (s *Service) recordStatus(tx *gorm.DB, orderID uint, status Status, comment string, by *uint) error {
	entry := OrderStatusHistory{
		OrderID:   orderID,
		Status:    status,
		Comment:   comment,
		CreatedBy: by,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record order status: %w", err)
	}
	return nil
}

func (s *Service) list(query *gorm.DB, page, limit int) (*ListResponse, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	orders := []Summary{}
	err := query.
		Select("id, number, customer_name, total, status, payment_status, created_at").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &ListResponse{
		Orders:     orders,
		Pagination: Pagination{Page: page, Limit: limit, Total: total},
	}, nil
}

func splitPurchasable(all []cart.Line) (kept, dropped []cart.Line) {
	for _, l := range all {
		if l.Purchasable() {
			kept = append(kept, l)
		} else {
			dropped = append(dropped, l)
		}
	}
	return kept, dropped
}

func inventoryLines(items []OrderItem) []inventory.Line {
	lines := make([]inventory.Line, len(items))
	for i, item := range items {
		lines[i] = inventory.Line{
			VariantID:   item.VariantID,
			Quantity:    item.Quantity,
			ProductName: item.ProductName,
		}
	}
	return lines
}

func variantIDs(lines []cart.Line) []uint {
	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.VariantID
	}
	return ids
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

