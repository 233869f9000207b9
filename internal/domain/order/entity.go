// internal/domain/order/entity.go
package order

import (
	"strconv"
	"time"
)

// Status represents the order status
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusConfirmed  Status = "confirmada"
	StatusProcessing Status = "procesando"
	StatusShipped    Status = "enviada"
	StatusDelivered  Status = "entregada"
	StatusCancelled  Status = "cancelada"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pendiente"
	PaymentStatusPaid    PaymentStatus = "pagado"
)

// Statuses lists every valid order status in workflow order
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

var statusLabels = map[Status]string{
	StatusPending:    "Pendiente",
	StatusConfirmed:  "Confirmada",
	StatusProcessing: "En preparación",
	StatusShipped:    "Enviada",
	StatusDelivered:  "Entregada",
	StatusCancelled:  "Cancelada",
}

// Label is the customer-facing name of the status
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// FormatAmount renders whole pesos with dot thousands separators, e.g. "$45.000"
func FormatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	return sign + "$" + string(out)
}

// Order represents the order entity. Once created only the status
// and admin notes change.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Number        string        `gorm:"uniqueIndex;not null;size:20" json:"numero_orden"`
	UserID        *uint         `gorm:"index" json:"usuario_id"`
	CustomerName  string        `gorm:"not null;size:200" json:"cliente_nombre"`
	CustomerEmail string        `gorm:"not null;size:255" json:"cliente_email"`
	CustomerPhone string        `gorm:"size:50" json:"cliente_telefono"`
	Address       string        `gorm:"not null;type:text" json:"direccion_envio"`
	City          string        `gorm:"not null;size:100" json:"ciudad"`
	Province      string        `gorm:"not null;size:100" json:"provincia"`
	PostalCode    *string       `gorm:"size:20" json:"codigo_postal"`
	Subtotal      int64         `gorm:"not null" json:"subtotal"`
	ShippingCost  int64         `gorm:"not null;default:0" json:"costo_envio"`
	Total         int64         `gorm:"not null" json:"total"`
	Status        Status        `gorm:"not null;size:20;default:'pendiente';index" json:"estado"`
	PaymentStatus PaymentStatus `gorm:"not null;size:20;default:'pendiente'" json:"estado_pago"`
	PaymentMethod string        `gorm:"size:50;default:'transferencia'" json:"metodo_pago"`
	CustomerNotes *string       `gorm:"type:text" json:"notas_cliente"`
	AdminNotes    *string       `gorm:"type:text" json:"notas_admin"`
	CreatedAt     time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Items   []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
	History []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"historial,omitempty"`
}

// OrderItem is a frozen copy of one purchased variant
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"orden_id"`
	VariantID   uint      `gorm:"not null;index" json:"variante_id"`
	ProductName string    `gorm:"not null;size:255" json:"producto_nombre"`
	VariantInfo string    `gorm:"size:100" json:"variante_info"`
	SKU         string    `gorm:"not null;size:100" json:"sku"`
	Quantity    int       `gorm:"not null" json:"cantidad"`
	UnitPrice   int64     `gorm:"not null" json:"precio_unitario"`
	Subtotal    int64     `gorm:"not null" json:"subtotal"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"orden_id"`
	Status    Status    `gorm:"not null;size:20" json:"estado"`
	Comment   string    `gorm:"type:text" json:"comentario"`
	CreatedBy *uint     `gorm:"index" json:"creado_por"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// Business methods for Order

// IsCancelled checks if the order was cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == StatusCancelled
}

// ItemCount returns the number of units across all lines
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// Summary is the compact order row used in listings
type Summary struct {
	ID            uint          `json:"id"`
	Number        string        `json:"numero_orden"`
	CustomerName  string        `json:"cliente_nombre,omitempty"`
	Total         int64         `json:"total"`
	Status        Status        `json:"estado"`
	PaymentStatus PaymentStatus `json:"estado_pago"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Confirmation is returned after a successful checkout
type Confirmation struct {
	ID     uint   `json:"id"`
	Number string `json:"numero_orden"`
	Total  int64  `json:"total"`
	Status Status `json:"estado"`
}

// Pagination represents pagination information
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ListResponse is a page of orders
type ListResponse struct {
	Orders     []Summary  `json:"ordenes"`
	Pagination Pagination `json:"pagination"`
}
