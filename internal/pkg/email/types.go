// internal/pkg/email/types.go
package email

import (
	"time"

	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/domain/order"
)

// Template names
const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateOrderStatusUpdate = "order_status_update"
)

// TemplateData contains common data for all email templates
type TemplateData struct {
	SiteName     string
	SiteURL      string
	SupportEmail string
	CustomerName string
	Year         int
}

// OrderConfirmationData contains data for the order confirmation email
type OrderConfirmationData struct {
	TemplateData
	OrderNumber   string
	OrderDate     string
	OrderURL      string
	Items         []OrderItem
	Subtotal      string
	Shipping      string
	Total         string
	FreeShipping  bool
	PaymentMethod string
	Address       string
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name      string
	Variant   string
	SKU       string
	Quantity  int
	UnitPrice string
	Subtotal  string
}

// OrderStatusUpdateData contains data for the status update email
type OrderStatusUpdateData struct {
	TemplateData
	OrderNumber    string
	OrderURL       string
	PreviousStatus string
	Status         string
	Cancelled      bool
}

func baseTemplateData(cfg *config.Config, customerName string) TemplateData {
	return TemplateData{
		SiteName:     cfg.Company.Name,
		SiteURL:      cfg.App.PublicURL,
		SupportEmail: cfg.Company.Email,
		CustomerName: customerName,
		Year:         time.Now().Year(),
	}
}

func orderURL(cfg *config.Config, number string) string {
	return cfg.App.PublicURL + "/orden/" + number
}

func newOrderConfirmationData(cfg *config.Config, o *order.Order) OrderConfirmationData {
	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItem{
			Name:      item.ProductName,
			Variant:   item.VariantInfo,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: order.FormatAmount(item.UnitPrice),
			Subtotal:  order.FormatAmount(item.Subtotal),
		})
	}

	address := o.Address + ", " + o.City + ", " + o.Province
	if o.PostalCode != nil && *o.PostalCode != "" {
		address += " (" + *o.PostalCode + ")"
	}

	return OrderConfirmationData{
		TemplateData:  baseTemplateData(cfg, o.CustomerName),
		OrderNumber:   o.Number,
		OrderDate:     o.CreatedAt.Format("02/01/2006 15:04"),
		OrderURL:      orderURL(cfg, o.Number),
		Items:         items,
		Subtotal:      order.FormatAmount(o.Subtotal),
		Shipping:      order.FormatAmount(o.ShippingCost),
		Total:         order.FormatAmount(o.Total),
		FreeShipping:  o.ShippingCost == 0,
		PaymentMethod: o.PaymentMethod,
		Address:       address,
	}
}

func newOrderStatusUpdateData(cfg *config.Config, o *order.Order, previous order.Status) OrderStatusUpdateData {
	return OrderStatusUpdateData{
		TemplateData:   baseTemplateData(cfg, o.CustomerName),
		OrderNumber:    o.Number,
		OrderURL:       orderURL(cfg, o.Number),
		PreviousStatus: previous.Label(),
		Status:         o.Status.Label(),
		Cancelled:      o.IsCancelled(),
	}
}
