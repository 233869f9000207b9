// internal/interfaces/http/handlers/order.go
package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/domain/order"
	"github.com/sportshop/store-api/internal/interfaces/http/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	log          *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	owner, err := cartOwner(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req order.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	confirmation, err := h.orderService.CreateOrder(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Orden creada exitosamente",
		"orden":   confirmation,
	})
}

// GetOrder handles GET /orders/:numero_orden
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.orderService.GetByNumber(c.Request.Context(), c.Param("numero_orden"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orden": o})
}

// GetMyOrders handles GET /orders/mis-ordenes/historial
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	resp, err := h.orderService.ListForUser(c.Request.Context(), identity.UserID,
		queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListOrders handles GET /admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filter order.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Parámetros inválidos",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orderService.ListAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportOrders handles GET /admin/orders/export
func (h *OrderHandler) ExportOrders(c *gin.Context) {
	var buf bytes.Buffer
	status := order.Status(c.Query("estado"))
	if err := h.orderService.ExportXLSX(c.Request.Context(), status, &buf); err != nil {
		respondError(c, h.log, err)
		return
	}

	filename := "ordenes-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	actor, _ := middleware.GetIdentity(c)
	o, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Estado actualizado",
		"orden":   o,
	})
}
