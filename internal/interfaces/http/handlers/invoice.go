// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/domain/order"
)

// InvoiceGenerator renders an order invoice document
type InvoiceGenerator interface {
	GenerateInvoice(o *order.Order) (*bytes.Buffer, error)
}

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	orderService *order.Service
	generator    InvoiceGenerator
	log          *logrus.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orderService *order.Service, generator InvoiceGenerator, log *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orderService,
		generator:    generator,
		log:          log,
	}
}

// DownloadInvoice handles GET /orders/:numero_orden/factura
func (h *InvoiceHandler) DownloadInvoice(c *gin.Context) {
	o, err := h.orderService.GetByNumber(c.Request.Context(), c.Param("numero_orden"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	pdfBuffer, err := h.generator.GenerateInvoice(o)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"order_number": o.Number,
		}).WithError(err).Error("Failed to generate invoice")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al generar la factura"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="factura-`+o.Number+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}
