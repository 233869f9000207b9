// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/domain/cart"
	"github.com/sportshop/store-api/internal/interfaces/http/middleware"
)

// SessionHeader carries the guest cart session
const SessionHeader = "X-Session-ID"

// CartHandler handles shopping cart endpoints
type CartHandler struct {
	cartService *cart.Service
	log         *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, log *logrus.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		log:         log,
	}
}

// cartOwner resolves the cart owner from the token or the session header.
// A logged-in user always wins over the session.
func cartOwner(c *gin.Context) (cart.Owner, error) {
	owner := cart.NewOwner(middleware.GetUserID(c), c.GetHeader(SessionHeader))
	return owner, owner.Validate()
}

// NewSession handles POST /cart/session
func (h *CartHandler) NewSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"session_id": uuid.NewString()})
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	owner, err := cartOwner(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	snapshot, err := h.cartService.Snapshot(c.Request.Context(), owner)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": snapshot})
}

// AddItem handles POST /cart/add
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, err := cartOwner(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req cart.AddLineRequest
	if !bindJSON(c, &req) {
		return
	}

	productName, err := h.cartService.AddLine(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Producto agregado al carrito",
		"producto": productName,
	})
}

// UpdateItem handles PUT /cart/item/:item_id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, err := cartOwner(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	var req cart.UpdateLineRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.cartService.UpdateLine(c.Request.Context(), owner, itemID, req.Quantity); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cantidad actualizada"})
}

// RemoveItem handles DELETE /cart/item/:item_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, err := cartOwner(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	if err := h.cartService.RemoveLine(c.Request.Context(), owner, itemID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Producto eliminado del carrito"})
}

// ClearCart handles DELETE /cart/clear
func (h *CartHandler) ClearCart(c *gin.Context) {
	owner, err := cartOwner(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.cartService.Clear(c.Request.Context(), owner); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Carrito vaciado"})
}
