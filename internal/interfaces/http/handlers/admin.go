// internal/interfaces/http/handlers/admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/domain/product"
	"github.com/sportshop/store-api/internal/interfaces/http/middleware"
)

// AdminHandler handles back-office catalog endpoints
type AdminHandler struct {
	adminService *product.AdminService
	log          *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *product.AdminService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		log:          log,
	}
}

// ListProducts handles GET /admin/products
func (h *AdminHandler) ListProducts(c *gin.Context) {
	products, err := h.adminService.ListProductsWithVariants(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// CreateProduct handles POST /admin/products
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req product.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.adminService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.audit(c, "product_created", p.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Producto creado exitosamente",
		"product": p,
	})
}

// UpdateProduct handles PUT /admin/products/:id
func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req product.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.adminService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.audit(c, "product_updated", p.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Producto actualizado correctamente",
		"product": p,
	})
}

// DeleteProduct handles DELETE /admin/products/:slug
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	p, err := h.adminService.DeleteProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.audit(c, "product_deleted", p.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Producto eliminado"})
}

// CreateVariant handles POST /admin/variants
func (h *AdminHandler) CreateVariant(c *gin.Context) {
	var req product.CreateVariantRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.adminService.CreateVariant(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Variante creada",
		"variant": v,
	})
}

// UpdateVariant handles PUT /admin/variants/:id
func (h *AdminHandler) UpdateVariant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req product.UpdateVariantRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.adminService.UpdateVariant(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Variante actualizada",
		"variant": v,
	})
}

func (h *AdminHandler) audit(c *gin.Context, action string, productID uint) {
	identity, _ := middleware.GetIdentity(c)
	h.log.WithFields(logrus.Fields{
		"action":     action,
		"product_id": productID,
		"admin_id":   identity.UserID,
	}).Info("Catalog changed")
}
