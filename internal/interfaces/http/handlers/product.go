// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/domain/product"
)

// ProductHandler handles public catalog endpoints
type ProductHandler struct {
	catalog *product.Service
	log     *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog *product.Service, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		log:     log,
	}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	h.respondList(c, products, err)
}

// Featured handles GET /products/destacados
func (h *ProductHandler) Featured(c *gin.Context) {
	products, err := h.catalog.Featured(c.Request.Context())
	h.respondList(c, products, err)
}

// Newest handles GET /products/nuevos
func (h *ProductHandler) Newest(c *gin.Context) {
	products, err := h.catalog.Newest(c.Request.Context())
	h.respondList(c, products, err)
}

// Search handles GET /products/buscar?q=
func (h *ProductHandler) Search(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	h.respondList(c, products, err)
}

// Related handles GET /products/:slug/relacionados
func (h *ProductHandler) Related(c *gin.Context) {
	products, err := h.catalog.Related(c.Request.Context(), c.Param("slug"))
	h.respondList(c, products, err)
}

// GetBySlug handles GET /products/slug/:slug
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	detail, err := h.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetByID handles GET /products/id/:id and GET /admin/products/id/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ProductHandler) respondList(c *gin.Context, list interface{}, err error) {
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
