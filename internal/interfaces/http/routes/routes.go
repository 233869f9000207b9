// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sportshop/store-api/internal/interfaces/http/handlers"
	"github.com/sportshop/store-api/internal/interfaces/http/middleware"
	"github.com/sportshop/store-api/internal/pkg/auth"
)

// Handlers groups every endpoint handler mounted under /api
type Handlers struct {
	Auth      *handlers.AuthHandler
	Category  *handlers.CategoryHandler
	Product   *handlers.ProductHandler
	Cart      *handlers.CartHandler
	Order     *handlers.OrderHandler
	Invoice   *handlers.InvoiceHandler
	Admin     *handlers.AdminHandler
	Analytics *handlers.AnalyticsHandler
}

// SetupRoutes mounts every route group on rg
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	SetupAuthRoutes(rg, h, jwtManager)
	SetupCategoryRoutes(rg, h)
	SetupProductRoutes(rg, h)
	SetupCartRoutes(rg, h, jwtManager)
	SetupOrderRoutes(rg, h, jwtManager)
	SetupAdminRoutes(rg, h, jwtManager)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)

		protected := authGroup.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager))
		{
			protected.GET("/profile", h.Auth.GetProfile)
			protected.PUT("/change-password", h.Auth.ChangePassword)
		}
	}
}

// SetupCategoryRoutes sets up public category routes
func SetupCategoryRoutes(rg *gin.RouterGroup, h *Handlers) {
	categories := rg.Group("/categories")
	{
		categories.GET("", h.Category.GetCategories)
		categories.GET("/:id", h.Category.GetCategory)
	}
}

// SetupProductRoutes sets up public catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, h *Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Product.ListProducts)
		products.GET("/destacados", h.Product.Featured)
		products.GET("/nuevos", h.Product.Newest)
		products.GET("/buscar", h.Product.Search)
		products.GET("/slug/:slug", h.Product.GetBySlug)
		products.GET("/id/:id", h.Product.GetByID)
		products.GET("/:slug/relacionados", h.Product.Related)
	}
}

// SetupCartRoutes sets up cart routes for guests and logged-in users
func SetupCartRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	cartGroup := rg.Group("/cart")
	cartGroup.Use(middleware.OptionalAuthMiddleware(jwtManager))
	{
		cartGroup.POST("/session", h.Cart.NewSession)
		cartGroup.GET("", h.Cart.GetCart)
		cartGroup.POST("/add", h.Cart.AddItem)
		cartGroup.PUT("/item/:item_id", h.Cart.UpdateItem)
		cartGroup.DELETE("/item/:item_id", h.Cart.RemoveItem)
		cartGroup.DELETE("/clear", h.Cart.ClearCart)
	}
}

// SetupOrderRoutes sets up checkout and order lookup routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	orders := rg.Group("/orders")
	{
		orders.POST("", middleware.OptionalAuthMiddleware(jwtManager), h.Order.CreateOrder)
		orders.GET("/mis-ordenes/historial", middleware.AuthMiddleware(jwtManager), h.Order.GetMyOrders)
		orders.GET("/:numero_orden", h.Order.GetOrder)
		orders.GET("/:numero_orden/factura", h.Invoice.DownloadInvoice)
	}
}

// SetupAdminRoutes sets up back-office routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/statistics", h.Analytics.GetStatistics)

		admin.GET("/products", h.Admin.ListProducts)
		admin.POST("/products", h.Admin.CreateProduct)
		admin.GET("/products/id/:id", h.Product.GetByID)
		admin.PUT("/products/:id", h.Admin.UpdateProduct)
		admin.DELETE("/products/:slug", h.Admin.DeleteProduct)

		admin.POST("/variants", h.Admin.CreateVariant)
		admin.PUT("/variants/:id", h.Admin.UpdateVariant)

		admin.POST("/categories", h.Category.CreateCategory)
		admin.PUT("/categories/:id", h.Category.UpdateCategory)
		admin.DELETE("/categories/:id", h.Category.DeleteCategory)

		admin.GET("/orders", h.Order.ListOrders)
		admin.GET("/orders/export", h.Order.ExportOrders)
		admin.PUT("/orders/:id/status", h.Order.UpdateOrderStatus)
	}
}
