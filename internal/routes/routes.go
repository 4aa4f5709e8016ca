package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

// Handlers agrupa todo lo que atiende el router.
type Handlers struct {
	Products   *handlers.ProductHandler
	Categories *handlers.CategoryHandler
	Auth       *handlers.AuthHandler
	Accounts   *handlers.AccountHandler
	Orders     *handlers.OrderHandler
	Reviews    *handlers.ReviewHandler
}

type Options struct {
	Verifier       middleware.TokenVerifier
	Users          middleware.UserLookup
	Log            *zap.Logger
	RequestTimeout time.Duration

	// UploadDir y UploadURL se completan cuando los archivos se sirven desde disco.
	UploadDir string
	UploadURL string
}

// NewRouter arma el engine con los middlewares y registra
// todas las rutas.
func NewRouter(h Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(logger.RequestID(), logger.RequestLogger(opts.Log), gin.Recovery(), middleware.Timeout(opts.RequestTimeout))
	RegisterRoutes(router, h, opts)
	return router
}

func RegisterRoutes(router *gin.Engine, h Handlers, opts Options) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.UploadDir != "" && opts.UploadURL != "" {
		router.Static(opts.UploadURL, opts.UploadDir)
	}

	authenticate := middleware.Authenticate(opts.Verifier, opts.Users)
	adminOnly := []gin.HandlerFunc{authenticate, middleware.RequireRole(models.RoleAdmin)}

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.GET("/me", authenticate, h.Auth.Me)
		authGroup.GET("/checkuser", authenticate, h.Auth.Me)
	}

	products := api.Group("/products")
	{
		products.GET("", h.Products.GetProducts)
		products.GET("/category/:slug", h.Products.GetProductsByCategory)
		products.GET("/:id", h.Products.GetProductByID)

		admin := products.Group("", adminOnly...)
		admin.POST("", h.Products.CreateProduct)
		admin.PUT("/:id", h.Products.UpdateProduct)
		admin.DELETE("/:id", h.Products.DeleteProduct)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.Categories.GetCategories)
		categories.GET("/top-level", h.Categories.GetTopLevelCategories)
		categories.GET("/:id", h.Categories.GetCategory)

		admin := categories.Group("", adminOnly...)
		admin.POST("", h.Categories.CreateCategory)
		admin.PUT("/:id", h.Categories.UpdateCategory)
		admin.DELETE("/:id", h.Categories.DeleteCategory)
	}

	wishlist := api.Group("/wishlist", authenticate)
	{
		wishlist.GET("", h.Accounts.GetWishlist)
		wishlist.POST("/add", h.Accounts.AddToWishlist)
		wishlist.DELETE("/remove/:productId", h.Accounts.RemoveFromWishlist)
		wishlist.DELETE("", h.Accounts.ClearWishlist)
	}

	cart := api.Group("/cart", authenticate)
	{
		cart.GET("", h.Accounts.GetCart)
		cart.POST("/add", h.Accounts.AddToCart)
		cart.PATCH("/update", h.Accounts.UpdateCartItem)
		cart.DELETE("/remove/:variantId", h.Accounts.RemoveFromCart)
	}

	address := api.Group("/address", authenticate)
	{
		address.GET("", h.Accounts.GetAddresses)
		address.POST("/add", h.Accounts.AddAddress)
		address.PUT("/update/:addressId", h.Accounts.UpdateAddress)
		address.DELETE("/remove/:addressId", h.Accounts.RemoveAddress)
	}

	orders := api.Group("/orders")
	{
		orders.POST("/order", authenticate, h.Orders.PlaceOrder)
		orders.GET("/order", authenticate, h.Orders.GetMyOrders)

		admin := orders.Group("", adminOnly...)
		admin.GET("/allorder", h.Orders.GetAllOrders)
		admin.PATCH("/order/:id/status", h.Orders.UpdateOrderStatus)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("/:productId", h.Reviews.GetReviews)
		reviews.POST("", h.Reviews.CreateReview)
	}
}
