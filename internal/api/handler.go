package api

import (
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	userService     *service.UserService
	productService  *service.ProductService
	orderService    *service.OrderService
	checkoutService *service.CheckoutService
	tokens          *auth.TokenService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	userService *service.UserService,
	productService *service.ProductService,
	orderService *service.OrderService,
	checkoutService *service.CheckoutService,
	tokens *auth.TokenService,
) *Handler {
	return &Handler{
		userService:     userService,
		productService:  productService,
		orderService:    orderService,
		checkoutService: checkoutService,
		tokens:          tokens,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", h.register)
			users.POST("/login", h.login)
			users.POST("/refresh", h.refresh)
			users.GET("/verify", h.verifyEmail)
			users.POST("/forgot-password", h.forgotPassword)
			users.POST("/reset-password", h.resetPassword)
			users.GET("/me", h.Authenticated(), h.getProfile)
			users.PUT("/me", h.Authenticated(), h.updateProfile)
			users.GET("", h.Authenticated(), AdminOnly(), h.listUsers)
			users.GET("/:id", h.Authenticated(), AdminOnly(), h.getUser)
			users.POST("/:id/promote", h.Authenticated(), AdminOnly(), h.promoteUser)
			users.DELETE("/:id", h.Authenticated(), AdminOnly(), h.deleteUser)

			addresses := users.Group("/:id/addresses", h.Authenticated())
			{
				addresses.GET("", h.listAddresses)
				addresses.POST("", h.addAddress)
				addresses.PUT("/:addressId", h.updateAddress)
				addresses.DELETE("/:addressId", h.deleteAddress)
			}
		}

		products := v1.Group("/products")
		{
			products.GET("", h.searchProducts)
			products.GET("/latest", h.latestProducts)
			products.GET("/top-selling", h.topSellingProducts)
			products.GET("/:id", h.getProduct)
			products.POST("", h.Authenticated(), AdminOrSeller(), h.createProduct)
			products.PUT("/:id", h.Authenticated(), AdminOrSeller(), h.updateProduct)
			products.DELETE("/:id", h.Authenticated(), AdminOrSeller(), h.deleteProduct)

			products.GET("/:id/reviews", h.listReviews)
			products.POST("/:id/reviews", h.Authenticated(), h.createReview)
		}

		reviews := v1.Group("/reviews", h.Authenticated())
		{
			reviews.PUT("/:id", h.updateReview)
			reviews.DELETE("/:id", h.deleteReview)
		}

		orders := v1.Group("/orders", h.Authenticated())
		{
			orders.GET("/mine", h.listMyOrders)
			orders.GET("/:id", h.getOrder)
			orders.GET("", AdminOnly(), h.listOrders)
			orders.PUT("/:id/pay", AdminOnly(), h.markOrderPaid)
			orders.DELETE("/:id", AdminOnly(), h.deleteOrder)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("/checkout-sessions", h.Authenticated(), h.createCheckoutSession)
			// The provider signs the raw body, so this route must see it
			// before any JSON parsing.
			payments.POST("/webhook", h.handleWebhook)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}
