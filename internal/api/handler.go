package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// Services bundles what the HTTP layer calls into
type Services struct {
	Catalog  *service.Catalog
	Carts    *service.CartRegistry
	Checkout *service.CheckoutFlow
	Ledger   *service.OrderLedger
	Auth     *service.AuthService
	Admin    *service.AdminConsole
	AI       *service.AIClient
	Checks   map[string]ReadinessCheck
}

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.Catalog
	carts    *service.CartRegistry
	checkout *service.CheckoutFlow
	ledger   *service.OrderLedger
	auth     *service.AuthService
	admin    *service.AdminConsole
	ai       *service.AIClient
	checks   map[string]ReadinessCheck
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(s Services) *Handler {
	return &Handler{
		catalog:  s.Catalog,
		carts:    s.Carts,
		checkout: s.Checkout,
		ledger:   s.Ledger,
		auth:     s.Auth,
		admin:    s.Admin,
		ai:       s.AI,
		checks:   s.Checks,
		logger:   util.GetLogger(),
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
	v1.Use(h.customerMiddleware())
	{
		v1.GET("/categories", h.listCategories)
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)

		cart := v1.Group("/cart", sessionMiddleware())
		{
			cart.GET("", h.getCart)
			cart.DELETE("", h.clearCart)
			cart.POST("/items", h.addCartItem)
			cart.PATCH("/items/:id", h.setCartQuantity)
			cart.DELETE("/items/:id", h.removeCartItem)
		}

		checkout := v1.Group("/checkout", sessionMiddleware())
		{
			checkout.POST("", h.beginCheckout)
			checkout.GET("", h.checkoutState)
			checkout.POST("/confirm", h.confirmCheckout)
			checkout.POST("/cancel", h.cancelCheckout)
			checkout.POST("/close", h.closeCheckout)
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/signup", h.signUp)
			auth.POST("/signin", h.signIn)
			auth.POST("/signout", h.signOut)
			auth.GET("/me", requireCustomer(), h.me)
			auth.PUT("/password", requireCustomer(), h.updatePassword)
		}

		v1.GET("/account/orders", requireCustomer(), h.accountOrders)

		v1.POST("/admin/login", h.adminLogin)
		v1.POST("/admin/logout", h.adminLogout)

		admin := v1.Group("/admin", h.requireAdmin())
		{
			admin.POST("/products", h.createProduct)
			admin.PATCH("/products/:id", h.updateProduct)
			admin.POST("/products/:id/delete-request", h.requestDelete)
			admin.POST("/delete-confirm", h.confirmDelete)
			admin.POST("/images", h.uploadImage)
			admin.GET("/stock-images", h.stockImages)
			admin.POST("/describe", h.describeProduct)
			admin.GET("/orders", h.adminOrders)
			admin.GET("/stats", h.adminStats)
			admin.PATCH("/orders/:id/status", h.setOrderStatus)
			admin.PATCH("/orders/:id/delivery-date", h.setDeliveryDate)
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

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failing := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failing[name] = err.Error()
		}
	}
	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": failing,
			"time":    time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
