package api

import (
	"net/http"

	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/logging"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/metrics"
	"github.com/Arthur-Ielber/sistema-restaurante-e-loja-pt/internal/patterns"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// RouterConfig holds what the router needs besides the handler
type RouterConfig struct {
	Service     string
	MaxInFlight int
	Logger      *log.Entry
}

// NewRouter wires every route. Mutating routes share one bulkhead.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = log.WithField("service", cfg.Service)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(cfg.Logger))
	router.Use(metrics.PrometheusMiddleware(cfg.Service))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	writes := patterns.NewBulkhead(cfg.MaxInFlight, "writes", cfg.Service).Middleware()

	router.GET("/orders", h.listOrders)
	router.GET("/orders/:id", h.getOrder)
	router.GET("/orders/:id/summary", h.getOrderSummary)
	router.POST("/orders", writes, h.createOrder)
	router.POST("/orders/:id/select", writes, h.selectOrder)
	router.POST("/orders/:id/pay", writes, h.payOrder)

	current := router.Group("/current-order")
	current.GET("", h.getCurrentOrder)
	current.GET("/summary", h.getCurrentSummary)
	current.POST("/items", writes, h.addItem)
	current.PUT("/items/:itemId", writes, h.updateItem)
	current.DELETE("/items/:itemId", writes, h.removeItem)
	current.POST("/confirm", writes, h.confirmItems)
	current.POST("/close", writes, h.closeCurrentOrder)

	reservations := router.Group("/reservations")
	reservations.GET("", h.listReservations)
	reservations.GET("/:id", h.getReservation)
	reservations.POST("", writes, h.createReservation)
	reservations.POST("/check", writes, h.checkReservations)
	reservations.POST("/:id/cancel", writes, h.cancelReservation)
	reservations.POST("/:id/confirm", writes, h.confirmReservation)

	reports := router.Group("/reports")
	reports.GET("/sales-today", h.salesToday)
	reports.GET("/best-sellers", h.bestSellers)
	reports.GET("/payment-methods", h.paymentMethods)
	reports.GET("/paid-ratio", h.paidRatio)

	return router
}
