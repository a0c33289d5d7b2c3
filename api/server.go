package api

import (
	"net/http"
	"time"

	"github.com/example/secondhand/pkg/config"
	"github.com/example/secondhand/pkg/models"
	"github.com/example/secondhand/pkg/service"
	"github.com/gin-gonic/gin"
	ginSwagger "github.com/swaggo/gin-swagger"
	swaggerFiles "github.com/swaggo/files"
	"go.uber.org/zap"
)

// Server is the HTTP face of the order workflow. Authentication happens
// upstream; the auth gateway forwards the verified actor in headers.
type Server struct {
	config       *config.Config
	logger       *zap.Logger
	router       *gin.Engine
	carts        *service.CartService
	orders       *service.OrderService
	transactions *service.TransactionService
	reviews      *service.ReviewService
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	carts *service.CartService,
	orders *service.OrderService,
	transactions *service.TransactionService,
	reviews *service.ReviewService,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config:       cfg,
		logger:       logger,
		router:       router,
		carts:        carts,
		orders:       orders,
		transactions: transactions,
		reviews:      reviews,
	}
}

func (s *Server) SetupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	v1.Use(actorMiddleware())
	{
		cart := v1.Group("/cart")
		{
			cart.GET("", s.getCart)
			cart.POST("/items", s.addToCart)
			cart.PUT("/items/:itemId", s.updateCartItem)
			cart.DELETE("/items/:itemId", s.removeFromCart)
			cart.DELETE("", s.clearCart)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", s.createOrder)
			orders.GET("", s.listMyOrders)
			orders.GET("/seller", s.listSellerOrders)
			orders.GET("/:id", s.getOrder)
			orders.PUT("/:id/cancel", s.cancelOrder)
			orders.PUT("/:id/confirm", s.confirmOrder)
			orders.PUT("/:id/reject", s.rejectOrder)
			orders.PUT("/:id/status", s.updateOrderStatus)
			orders.PUT("/:id/confirm-delivery", s.confirmDelivery)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.GET("", s.listTransactions)
			transactions.GET("/:id", s.getTransaction)
			transactions.POST("/:id/pay", s.processPayment)
			transactions.POST("/:id/refund", s.refundTransaction)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.POST("", s.createReview)
			reviews.GET("/product/:productId", s.listProductReviews)
			reviews.GET("/seller/:sellerId", s.listSellerReviews)
			reviews.GET("/order/:orderId", s.listOrderReviews)
			reviews.GET("/order/:orderId/check", s.checkOrderReviewStatus)
		}
	}

	// Swagger
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.logger.Info("HTTP server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// actor returns the authenticated identity placed by actorMiddleware.
func actor(c *gin.Context) models.Actor {
	return c.MustGet(actorKey).(models.Actor)
}

const actorKey = "actor"

// actorMiddleware trusts the identity headers set by the auth gateway in
// front of this service.
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-User-Id")
		role := models.Role(c.GetHeader("X-User-Role"))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing authenticated user",
			})
			return
		}
		switch role {
		case models.RoleUser, models.RoleSeller, models.RoleAdmin:
		default:
			role = models.RoleUser
		}
		c.Set(actorKey, models.Actor{ID: id, Role: role})
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := http.StatusBadRequest
	message := err.Error()
	switch kind {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindFatal:
		status = http.StatusInternalServerError
		message = "internal error"
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
		"code":    string(kind),
	})
}

func ok(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"success": true, "data": data})
}
