package api

import (
	"net/http"
	"strconv"

	"github.com/example/secondhand/pkg/models"
	"github.com/example/secondhand/pkg/service"
	"github.com/gin-gonic/gin"
)

type shippingAddressRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address" binding:"required"`
	City     string `json:"city" binding:"required"`
	District string `json:"district"`
	Ward     string `json:"ward"`
}

type createOrderRequest struct {
	ShippingAddress shippingAddressRequest `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Notes           string                 `json:"notes"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}

	order, err := s.orders.CreateOrder(c.Request.Context(), actor(c).ID, service.CreateOrderInput{
		ShippingAddress: models.ShippingAddress{
			FullName: req.ShippingAddress.FullName,
			Phone:    req.ShippingAddress.Phone,
			Address:  req.ShippingAddress.Address,
			City:     req.ShippingAddress.City,
			District: req.ShippingAddress.District,
			Ward:     req.ShippingAddress.Ward,
		},
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"order": order})
}

func (s *Server) getOrder(c *gin.Context) {
	order, err := s.orders.GetOrder(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"order": order})
}

func (s *Server) listMyOrders(c *gin.Context) {
	page := pageQuery(c)
	orders, total, err := s.orders.ListCustomerOrders(c.Request.Context(), actor(c).ID,
		models.OrderStatus(c.Query("status")), page)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"orders": orders, "pagination": pagination(page, total)})
}

func (s *Server) listSellerOrders(c *gin.Context) {
	page := pageQuery(c)
	orders, total, err := s.orders.ListSellerOrders(c.Request.Context(), actor(c).ID,
		models.OrderStatus(c.Query("status")), page)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"orders": orders, "pagination": pagination(page, total)})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) cancelOrder(c *gin.Context) {
	// The reason is optional, as is the body itself.
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	order, err := s.orders.CancelOrder(c.Request.Context(), actor(c).ID, c.Param("id"), req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"order": order})
}

func (s *Server) confirmOrder(c *gin.Context) {
	order, err := s.orders.ConfirmOrder(c.Request.Context(), actor(c).ID, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"order": order})
}

func (s *Server) rejectOrder(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	order, err := s.orders.RejectOrder(c.Request.Context(), actor(c).ID, c.Param("id"), req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"order": order})
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	order, err := s.orders.UpdateOrderStatus(c.Request.Context(), actor(c).ID, c.Param("id"),
		models.OrderStatus(req.Status))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"order": order})
}

func (s *Server) confirmDelivery(c *gin.Context) {
	order, err := s.orders.ConfirmDelivery(c.Request.Context(), actor(c).ID, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"order": order})
}

func pageQuery(c *gin.Context) service.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return service.Page{Page: page, Limit: limit}.Normalize()
}

func pagination(page service.Page, total int64) gin.H {
	totalPages := total / int64(page.Limit)
	if total%int64(page.Limit) != 0 {
		totalPages++
	}
	return gin.H{
		"page":       page.Page,
		"limit":      page.Limit,
		"total":      total,
		"totalPages": totalPages,
	}
}
