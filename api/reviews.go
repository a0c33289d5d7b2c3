package api

import (
	"net/http"

	"github.com/example/secondhand/pkg/service"
	"github.com/gin-gonic/gin"
)

type createReviewRequest struct {
	OrderID   string   `json:"orderId" binding:"required"`
	ProductID string   `json:"productId" binding:"required"`
	Rating    int      `json:"rating" binding:"required,min=1,max=5"`
	Comment   string   `json:"comment"`
	Images    []string `json:"images"`
}

func (s *Server) createReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	review, err := s.reviews.CreateReview(c.Request.Context(), actor(c).ID, service.CreateReviewInput{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Images:    req.Images,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"review": review})
}

func (s *Server) listProductReviews(c *gin.Context) {
	page := pageQuery(c)
	reviews, total, err := s.reviews.ListProductReviews(c.Request.Context(), c.Param("productId"), page)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"reviews": reviews, "pagination": pagination(page, total)})
}

func (s *Server) listSellerReviews(c *gin.Context) {
	page := pageQuery(c)
	result, err := s.reviews.ListSellerReviews(c.Request.Context(), c.Param("sellerId"), page)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"reviews":       result.Reviews,
		"averageRating": result.Rating.Average,
		"totalReviews":  result.Total,
		"pagination":    pagination(page, result.Total),
	})
}

func (s *Server) listOrderReviews(c *gin.Context) {
	reviews, err := s.reviews.ListOrderReviews(c.Request.Context(), actor(c), c.Param("orderId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"reviews": reviews})
}

func (s *Server) checkOrderReviewStatus(c *gin.Context) {
	status, err := s.reviews.CheckOrderReviewStatus(c.Request.Context(), actor(c).ID, c.Param("orderId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"canReview":   status.CanReview,
		"orderStatus": status.OrderStatus,
		"products":    status.Products,
		"allReviewed": status.AllReviewed,
	})
}
