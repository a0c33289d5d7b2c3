package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) getCart(c *gin.Context) {
	view, err := s.carts.GetCart(c.Request.Context(), actor(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"cart": view})
}

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := s.carts.AddItem(c.Request.Context(), actor(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"cart": cart})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (s *Server) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}

	cart, err := s.carts.UpdateItemQuantity(c.Request.Context(), actor(c).ID, c.Param("itemId"), req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"cart": cart})
}

func (s *Server) removeFromCart(c *gin.Context) {
	cart, err := s.carts.RemoveItem(c.Request.Context(), actor(c).ID, c.Param("itemId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"cart": cart})
}

func (s *Server) clearCart(c *gin.Context) {
	if err := s.carts.Clear(c.Request.Context(), actor(c).ID); err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{})
}
