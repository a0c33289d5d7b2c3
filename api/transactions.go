package api

import (
	"net/http"

	"github.com/example/secondhand/pkg/models"
	"github.com/gin-gonic/gin"
)

func (s *Server) listTransactions(c *gin.Context) {
	page := pageQuery(c)
	txns, total, err := s.transactions.ListTransactions(c.Request.Context(), actor(c),
		models.TransactionStatus(c.Query("status")), page)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"transactions": txns, "pagination": pagination(page, total)})
}

func (s *Server) getTransaction(c *gin.Context) {
	txn, err := s.transactions.GetTransaction(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"transaction": txn})
}

type processPaymentRequest struct {
	PaymentDetails models.PaymentDetails `json:"paymentDetails"`
}

func (s *Server) processPayment(c *gin.Context) {
	// The gateway payload is optional for the mock flow.
	var req processPaymentRequest
	_ = c.ShouldBindJSON(&req)
	txn, err := s.transactions.ProcessPayment(c.Request.Context(), actor(c).ID, c.Param("id"), req.PaymentDetails)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"transaction": txn})
}

func (s *Server) refundTransaction(c *gin.Context) {
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	txn, err := s.transactions.RefundTransaction(c.Request.Context(), actor(c), c.Param("id"), req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"transaction": txn})
}
