package service

import (
	"context"
	"errors"
	"time"

	"github.com/example/secondhand/pkg/models"
	"go.uber.org/zap"
)

// TransactionService is the payment ledger for non-COD orders. The pay
// path is a mock gateway: once preconditions hold it always succeeds; a
// real gateway slots in behind the same contract.
type TransactionService struct {
	transactions TransactionStore
	orders       OrderStore
	logger       *zap.Logger
	now          func() time.Time
}

func NewTransactionService(transactions TransactionStore, orders OrderStore, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		orders:       orders,
		logger:       logger,
		now:          time.Now,
	}
}

// GetTransaction is readable by its customer, its seller, or an admin.
func (s *TransactionService) GetTransaction(ctx context.Context, actor models.Actor, txnID string) (*models.Transaction, error) {
	txn, err := s.load(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.CustomerID != actor.ID && txn.SellerID != actor.ID && !actor.IsAdmin() {
		return nil, E(KindForbidden, "no access to transaction %s", txnID)
	}
	return txn, nil
}

// ListTransactions scopes results by role: users see their purchases,
// sellers their sales, admins everything.
func (s *TransactionService) ListTransactions(ctx context.Context, actor models.Actor, status models.TransactionStatus, page Page) ([]models.Transaction, int64, error) {
	filter := TransactionFilter{Status: status}
	switch actor.Role {
	case models.RoleUser:
		filter.CustomerID = actor.ID
	case models.RoleSeller:
		filter.SellerID = actor.ID
	}
	txns, total, err := s.transactions.List(ctx, filter, page.Normalize())
	if err != nil {
		return nil, 0, Fatal(err, "list transactions")
	}
	return txns, total, nil
}

// ProcessPayment settles a pending transaction and marks the linked order
// paid.
func (s *TransactionService) ProcessPayment(ctx context.Context, customerID, txnID string, details models.PaymentDetails) (*models.Transaction, error) {
	if len(details.Metadata) > models.MaxMetadataKeys {
		return nil, E(KindInvalidStatus, "payment details carry more than %d metadata keys", models.MaxMetadataKeys)
	}

	txn, err := s.load(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.CustomerID != customerID {
		return nil, E(KindForbidden, "only the customer may pay transaction %s", txnID)
	}
	if txn.Status != models.TransactionPending {
		return nil, E(KindInvalidTransition, "transaction %s is %q, not pending", txn.TransactionNumber, txn.Status)
	}

	now := s.now()
	details.MockPayment = true
	details.PaidAt = &now
	mut := TransactionMutation{
		Status:      models.TransactionCompleted,
		Details:     &details,
		CompletedAt: &now,
	}
	if err := s.transactions.Transition(ctx, txnID, models.TransactionPending, mut); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return nil, E(KindInvalidTransition, "transaction %s changed concurrently", txn.TransactionNumber)
		}
		return nil, Fatal(err, "complete transaction %s", txn.TransactionNumber)
	}
	if err := s.orders.SetPaymentStatus(ctx, txn.OrderID, models.PaymentPaid); err != nil {
		return nil, Fatal(err, "mark order %s paid", txn.OrderID)
	}

	txn.Status = models.TransactionCompleted
	txn.PaymentDetails = details
	txn.CompletedAt = &now
	txn.UpdatedAt = now
	s.logger.Info("payment completed",
		zap.String("transaction_number", txn.TransactionNumber),
		zap.Float64("amount", txn.Amount))
	return txn, nil
}

// RefundTransaction reverses a completed payment. Stock is not restored
// here: cancellation and rejection own the stock-compensation path, and a
// refunded order may already have shipped.
func (s *TransactionService) RefundTransaction(ctx context.Context, actor models.Actor, txnID, reason string) (*models.Transaction, error) {
	txn, err := s.load(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.SellerID != actor.ID && !actor.IsAdmin() {
		return nil, E(KindForbidden, "only the seller or an admin may refund transaction %s", txnID)
	}
	if txn.Status != models.TransactionCompleted {
		return nil, E(KindInvalidTransition, "transaction %s is %q, only completed transactions are refundable", txn.TransactionNumber, txn.Status)
	}

	now := s.now()
	details := txn.PaymentDetails
	details.RefundReason = reason
	details.RefundedAt = &now
	mut := TransactionMutation{
		Status:  models.TransactionRefunded,
		Details: &details,
	}
	if err := s.transactions.Transition(ctx, txnID, models.TransactionCompleted, mut); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return nil, E(KindInvalidTransition, "transaction %s changed concurrently", txn.TransactionNumber)
		}
		return nil, Fatal(err, "refund transaction %s", txn.TransactionNumber)
	}
	if err := s.orders.SetPaymentStatus(ctx, txn.OrderID, models.PaymentRefunded); err != nil {
		return nil, Fatal(err, "mark order %s refunded", txn.OrderID)
	}

	txn.Status = models.TransactionRefunded
	txn.PaymentDetails = details
	txn.UpdatedAt = now
	s.logger.Info("transaction refunded",
		zap.String("transaction_number", txn.TransactionNumber),
		zap.String("refunded_by", actor.ID))
	return txn, nil
}

func (s *TransactionService) load(ctx context.Context, txnID string) (*models.Transaction, error) {
	txn, err := s.transactions.Get(ctx, txnID)
	if err != nil {
		return nil, Fatal(err, "load transaction %s", txnID)
	}
	if txn == nil {
		return nil, E(KindNotFound, "transaction %s not found", txnID)
	}
	return txn, nil
}
