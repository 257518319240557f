// Package transactions manages cash deposits and withdrawals.
package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
)

// Service implements TransactionService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new transaction service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// List returns the account's transactions, most recent first.
func (s *Service) List(ctx context.Context, userID, accountID string) ([]*models.Transaction, error) {
	return s.storage.LedgerStore().ListTransactions(ctx, userID, accountID)
}

// Create records a cash movement. Positive amounts are deposits, negative
// are withdrawals.
func (s *Service) Create(ctx context.Context, userID, accountID string, input models.NewTransactionInput) (*models.Transaction, error) {
	tx := &models.Transaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		AccountID: accountID,
		Amount:    input.Amount,
		Date:      input.Date,
		Origin:    input.Origin,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.LedgerStore().SaveTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("transaction_id", tx.ID).
		Str("amount", tx.Amount.String()).
		Msg("Transaction recorded")
	return tx, nil
}

// Remove deletes a transaction.
func (s *Service) Remove(ctx context.Context, userID, accountID, transactionID string) error {
	return s.storage.LedgerStore().DeleteTransaction(ctx, userID, accountID, transactionID)
}
