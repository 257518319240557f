package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a cash movement against an account: positive amounts are
// deposits, negative amounts are withdrawals. Transactions are independent of
// operations and feed only balance and equity calculations.
type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Origin    string          `json:"origin,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Validate checks transaction invariants.
func (t *Transaction) Validate() error {
	if t.Amount.IsZero() {
		return NewValidationError("amount", "must not be zero")
	}
	if t.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	return nil
}

// IsDeposit returns true for positive amounts.
func (t *Transaction) IsDeposit() bool {
	return t.Amount.IsPositive()
}
