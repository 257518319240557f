package models

import "time"

// User represents a registered user.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"`
	ActiveAccountID string    `json:"activeAccountId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Account is a ledger scope under a user. Every operation, symbol, price
// point, and transaction belongs to exactly one account.
type Account struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks account invariants.
func (a *Account) Validate() error {
	if a.Name == "" {
		return NewValidationError("name", "is required")
	}
	return nil
}
