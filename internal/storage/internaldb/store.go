// Package internaldb implements InternalStore using BadgerHold.
// It manages users, accounts, and system-level KV.
package internaldb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// Store implements interfaces.InternalStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// systemKV is a system-level key-value pair (schema version, flags).
type systemKV struct {
	Key      string
	Value    string
	DateTime time.Time
}

// NewStore creates a new InternalStore backed by BadgerHold.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create internal db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open internal db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("InternalDB opened")
	return &Store{db: db, logger: logger}, nil
}

// --- Users ---

func (s *Store) GetUser(_ context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.Get(userID, &user); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("user '%s': %w", userID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	var users []models.User
	if err := s.db.Find(&users, badgerhold.Where("Email").Eq(strings.ToLower(email))); err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user '%s': %w", email, models.ErrNotFound)
	}
	return &users[0], nil
}

func (s *Store) SaveUser(_ context.Context, user *models.User) error {
	now := time.Now()
	user.Email = strings.ToLower(user.Email)

	var existing models.User
	if err := s.db.Get(user.ID, &existing); err == nil {
		user.CreatedAt = existing.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if err := s.db.Upsert(user.ID, user); err != nil {
		return fmt.Errorf("failed to save user '%s': %w", user.ID, err)
	}
	s.logger.Debug().Str("user_id", user.ID).Msg("User saved")
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID string) error {
	if err := s.db.Delete(userID, models.User{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete user '%s': %w", userID, err)
	}
	// Delete the user's accounts as well
	var accounts []models.Account
	if err := s.db.Find(&accounts, badgerhold.Where("UserID").Eq(userID)); err == nil {
		for _, a := range accounts {
			_ = s.db.Delete(a.ID, models.Account{})
		}
	}
	s.logger.Debug().Str("user_id", userID).Msg("User and accounts deleted")
	return nil
}

// --- Accounts ---

func (s *Store) GetAccount(_ context.Context, userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Get(accountID, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("account '%s': %w", accountID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account '%s': %w", accountID, err)
	}
	// Ownership check reports NotFound to avoid leaking existence.
	if account.UserID != userID {
		return nil, fmt.Errorf("account '%s': %w", accountID, models.ErrNotFound)
	}
	return &account, nil
}

func (s *Store) SaveAccount(_ context.Context, account *models.Account) error {
	now := time.Now()
	var existing models.Account
	if err := s.db.Get(account.ID, &existing); err == nil {
		account.CreatedAt = existing.CreatedAt
	} else if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	if err := s.db.Upsert(account.ID, account); err != nil {
		return fmt.Errorf("failed to save account '%s': %w", account.ID, err)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if _, err := s.GetAccount(ctx, userID, accountID); err != nil {
		return err
	}
	if err := s.db.Delete(accountID, models.Account{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete account '%s': %w", accountID, err)
	}
	return nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]*models.Account, error) {
	var accounts []models.Account
	if err := s.db.Find(&accounts, badgerhold.Where("UserID").Eq(userID)); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	result := make([]*models.Account, len(accounts))
	for i := range accounts {
		result[i] = &accounts[i]
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// --- System key-value ---

func (s *Store) GetSystemKV(_ context.Context, key string) (string, error) {
	var kv systemKV
	if err := s.db.Get(key, &kv); err != nil {
		if err == badgerhold.ErrNotFound {
			return "", fmt.Errorf("system key '%s': %w", key, models.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get system key '%s': %w", key, err)
	}
	return kv.Value, nil
}

func (s *Store) SetSystemKV(_ context.Context, key, value string) error {
	kv := &systemKV{Key: key, Value: value, DateTime: time.Now()}
	if err := s.db.Upsert(key, kv); err != nil {
		return fmt.Errorf("failed to set system key '%s': %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
