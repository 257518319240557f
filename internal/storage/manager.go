// Package storage provides the top-level StorageManager that coordinates
// the 2 storage areas: internaldb and ledgerdb.
package storage

import (
	"fmt"

	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/storage/internaldb"
	"github.com/dvalverde/tradevault/internal/storage/ledgerdb"
)

// Manager implements interfaces.StorageManager using 2 storage areas.
type Manager struct {
	internal *internaldb.Store
	ledger   *ledgerdb.Store
	logger   *common.Logger
}

// NewManager creates a new StorageManager with the 2 storage areas.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	internalStore, err := internaldb.NewStore(logger, config.Storage.Internal.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create internal store: %w", err)
	}

	ledgerStore, err := ledgerdb.NewStore(logger, config.Storage.Ledger.Path)
	if err != nil {
		internalStore.Close()
		return nil, fmt.Errorf("failed to create ledger store: %w", err)
	}

	logger.Info().
		Str("internal", config.Storage.Internal.Path).
		Str("ledger", config.Storage.Ledger.Path).
		Msg("Storage manager initialized (2 areas)")

	return &Manager{
		internal: internalStore,
		ledger:   ledgerStore,
		logger:   logger,
	}, nil
}

func (m *Manager) InternalStore() interfaces.InternalStore {
	return m.internal
}

func (m *Manager) LedgerStore() interfaces.LedgerStore {
	return m.ledger
}

func (m *Manager) Close() error {
	var firstErr error
	if err := m.internal.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := m.ledger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
