// Package app wires configuration, storage, clients, and services into one
// application core shared by the server entrypoint and the tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvalverde/tradevault/internal/clients/eodhd"
	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
	"github.com/dvalverde/tradevault/internal/services/analytics"
	"github.com/dvalverde/tradevault/internal/services/marketdata"
	"github.com/dvalverde/tradevault/internal/services/operations"
	"github.com/dvalverde/tradevault/internal/services/symbols"
	"github.com/dvalverde/tradevault/internal/services/transactions"
	"github.com/dvalverde/tradevault/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config             *common.Config
	Logger             *common.Logger
	Storage            interfaces.StorageManager
	MarketData         interfaces.MarketDataService
	OperationService   interfaces.OperationService
	AnalyticsService   interfaces.AnalyticsService
	SymbolService      interfaces.SymbolService
	TransactionService interfaces.TransactionService
	StartupTime        time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes config, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("TRADEVAULT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "tradevault.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/tradevault.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage and log paths against the binary directory
	if config.Storage.Internal.Path != "" && !filepath.IsAbs(config.Storage.Internal.Path) {
		config.Storage.Internal.Path = filepath.Join(binDir, config.Storage.Internal.Path)
	}
	if config.Storage.Ledger.Path != "" && !filepath.IsAbs(config.Storage.Ledger.Path) {
		config.Storage.Ledger.Path = filepath.Join(binDir, config.Storage.Ledger.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	marketData := marketdata.NewService(logger)
	if config.Clients.EODHD.APIKey != "" {
		eodhdClient := eodhd.NewClient(config.Clients.EODHD.APIKey,
			eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
			eodhd.WithLogger(logger),
		)
		marketData.Register(eodhdClient,
			models.ProductCrypto, models.ProductStock, models.ProductETF, models.ProductDerivative)
	} else {
		logger.Warn().Msg("EODHD API key not configured - market price sync will be unavailable")
	}

	productLabels := make(map[models.Product]string, len(config.Analytics.ProductLabels))
	for code, label := range config.Analytics.ProductLabels {
		productLabels[models.Product(code)] = label
	}

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		MarketData:       marketData,
		OperationService: operations.NewService(storageManager, logger),
		AnalyticsService: analytics.NewService(storageManager, logger, analytics.Config{
			SparklinePoints: config.Analytics.SparklinePoints,
			ProductLabels:   productLabels,
		}),
		TransactionService: transactions.NewService(storageManager, logger),
		StartupTime:        time.Now(),
	}
	a.SymbolService = symbols.NewService(storageManager, marketData, logger)

	if config.Sync.Enabled {
		a.startScheduler()
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("version", common.GetVersion()).
		Msg("Application initialized")

	return a, nil
}

// Close stops the scheduler and releases storage.
func (a *App) Close() error {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
	}
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
