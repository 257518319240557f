// Package analytics computes the dashboard queries in real time from ledger
// rows. There is no pre-aggregation: every query loads the account's
// operations, entries, prices, and transactions and derives its figures on
// the spot.
package analytics

import (
	"github.com/dvalverde/tradevault/internal/common"
	"github.com/dvalverde/tradevault/internal/interfaces"
	"github.com/dvalverde/tradevault/internal/models"
)

// Config carries the knobs the analytics engine needs injected rather than
// read from globals: sparkline length and the product label dictionary.
type Config struct {
	SparklinePoints int
	ProductLabels   map[models.Product]string
}

func (c Config) withDefaults() Config {
	if c.SparklinePoints <= 0 {
		c.SparklinePoints = 30
	}
	if c.ProductLabels == nil {
		c.ProductLabels = map[models.Product]string{
			models.ProductCrypto: "Criptos",
			models.ProductStock:  "Acciones",
			models.ProductETF:    "ETFs",
		}
	}
	return c
}

// Service implements AnalyticsService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	config  Config
}

// NewService creates a new analytics service
func NewService(storage interfaces.StorageManager, logger *common.Logger, config Config) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		config:  config.withDefaults(),
	}
}
