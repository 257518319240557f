package models

// Analytics response types. These mirror the dashboard API payloads; all
// figures are plain numbers at this boundary (decimals are confined to the
// calculation layer).

// AccountBalance is the cash and investment breakdown for an account.
type AccountBalance struct {
	TotalFromTransactions float64 `json:"totalFromTransactions"`
	TotalInvested         float64 `json:"totalInvested"`
	AvailableCash         float64 `json:"availableCash"`
	InvestedTrading       float64 `json:"investedTrading"`
	InvestedEtf           float64 `json:"investedEtf"`
	OpenPnLTrading        float64 `json:"openPnLTrading"`
	OpenPnLEtf            float64 `json:"openPnLEtf"`
	TotalOpenPnL          float64 `json:"totalOpenPnL"`
	TotalOpenValue        float64 `json:"totalOpenValue"`
}

// Performance is the global P&L summary for a period.
type Performance struct {
	RealizedPnL        float64 `json:"realizedPnL"`
	UnrealizedPnL      float64 `json:"unrealizedPnL"`
	TotalPnL           float64 `json:"totalPnL"`
	TotalPnLPercentage float64 `json:"totalPnLPercentage"`
	WinningOperations  int     `json:"winningOperations"`
	LosingOperations   int     `json:"losingOperations"`
	WinRate            float64 `json:"winRate"`
}

// SymbolPerformance is one row of the symbol ranking.
type SymbolPerformance struct {
	SymbolID        string    `json:"symbolId"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Logo            string    `json:"logo,omitempty"`
	Product         Product   `json:"product"`
	TotalInvested   float64   `json:"totalInvested"`
	RealizedPnL     float64   `json:"realizedPnL"`
	UnrealizedPnL   float64   `json:"unrealizedPnL"`
	TotalPnL        float64   `json:"totalPnL"`
	PnLPercentage   float64   `json:"pnlPercentage"`
	OperationsCount int       `json:"operationsCount"`
	SparklineData   []float64 `json:"sparklineData"`
}

// ProductDistribution is the open-investment share of one product type.
type ProductDistribution struct {
	Product         Product `json:"product"`
	Label           string  `json:"label"`
	TotalInvested   float64 `json:"totalInvested"`
	Percentage      float64 `json:"percentage"`
	OperationsCount int     `json:"operationsCount"`
}

// PortfolioPoint is one step of the portfolio evolution series.
type PortfolioPoint struct {
	Date           string  `json:"date"`
	TotalInvested  float64 `json:"totalInvested"`
	PortfolioValue float64 `json:"portfolioValue"`
	PnL            float64 `json:"pnl"`
}

// MonthlyPerformance aggregates closed operations by calendar month.
type MonthlyPerformance struct {
	Month            string  `json:"month"` // "2024-03"
	Year             int     `json:"year"`
	PnL              float64 `json:"pnl"`
	OperationsClosed int     `json:"operationsClosed"`
	WinRate          float64 `json:"winRate"`
}

// EquityPoint is one step of the realized equity curve.
type EquityPoint struct {
	Date        string  `json:"date"`
	Equity      float64 `json:"equity"`
	Deposits    float64 `json:"deposits"`
	Withdrawals float64 `json:"withdrawals"`
	PnL         float64 `json:"pnl"`
}

// RiskMetrics summarizes closed-operation risk over a period. The all-zero
// struct is the correct response when the period holds no closed operations.
type RiskMetrics struct {
	SharpeRatio           float64 `json:"sharpeRatio"`
	MaxDrawdown           float64 `json:"maxDrawdown"`
	MaxDrawdownPercentage float64 `json:"maxDrawdownPercentage"`
	ProfitFactor          float64 `json:"profitFactor"`
	AvgWin                float64 `json:"avgWin"`
	AvgLoss               float64 `json:"avgLoss"`
	LargestWin            float64 `json:"largestWin"`
	LargestLoss           float64 `json:"largestLoss"`
}

// Dashboard is the combined response of all analytics queries.
type Dashboard struct {
	AccountBalance      *AccountBalance       `json:"accountBalance"`
	Performance         *Performance          `json:"performance"`
	SymbolsRanking      []*SymbolPerformance  `json:"symbolsRanking"`
	ProductDistribution []*ProductDistribution `json:"productDistribution"`
	PortfolioEvolution  []*PortfolioPoint     `json:"portfolioEvolution"`
	MonthlyPerformance  []*MonthlyPerformance `json:"monthlyPerformance"`
	EquityCurve         []*EquityPoint        `json:"equityCurve"`
	RiskMetrics         *RiskMetrics          `json:"riskMetrics"`
	LastUpdated         string                `json:"lastUpdated"`
}

// ProductScope partitions analytics between ETF holdings and everything else.
type ProductScope string

const (
	ScopeAll     ProductScope = ""
	ScopeTrading ProductScope = "trading" // every product except etf
	ScopeEtf     ProductScope = "etf"
)

// InScope reports whether a product belongs to the scope.
func (s ProductScope) InScope(p Product) bool {
	switch s {
	case ScopeTrading:
		return p != ProductETF
	case ScopeEtf:
		return p == ProductETF
	default:
		return true
	}
}
