package services

import (
	"context"
	"encoding/json"

	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
)

// MarketDataService defines the interface for market-data operations
type MarketDataService interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetIndicatorSeries(ctx context.Context, symbol string, indicator models.Indicator, p models.SeriesParams) (models.Series, error)
	GetIntraday(ctx context.Context, symbol, interval, outputsize string) (json.RawMessage, error)
	GetDaily(ctx context.Context, symbol, outputsize string) (json.RawMessage, error)
	GetNewsSentiment(ctx context.Context, tickers []string, limit int) (json.RawMessage, error)
	GetTopGainersLosers(ctx context.Context) (json.RawMessage, error)
	GetEarningsCalendar(ctx context.Context, symbol, horizon string) (string, error)
}

// BrokerService defines the interface for brokerage operations
type BrokerService interface {
	SubmitOrder(ctx context.Context, req models.OrderRequest) (*ProviderResponse, error)
	CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error)
	GetOrderBook(ctx context.Context) (json.RawMessage, error)
	GetOrderDetails(ctx context.Context, orderID string) (json.RawMessage, error)
	GetHoldings(ctx context.Context) (json.RawMessage, error)
	GetPositions(ctx context.Context) (json.RawMessage, error)
	GetFunds(ctx context.Context) (json.RawMessage, error)
	GetProfile(ctx context.Context) (json.RawMessage, error)
	SearchInstruments(ctx context.Context, query string) ([]models.InstrumentMatch, error)
	GetMarketQuotes(ctx context.Context, instrumentKeys []string) (json.RawMessage, error)
}

// Compile-time interface verification
var _ MarketDataService = (*AlphaVantageService)(nil)
var _ BrokerService = (*UpstoxService)(nil)
