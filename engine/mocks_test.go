package engine

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
	"github.com/Adityaa-Sharma/Trading-mcp-server/services"
)

// mockMarket is a configurable MarketDataService for engine tests.
type mockMarket struct {
	quoteFunc  func(ctx context.Context, symbol string) (*models.Quote, error)
	seriesFunc func(ctx context.Context, symbol string, indicator models.Indicator, p models.SeriesParams) (models.Series, error)
	calls      int
}

func (m *mockMarket) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	m.calls++
	return m.quoteFunc(ctx, symbol)
}

func (m *mockMarket) GetIndicatorSeries(ctx context.Context, symbol string, indicator models.Indicator, p models.SeriesParams) (models.Series, error) {
	m.calls++
	return m.seriesFunc(ctx, symbol, indicator, p)
}

func (m *mockMarket) GetIntraday(ctx context.Context, symbol, interval, outputsize string) (json.RawMessage, error) {
	return nil, nil
}

func (m *mockMarket) GetDaily(ctx context.Context, symbol, outputsize string) (json.RawMessage, error) {
	return nil, nil
}

func (m *mockMarket) GetNewsSentiment(ctx context.Context, tickers []string, limit int) (json.RawMessage, error) {
	return nil, nil
}

func (m *mockMarket) GetTopGainersLosers(ctx context.Context) (json.RawMessage, error) {
	return nil, nil
}

func (m *mockMarket) GetEarningsCalendar(ctx context.Context, symbol, horizon string) (string, error) {
	return "", nil
}

var _ MarketDataService = (*mockMarket)(nil)

// mockBroker is a configurable BrokerService for dispatcher tests.
type mockBroker struct {
	submitFunc func(ctx context.Context, req models.OrderRequest) (*services.ProviderResponse, error)
	searchFunc func(ctx context.Context, query string) ([]models.InstrumentMatch, error)
	submitted  []models.OrderRequest
}

func (m *mockBroker) SubmitOrder(ctx context.Context, req models.OrderRequest) (*services.ProviderResponse, error) {
	m.submitted = append(m.submitted, req)
	return m.submitFunc(ctx, req)
}

func (m *mockBroker) SearchInstruments(ctx context.Context, query string) ([]models.InstrumentMatch, error) {
	if m.searchFunc == nil {
		return nil, nil
	}
	return m.searchFunc(ctx, query)
}

func (m *mockBroker) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return nil, nil
}

func (m *mockBroker) GetOrderBook(ctx context.Context) (json.RawMessage, error) { return nil, nil }

func (m *mockBroker) GetOrderDetails(ctx context.Context, orderID string) (json.RawMessage, error) {
	return nil, nil
}

func (m *mockBroker) GetHoldings(ctx context.Context) (json.RawMessage, error)  { return nil, nil }
func (m *mockBroker) GetPositions(ctx context.Context) (json.RawMessage, error) { return nil, nil }
func (m *mockBroker) GetFunds(ctx context.Context) (json.RawMessage, error)     { return nil, nil }
func (m *mockBroker) GetProfile(ctx context.Context) (json.RawMessage, error)   { return nil, nil }

func (m *mockBroker) GetMarketQuotes(ctx context.Context, instrumentKeys []string) (json.RawMessage, error) {
	return nil, nil
}

var _ BrokerService = (*mockBroker)(nil)

// quoteOf builds a Quote with the given last price and change percent.
func quoteOf(symbol string, price, changePercent float64) *models.Quote {
	return &models.Quote{
		Symbol:        symbol,
		Last:          decimal.NewFromFloat(price),
		ChangePercent: changePercent,
	}
}

// seriesOf builds a Series with a single latest value.
func seriesOf(value float64) models.Series {
	return models.Series{{Value: value}}
}
