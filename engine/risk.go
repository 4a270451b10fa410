package engine

import (
	"context"
	"time"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
)

// Stop distance in ATR multiples.
const stopATRMultiple = 2.0

// RiskAssessor converts current price, ATR and position size into exposure,
// stop price and a capped risk score.
type RiskAssessor struct {
	market MarketDataService
	cfg    *config.EngineConfig
}

// NewRiskAssessor creates a new RiskAssessor
func NewRiskAssessor(market MarketDataService, cfg *config.EngineConfig) *RiskAssessor {
	return &RiskAssessor{market: market, cfg: cfg}
}

// Assess fetches the quote and ATR for the symbol and computes the risk
// profile of holding quantity shares. Quantity is validated before any
// network call is issued.
func (a *RiskAssessor) Assess(ctx context.Context, symbol string, quantity int64) (*models.RiskAssessment, error) {
	if quantity <= 0 {
		return nil, models.Errorf(models.ErrInvalidRequest, "quantity must be positive, got %d", quantity)
	}

	market := MarketSymbol(symbol)

	quote, err := a.market.GetQuote(ctx, market)
	if err != nil {
		return nil, err
	}

	atrSeries, err := a.market.GetIndicatorSeries(ctx, market, models.IndicatorATR,
		models.SeriesParams{Interval: "daily", TimePeriod: a.cfg.ATRPeriod})
	if err != nil {
		return nil, err
	}
	atr, ok := atrSeries.Latest()
	if !ok {
		return nil, models.Errorf(models.ErrInsufficientData, "no ATR data for %s", market)
	}

	return ComputeRisk(market, quote.LastPrice(), atr, quantity)
}

// ComputeRisk derives the risk profile from price, ATR and quantity.
//
// The stop sits 2 ATR below the current price and may be negative for
// extreme volatility; that is a valid output, not an error. The risk score
// scales the ATR/price ratio by 1000 and caps at 100 - it is a ranking
// value, not a probability.
func ComputeRisk(symbol string, price, atr float64, quantity int64) (*models.RiskAssessment, error) {
	if quantity <= 0 {
		return nil, models.Errorf(models.ErrInvalidRequest, "quantity must be positive, got %d", quantity)
	}
	if price <= 0 {
		return nil, models.Errorf(models.ErrInvalidRequest, "price must be positive, got %g", price)
	}

	dailyVolatility := atr / price
	stopPrice := price - stopATRMultiple*atr

	return &models.RiskAssessment{
		Symbol:          symbol,
		Quantity:        quantity,
		CurrentPrice:    price,
		PositionValue:   price * float64(quantity),
		RiskScore:       min(100, dailyVolatility*1000),
		MaxLoss:         (price - stopPrice) * float64(quantity),
		StopPrice:       stopPrice,
		DailyVolatility: dailyVolatility * 100,
		ATR:             atr,
		Timestamp:       time.Now(),
	}, nil
}
