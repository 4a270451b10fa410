package engine

import (
	"context"
	"time"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
	"github.com/Adityaa-Sharma/Trading-mcp-server/observability"
)

// Scoring rule weights. The raw fired total is at most 75.
const (
	rsiWeight       = 30.0
	smaWeight       = 25.0
	deviationWeight = 20.0

	rsiOversold   = 30.0
	rsiOverbought = 70.0
	deviationPct  = 2.0
)

// Scorer turns the latest price, RSI, SMA and ATR values into normalized
// buy/sell confidence scores.
type Scorer struct {
	market MarketDataService
	cfg    *config.EngineConfig
}

// NewScorer creates a new Scorer
func NewScorer(market MarketDataService, cfg *config.EngineConfig) *Scorer {
	return &Scorer{market: market, cfg: cfg}
}

// GetSignal fetches the latest indicator values for the symbol and scores
// them. Any missing latest value fails with InsufficientData.
func (s *Scorer) GetSignal(ctx context.Context, symbol string, strategy models.Strategy) (*models.SignalResult, error) {
	if !strategy.Valid() {
		return nil, models.Errorf(models.ErrInvalidRequest, "invalid strategy: %s", strategy)
	}

	market := MarketSymbol(symbol)
	interval := strategy.Interval()

	price, err := s.latest(ctx, market, models.IndicatorPrice, models.SeriesParams{Interval: interval})
	if err != nil {
		return nil, err
	}
	rsi, err := s.latest(ctx, market, models.IndicatorRSI, models.SeriesParams{Interval: interval, TimePeriod: s.cfg.RSIPeriod})
	if err != nil {
		return nil, err
	}
	sma, err := s.latest(ctx, market, models.IndicatorSMA, models.SeriesParams{Interval: interval, TimePeriod: s.cfg.SMAPeriod})
	if err != nil {
		return nil, err
	}
	atr, err := s.latest(ctx, market, models.IndicatorATR, models.SeriesParams{Interval: interval, TimePeriod: s.cfg.ATRPeriod})
	if err != nil {
		return nil, err
	}

	result := Score(market, strategy, price, rsi, sma, atr)

	observability.GetMetrics().RecordSignalConfidence(string(strategy), result.Confidence)
	observability.WithSymbol(market).Debug("signal computed",
		"buy_score", result.BuyScore,
		"sell_score", result.SellScore,
		"confidence", result.Confidence)

	return result, nil
}

func (s *Scorer) latest(ctx context.Context, symbol string, indicator models.Indicator, p models.SeriesParams) (float64, error) {
	series, err := s.market.GetIndicatorSeries(ctx, symbol, indicator, p)
	if err != nil {
		return 0, err
	}
	value, ok := series.Latest()
	if !ok {
		return 0, models.Errorf(models.ErrInsufficientData, "no %s data for %s", indicator, symbol)
	}
	return value, nil
}

// Score applies the signal rules to the latest indicator values.
//
// Rules fire independently and additively: oversold/overbought RSI (30),
// price vs SMA (25), and percent deviation from SMA beyond 2% (20). Raw
// totals are normalized to proportional shares; confidence is the raw fired
// total clamped to [0,100]. No rule firing yields all zeros, not an error.
func Score(symbol string, strategy models.Strategy, price, rsi, sma, atr float64) *models.SignalResult {
	var buyRaw, sellRaw float64

	if rsi < rsiOversold {
		buyRaw += rsiWeight
	} else if rsi > rsiOverbought {
		sellRaw += rsiWeight
	}

	if price > sma {
		buyRaw += smaWeight
	} else {
		sellRaw += smaWeight
	}

	if sma != 0 {
		deviation := (price - sma) / sma * 100
		if deviation > deviationPct {
			buyRaw += deviationWeight
		} else if deviation < -deviationPct {
			sellRaw += deviationWeight
		}
	}

	total := buyRaw + sellRaw
	buyScore, sellScore := 0.0, 0.0
	if total > 0 {
		buyScore = min(100, buyRaw/total*100)
		sellScore = min(100, sellRaw/total*100)
	}

	confidence := min(max(total, 0), 100)

	return &models.SignalResult{
		Symbol:     symbol,
		Strategy:   strategy,
		BuyScore:   buyScore,
		SellScore:  sellScore,
		Confidence: confidence,
		Price:      price,
		RSI:        rsi,
		SMA:        sma,
		ATR:        atr,
		Timestamp:  time.Now(),
	}
}
