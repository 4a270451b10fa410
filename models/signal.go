package models

import "time"

// Strategy selects the indicator interval used when computing a signal.
type Strategy string

const (
	StrategySwing    Strategy = "swing"
	StrategyIntraday Strategy = "intraday"
	StrategyLongTerm Strategy = "long_term"
)

// Interval returns the provider interval backing the strategy.
func (s Strategy) Interval() string {
	if s == StrategyIntraday {
		return "60min"
	}
	return "daily"
}

// Valid reports whether the strategy is one of the supported tags.
func (s Strategy) Valid() bool {
	switch s {
	case StrategySwing, StrategyIntraday, StrategyLongTerm:
		return true
	}
	return false
}

// SignalResult is the normalized output of the technical signal scorer.
// BuyScore and SellScore are proportional shares of the fired rule weights;
// Confidence is the raw fired total clamped to [0,100].
type SignalResult struct {
	Symbol     string    `json:"symbol"`
	Strategy   Strategy  `json:"strategy"`
	BuyScore   float64   `json:"buy_score"`
	SellScore  float64   `json:"sell_score"`
	Confidence float64   `json:"confidence"`
	Price      float64   `json:"latest_price"`
	RSI        float64   `json:"rsi"`
	SMA        float64   `json:"sma"`
	ATR        float64   `json:"atr"`
	Timestamp  time.Time `json:"timestamp"`
}
