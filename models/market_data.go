package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote represents a point-in-time quote snapshot for a symbol.
// Quotes are constructed per fetch and discarded after use.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Last          decimal.Decimal `json:"last"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent float64         `json:"change_percent"`
	Volume        int64           `json:"volume"`
	Timestamp     time.Time       `json:"timestamp"`
}

// LastPrice returns the last traded price as a float for scoring math.
func (q Quote) LastPrice() float64 {
	f, _ := q.Last.Float64()
	return f
}

// Indicator identifies a technical series the engine can request.
type Indicator string

const (
	IndicatorRSI   Indicator = "RSI"
	IndicatorSMA   Indicator = "SMA"
	IndicatorATR   Indicator = "ATR"
	IndicatorPrice Indicator = "PRICE"
)

// IndicatorSample is one timestamped value of a technical series.
// For PRICE series the value is the OHLC close.
type IndicatorSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is an indicator series ordered newest-first, matching the
// provider's ordering. The engine only ever consumes the latest sample.
type Series []IndicatorSample

// Latest returns the most recent sample value, or false when the series
// is empty.
func (s Series) Latest() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[0].Value, true
}

// SeriesParams tunes an indicator series request.
type SeriesParams struct {
	Interval   string // 1min..60min, daily, weekly, monthly
	TimePeriod int    // look-back window; ignored for PRICE
	SeriesType string // close, open, high, low
}

// InstrumentMatch is one result from the brokerage instrument search.
type InstrumentMatch struct {
	Exchange      string `json:"exchange"`
	Segment       string `json:"segment"`
	InstrumentKey string `json:"instrument_key"`
	TradingSymbol string `json:"trading_symbol"`
	Name          string `json:"name"`
}
