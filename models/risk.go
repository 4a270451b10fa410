package models

import "time"

// RiskAssessment describes the exposure of holding quantity shares at the
// current price given recent volatility (ATR).
//
// StopPrice may be negative when 2*ATR exceeds the price; that is a valid
// extreme output, callers must check the sign before using it.
type RiskAssessment struct {
	Symbol          string    `json:"symbol"`
	Quantity        int64     `json:"quantity"`
	CurrentPrice    float64   `json:"current_price"`
	PositionValue   float64   `json:"position_value"`
	RiskScore       float64   `json:"risk_score"`
	MaxLoss         float64   `json:"max_loss"`
	StopPrice       float64   `json:"stop_price"`
	DailyVolatility float64   `json:"daily_volatility"`
	ATR             float64   `json:"atr"`
	Timestamp       time.Time `json:"timestamp"`
}
