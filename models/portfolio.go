package models

import "time"

// HoldingQuote is the per-symbol slice of a portfolio snapshot.
type HoldingQuote struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
}

// PortfolioSnapshot aggregates quotes for a watchlist into sector exposure
// and pairwise directional correlation.
//
// Correlations are keyed "SYM1-SYM2" over unordered pairs of surviving
// symbols: +1 when both daily changes share sign (zero counts as
// non-negative), -1 otherwise. This deliberately preserves the
// same-direction heuristic rather than a statistical correlation.
type PortfolioSnapshot struct {
	PortfolioSize        int                     `json:"portfolio_size"`
	SectorExposure       map[string]float64      `json:"sector_exposure"`
	Correlations         map[string]int          `json:"correlations"`
	Holdings             map[string]HoldingQuote `json:"portfolio_data"`
	DiversificationScore float64                 `json:"diversification_score"`
	Timestamp            time.Time               `json:"timestamp"`
}
