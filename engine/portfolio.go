package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
	"github.com/Adityaa-Sharma/Trading-mcp-server/observability"
)

// Analyzer aggregates quotes for a watchlist into sector exposure and
// pairwise directional correlation.
type Analyzer struct {
	market   MarketDataService
	universe *Universe
	cfg      *config.EngineConfig
}

// NewAnalyzer creates a new portfolio Analyzer
func NewAnalyzer(market MarketDataService, universe *Universe, cfg *config.EngineConfig) *Analyzer {
	return &Analyzer{market: market, universe: universe, cfg: cfg}
}

// Analyze fetches quotes for the symbols concurrently and builds a snapshot.
// Symbols whose fetch fails are dropped from every aggregate rather than
// failing the whole analysis. An empty or fully failed watchlist yields an
// empty snapshot with a zero diversification score.
func (a *Analyzer) Analyze(ctx context.Context, symbols []string) (*models.PortfolioSnapshot, error) {
	quotes := a.fetchInParallel(ctx, symbols)

	snapshot := &models.PortfolioSnapshot{
		PortfolioSize:  len(quotes),
		SectorExposure: sectorExposure(a.universe, quotes),
		Correlations:   directionalCorrelations(quotes),
		Holdings:       quotes,
		Timestamp:      time.Now(),
	}
	snapshot.DiversificationScore = diversificationScore(snapshot.SectorExposure)
	return snapshot, nil
}

// fetchInParallel fetches quotes concurrently with a semaphore limit.
func (a *Analyzer) fetchInParallel(ctx context.Context, symbols []string) map[string]models.HoldingQuote {
	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.FetchTimeoutSeconds)*time.Second)
	defer cancel()

	type fetchResult struct {
		symbol string
		quote  models.HoldingQuote
		err    error
	}

	results := make(chan fetchResult, len(symbols))
	sem := make(chan struct{}, a.cfg.MaxConcurrentFetches)
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-fetchCtx.Done():
				results <- fetchResult{symbol: sym, err: fetchCtx.Err()}
				return
			}

			quote, err := a.market.GetQuote(fetchCtx, MarketSymbol(sym))
			if err != nil {
				results <- fetchResult{symbol: sym, err: err}
				return
			}

			results <- fetchResult{symbol: sym, quote: models.HoldingQuote{
				Price:         quote.LastPrice(),
				ChangePercent: quote.ChangePercent,
			}}
		}(symbol)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	quotes := make(map[string]models.HoldingQuote, len(symbols))
	for result := range results {
		if result.err != nil {
			observability.Warn("dropping symbol from portfolio analysis",
				"symbol", result.symbol,
				"error", result.err)
			continue
		}
		quotes[result.symbol] = result.quote
	}
	return quotes
}

// sectorExposure computes the percentage of position count per sector.
// Exposure is count based, every symbol weighs the same regardless of price.
func sectorExposure(universe *Universe, quotes map[string]models.HoldingQuote) map[string]float64 {
	exposure := make(map[string]float64, len(quotes))
	if len(quotes) == 0 {
		return exposure
	}

	counts := make(map[string]int)
	for symbol := range quotes {
		counts[universe.SectorOf(symbol)]++
	}
	for sector, count := range counts {
		exposure[sector] = float64(count) / float64(len(quotes)) * 100
	}
	return exposure
}

// directionalCorrelations assigns +1 to unordered pairs whose daily changes
// share a sign and -1 otherwise. A zero change counts as non-negative. This
// is the same-direction heuristic, not a statistical correlation.
func directionalCorrelations(quotes map[string]models.HoldingQuote) map[string]int {
	symbols := make([]string, 0, len(quotes))
	for symbol := range quotes {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	correlations := make(map[string]int)
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			a, b := symbols[i], symbols[j]
			sameDirection := (quotes[a].ChangePercent >= 0) == (quotes[b].ChangePercent >= 0)
			value := -1
			if sameDirection {
				value = 1
			}
			correlations[a+"-"+b] = value
		}
	}
	return correlations
}

// diversificationScore is 100 minus the largest sector percentage, so a
// single-sector portfolio scores 0 and a perfectly spread one approaches 100.
func diversificationScore(exposure map[string]float64) float64 {
	if len(exposure) == 0 {
		return 0
	}
	var largest float64
	for _, pct := range exposure {
		if pct > largest {
			largest = pct
		}
	}
	return 100 - largest
}
