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

// Expected move above which a candidate ranks as high volatility.
const highVolatilityMove = 3.0

// Scanner screens a sector universe for volatility catalysts.
type Scanner struct {
	market   MarketDataService
	universe *Universe
	cfg      *config.EngineConfig
}

// NewScanner creates a new catalyst Scanner
func NewScanner(market MarketDataService, universe *Universe, cfg *config.EngineConfig) *Scanner {
	return &Scanner{market: market, universe: universe, cfg: cfg}
}

type candidate struct {
	symbol        string
	price         float64
	changePercent float64
	atr           float64
}

// Scan screens every symbol in the sector universe and returns the top
// candidates ranked by expected move. A symbol qualifies when its absolute
// daily change exceeds the change threshold or its expected move exceeds
// the move threshold. Per-symbol failures are dropped, not fatal.
func (s *Scanner) Scan(ctx context.Context, rawSector string) (*models.CatalystScan, error) {
	sector, err := models.ParseSector(rawSector)
	if err != nil {
		return nil, err
	}

	symbols := s.universe.SectorSymbols(sector)
	candidates := s.scanInParallel(ctx, symbols)

	// Simulated earnings date: the scan has no calendar source for Indian
	// symbols, so every event carries a date 30 days out.
	eventDate := time.Now().AddDate(0, 0, 30).Format("2006-01-02")

	var events []models.CatalystEvent
	highVolatility := 0
	for _, c := range candidates {
		expectedMove := 0.0
		if c.price > 0 {
			expectedMove = c.atr / c.price * 100
		}
		if abs(c.changePercent) <= s.cfg.CatalystChangeThresh && expectedMove <= s.cfg.CatalystMoveThresh {
			continue
		}

		rank := models.VolatilityMedium
		if expectedMove > highVolatilityMove {
			rank = models.VolatilityHigh
			highVolatility++
		}
		events = append(events, models.CatalystEvent{
			Symbol:         c.symbol,
			CurrentPrice:   c.price,
			ChangePercent:  c.changePercent,
			ExpectedMove:   expectedMove,
			Date:           eventDate,
			CatalystType:   "earnings",
			VolatilityRank: rank,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ExpectedMove > events[j].ExpectedMove
	})
	if len(events) > s.cfg.ScanResultLimit {
		events = events[:s.cfg.ScanResultLimit]
	}

	return &models.CatalystScan{
		Sector:              sector,
		ScanDate:            time.Now(),
		OpportunitiesFound:  len(events),
		Events:              events,
		TotalScanned:        len(symbols),
		HighVolatilityCount: highVolatility,
	}, nil
}

// scanInParallel fetches quote and ATR per symbol with a semaphore limit.
func (s *Scanner) scanInParallel(ctx context.Context, symbols []string) []candidate {
	scanCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.FetchTimeoutSeconds)*time.Second)
	defer cancel()

	type scanResult struct {
		index     int
		candidate candidate
		err       error
	}

	results := make(chan scanResult, len(symbols))
	sem := make(chan struct{}, s.cfg.MaxConcurrentFetches)
	var wg sync.WaitGroup

	for i, symbol := range symbols {
		wg.Add(1)
		go func(idx int, sym string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-scanCtx.Done():
				results <- scanResult{index: idx, err: scanCtx.Err()}
				return
			}

			market := MarketSymbol(sym)
			quote, err := s.market.GetQuote(scanCtx, market)
			if err != nil {
				results <- scanResult{index: idx, err: err}
				return
			}
			atrSeries, err := s.market.GetIndicatorSeries(scanCtx, market, models.IndicatorATR,
				models.SeriesParams{Interval: "daily", TimePeriod: s.cfg.ATRPeriod})
			if err != nil {
				results <- scanResult{index: idx, err: err}
				return
			}
			atr, ok := atrSeries.Latest()
			if !ok {
				results <- scanResult{index: idx, err: models.Errorf(models.ErrInsufficientData, "no ATR data for %s", market)}
				return
			}

			results <- scanResult{index: idx, candidate: candidate{
				symbol:        sym,
				price:         quote.LastPrice(),
				changePercent: quote.ChangePercent,
				atr:           atr,
			}}
		}(i, symbol)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect in universe order so equal expected moves rank deterministically.
	ordered := make([]*candidate, len(symbols))
	for result := range results {
		if result.err != nil {
			observability.Warn("dropping symbol from catalyst scan",
				"symbol", symbols[result.index],
				"error", result.err)
			continue
		}
		c := result.candidate
		ordered[result.index] = &c
	}

	candidates := make([]candidate, 0, len(symbols))
	for _, c := range ordered {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	return candidates
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
