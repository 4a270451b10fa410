package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
)

func testUniverse(t *testing.T) *Universe {
	t.Helper()
	universe, err := LoadUniverse()
	if err != nil {
		t.Fatalf("LoadUniverse() error = %v", err)
	}
	return universe
}

func TestAnalyze(t *testing.T) {
	changes := map[string]float64{
		"RELIANCE.BSE": 1.5,
		"TCS.BSE":      -0.8,
		"INFY.BSE":     2.1,
	}
	market := &mockMarket{
		quoteFunc: func(ctx context.Context, symbol string) (*models.Quote, error) {
			return quoteOf(symbol, 100, changes[symbol]), nil
		},
	}

	analyzer := NewAnalyzer(market, testUniverse(t), &config.NewTestConfig().Engine)
	snapshot, err := analyzer.Analyze(context.Background(), []string{"RELIANCE", "TCS", "INFY"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if snapshot.PortfolioSize != 3 {
		t.Errorf("PortfolioSize = %d, want 3", snapshot.PortfolioSize)
	}

	// RELIANCE is Energy, TCS and INFY are IT.
	if got := snapshot.SectorExposure["IT"]; !almostEqual(got, 200.0/3.0) {
		t.Errorf("IT exposure = %v, want %v", got, 200.0/3.0)
	}
	if got := snapshot.SectorExposure["Energy"]; !almostEqual(got, 100.0/3.0) {
		t.Errorf("Energy exposure = %v, want %v", got, 100.0/3.0)
	}

	// Same direction pairs score +1, opposite -1.
	wantCorrelations := map[string]int{
		"INFY-RELIANCE": 1,
		"INFY-TCS":      -1,
		"RELIANCE-TCS":  -1,
	}
	if len(snapshot.Correlations) != len(wantCorrelations) {
		t.Fatalf("Correlations = %v, want %v", snapshot.Correlations, wantCorrelations)
	}
	for pair, want := range wantCorrelations {
		if got := snapshot.Correlations[pair]; got != want {
			t.Errorf("Correlations[%s] = %d, want %d", pair, got, want)
		}
	}

	if want := 100 - 200.0/3.0; !almostEqual(snapshot.DiversificationScore, want) {
		t.Errorf("DiversificationScore = %v, want %v", snapshot.DiversificationScore, want)
	}
}

func TestAnalyze_ZeroChangeCountsNonNegative(t *testing.T) {
	changes := map[string]float64{
		"RELIANCE.BSE": 0,
		"TCS.BSE":      2.5,
	}
	market := &mockMarket{
		quoteFunc: func(ctx context.Context, symbol string) (*models.Quote, error) {
			return quoteOf(symbol, 100, changes[symbol]), nil
		},
	}

	analyzer := NewAnalyzer(market, testUniverse(t), &config.NewTestConfig().Engine)
	snapshot, err := analyzer.Analyze(context.Background(), []string{"RELIANCE", "TCS"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if got := snapshot.Correlations["RELIANCE-TCS"]; got != 1 {
		t.Errorf("Correlations[RELIANCE-TCS] = %d, want 1", got)
	}
}

func TestAnalyze_FailedSymbolsDropped(t *testing.T) {
	market := &mockMarket{
		quoteFunc: func(ctx context.Context, symbol string) (*models.Quote, error) {
			if strings.HasPrefix(symbol, "TCS") {
				return nil, models.NewError(models.ErrTransportFailed, "provider down")
			}
			return quoteOf(symbol, 100, 1), nil
		},
	}

	analyzer := NewAnalyzer(market, testUniverse(t), &config.NewTestConfig().Engine)
	snapshot, err := analyzer.Analyze(context.Background(), []string{"RELIANCE", "TCS", "INFY"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if snapshot.PortfolioSize != 2 {
		t.Errorf("PortfolioSize = %d, want 2", snapshot.PortfolioSize)
	}
	if _, ok := snapshot.Holdings["TCS"]; ok {
		t.Error("failed symbol should be dropped from holdings")
	}
	for pair := range snapshot.Correlations {
		if strings.Contains(pair, "TCS") {
			t.Errorf("failed symbol should be dropped from correlations, got pair %s", pair)
		}
	}
}

func TestAnalyze_EmptyWatchlist(t *testing.T) {
	market := &mockMarket{
		quoteFunc: func(ctx context.Context, symbol string) (*models.Quote, error) {
			t.Fatal("no fetch expected for an empty watchlist")
			return nil, nil
		},
	}

	analyzer := NewAnalyzer(market, testUniverse(t), &config.NewTestConfig().Engine)
	snapshot, err := analyzer.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if snapshot.PortfolioSize != 0 {
		t.Errorf("PortfolioSize = %d, want 0", snapshot.PortfolioSize)
	}
	if len(snapshot.SectorExposure) != 0 {
		t.Errorf("SectorExposure = %v, want empty", snapshot.SectorExposure)
	}
	if snapshot.DiversificationScore != 0 {
		t.Errorf("DiversificationScore = %v, want 0", snapshot.DiversificationScore)
	}
}

func TestAnalyze_AllFetchesFail(t *testing.T) {
	market := &mockMarket{
		quoteFunc: func(ctx context.Context, symbol string) (*models.Quote, error) {
			return nil, models.NewError(models.ErrTransportFailed, "provider down")
		},
	}

	analyzer := NewAnalyzer(market, testUniverse(t), &config.NewTestConfig().Engine)
	snapshot, err := analyzer.Analyze(context.Background(), []string{"RELIANCE", "TCS"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if snapshot.PortfolioSize != 0 {
		t.Errorf("PortfolioSize = %d, want 0", snapshot.PortfolioSize)
	}
	if snapshot.DiversificationScore != 0 {
		t.Errorf("DiversificationScore = %v, want 0", snapshot.DiversificationScore)
	}
}

func TestAnalyze_UnknownSymbolSector(t *testing.T) {
	market := &mockMarket{
		quoteFunc: func(ctx context.Context, symbol string) (*models.Quote, error) {
			return quoteOf(symbol, 100, 1), nil
		},
	}

	analyzer := NewAnalyzer(market, testUniverse(t), &config.NewTestConfig().Engine)
	snapshot, err := analyzer.Analyze(context.Background(), []string{"ZZZZ"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if got := snapshot.SectorExposure["Others"]; got != 100 {
		t.Errorf("Others exposure = %v, want 100", got)
	}
	// A single sector means no diversification.
	if snapshot.DiversificationScore != 0 {
		t.Errorf("DiversificationScore = %v, want 0", snapshot.DiversificationScore)
	}
}
