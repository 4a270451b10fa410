package engine

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
)

// quietMarket serves the same quote and ATR for every symbol.
func quietMarket(price, changePercent, atr float64) *mockMarket {
	return &mockMarket{
		quoteFunc: func(ctx context.Context, symbol string) (*models.Quote, error) {
			return quoteOf(symbol, price, changePercent), nil
		},
		seriesFunc: func(ctx context.Context, symbol string, indicator models.Indicator, p models.SeriesParams) (models.Series, error) {
			return seriesOf(atr), nil
		},
	}
}

func TestScan_UnknownSector(t *testing.T) {
	scanner := NewScanner(quietMarket(100, 0, 1), testUniverse(t), &config.NewTestConfig().Engine)
	_, err := scanner.Scan(context.Background(), "crypto")
	if models.KindOf(err) != models.ErrUnknownSector {
		t.Errorf("error kind = %v, want unknown_sector", models.KindOf(err))
	}
}

func TestScan_SectorCaseInsensitive(t *testing.T) {
	scanner := NewScanner(quietMarket(100, 0, 1), testUniverse(t), &config.NewTestConfig().Engine)
	scan, err := scanner.Scan(context.Background(), "TECH")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if scan.Sector != models.SectorTech {
		t.Errorf("Sector = %v, want tech", scan.Sector)
	}
	if scan.TotalScanned != 5 {
		t.Errorf("TotalScanned = %d, want 5", scan.TotalScanned)
	}
}

func TestScan_NoCatalysts(t *testing.T) {
	// 1% change and 1% expected move are both under the thresholds.
	scanner := NewScanner(quietMarket(100, 1, 1), testUniverse(t), &config.NewTestConfig().Engine)
	scan, err := scanner.Scan(context.Background(), "banking")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if scan.OpportunitiesFound != 0 {
		t.Errorf("OpportunitiesFound = %d, want 0", scan.OpportunitiesFound)
	}
	if scan.TotalScanned != 5 {
		t.Errorf("TotalScanned = %d, want 5", scan.TotalScanned)
	}
}

func TestScan_QualifiesByChange(t *testing.T) {
	// -3.5% daily change qualifies even with a tiny expected move.
	scanner := NewScanner(quietMarket(100, -3.5, 0.5), testUniverse(t), &config.NewTestConfig().Engine)
	scan, err := scanner.Scan(context.Background(), "tech")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if scan.OpportunitiesFound != 5 {
		t.Errorf("OpportunitiesFound = %d, want 5", scan.OpportunitiesFound)
	}
	for _, event := range scan.Events {
		if event.VolatilityRank != models.VolatilityMedium {
			t.Errorf("VolatilityRank = %v, want medium", event.VolatilityRank)
		}
		if event.CatalystType != "earnings" {
			t.Errorf("CatalystType = %q, want earnings", event.CatalystType)
		}
	}
}

func TestScan_QualifiesByExpectedMove(t *testing.T) {
	// Flat day but ATR at 4% of price: expected move qualifies and ranks high.
	scanner := NewScanner(quietMarket(100, 0, 4), testUniverse(t), &config.NewTestConfig().Engine)
	scan, err := scanner.Scan(context.Background(), "fmcg")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if scan.OpportunitiesFound != 5 {
		t.Errorf("OpportunitiesFound = %d, want 5", scan.OpportunitiesFound)
	}
	if scan.HighVolatilityCount != 5 {
		t.Errorf("HighVolatilityCount = %d, want 5", scan.HighVolatilityCount)
	}
	for _, event := range scan.Events {
		if event.VolatilityRank != models.VolatilityHigh {
			t.Errorf("VolatilityRank = %v, want high", event.VolatilityRank)
		}
	}
}

func TestScan_AllSectorsSortedAndCapped(t *testing.T) {
	// Vary ATR per symbol so the full 25-symbol universe produces a strict
	// ordering; the result must be the top 10 by expected move, descending.
	atrs := map[string]float64{}
	universe := testUniverse(t)
	for i, symbol := range universe.SectorSymbols(models.SectorAll) {
		atrs[MarketSymbol(symbol)] = 2.5 + float64(i)*0.1
	}

	market := &mockMarket{
		quoteFunc: func(ctx context.Context, symbol string) (*models.Quote, error) {
			return quoteOf(symbol, 100, 0), nil
		},
		seriesFunc: func(ctx context.Context, symbol string, indicator models.Indicator, p models.SeriesParams) (models.Series, error) {
			return seriesOf(atrs[symbol]), nil
		},
	}

	scanner := NewScanner(market, universe, &config.NewTestConfig().Engine)
	scan, err := scanner.Scan(context.Background(), "all")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if scan.TotalScanned != 25 {
		t.Errorf("TotalScanned = %d, want 25", scan.TotalScanned)
	}
	if len(scan.Events) != 10 {
		t.Fatalf("len(Events) = %d, want 10", len(scan.Events))
	}
	if !sort.SliceIsSorted(scan.Events, func(i, j int) bool {
		return scan.Events[i].ExpectedMove > scan.Events[j].ExpectedMove
	}) {
		t.Error("events not sorted by descending expected move")
	}
	// The largest ATR belongs to the last symbol in the all-sector order.
	if want := 2.5 + 24*0.1; !almostEqual(scan.Events[0].ExpectedMove, want) {
		t.Errorf("top ExpectedMove = %v, want %v", scan.Events[0].ExpectedMove, want)
	}
}

func TestScan_EventDateThirtyDaysOut(t *testing.T) {
	scanner := NewScanner(quietMarket(100, 5, 1), testUniverse(t), &config.NewTestConfig().Engine)
	scan, err := scanner.Scan(context.Background(), "energy")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(scan.Events) == 0 {
		t.Fatal("expected qualifying events")
	}

	want := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	if scan.Events[0].Date != want {
		t.Errorf("Date = %q, want %q", scan.Events[0].Date, want)
	}
}

func TestScan_FailedSymbolsDropped(t *testing.T) {
	market := &mockMarket{
		quoteFunc: func(ctx context.Context, symbol string) (*models.Quote, error) {
			if strings.HasPrefix(symbol, "TCS") {
				return nil, models.NewError(models.ErrTransportFailed, "provider down")
			}
			return quoteOf(symbol, 100, 5), nil
		},
		seriesFunc: func(ctx context.Context, symbol string, indicator models.Indicator, p models.SeriesParams) (models.Series, error) {
			return seriesOf(1), nil
		},
	}

	scanner := NewScanner(market, testUniverse(t), &config.NewTestConfig().Engine)
	scan, err := scanner.Scan(context.Background(), "tech")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if scan.TotalScanned != 5 {
		t.Errorf("TotalScanned = %d, want 5", scan.TotalScanned)
	}
	if scan.OpportunitiesFound != 4 {
		t.Errorf("OpportunitiesFound = %d, want 4", scan.OpportunitiesFound)
	}
	for _, event := range scan.Events {
		if event.Symbol == "TCS" {
			t.Error("failed symbol should not appear in events")
		}
	}
}
