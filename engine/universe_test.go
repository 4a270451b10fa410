package engine

import (
	"testing"

	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
)

func TestLoadUniverse(t *testing.T) {
	universe, err := LoadUniverse()
	if err != nil {
		t.Fatalf("LoadUniverse() error = %v", err)
	}

	inst, ok := universe.Lookup("RELIANCE")
	if !ok {
		t.Fatal("RELIANCE missing from instrument master")
	}
	if inst.Token != "NSE_EQ|INE002A01018" {
		t.Errorf("token = %q, want NSE_EQ|INE002A01018", inst.Token)
	}
	if inst.Sector != "Energy" {
		t.Errorf("sector = %q, want Energy", inst.Sector)
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	universe := testUniverse(t)
	if _, ok := universe.Lookup("tcs"); !ok {
		t.Error("lookup should be case-insensitive")
	}
}

func TestSectorOf(t *testing.T) {
	universe := testUniverse(t)

	tests := []struct {
		symbol string
		want   string
	}{
		{"TCS", "IT"},
		{"TCS.BSE", "IT"},
		{"RELIANCE.NSE", "Energy"},
		{"hdfcbank", "Banking"},
		{"ZZZZ", "Others"},
		{"ZZZZ.BSE", "Others"},
	}

	for _, tt := range tests {
		if got := universe.SectorOf(tt.symbol); got != tt.want {
			t.Errorf("SectorOf(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestSectorSymbols(t *testing.T) {
	universe := testUniverse(t)

	for _, sector := range []models.Sector{
		models.SectorTech, models.SectorBanking, models.SectorAuto,
		models.SectorFMCG, models.SectorEnergy,
	} {
		if got := len(universe.SectorSymbols(sector)); got != 5 {
			t.Errorf("len(SectorSymbols(%s)) = %d, want 5", sector, got)
		}
	}

	all := universe.SectorSymbols(models.SectorAll)
	if len(all) != 25 {
		t.Fatalf("len(SectorSymbols(all)) = %d, want 25", len(all))
	}
	// All-sector order starts with the tech universe.
	if all[0] != "TCS" {
		t.Errorf("all[0] = %q, want TCS", all[0])
	}
}

func TestMarketSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RELIANCE", "RELIANCE.BSE"},
		{"reliance", "RELIANCE.BSE"},
		{" TCS ", "TCS.BSE"},
		{"TCS.BSE", "TCS.BSE"},
		{"TCS.NSE", "TCS.NSE"},
		{"tcs.bse", "TCS.BSE"},
	}

	for _, tt := range tests {
		if got := MarketSymbol(tt.in); got != tt.want {
			t.Errorf("MarketSymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
