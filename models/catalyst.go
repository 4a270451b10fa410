package models

import (
	"strings"
	"time"
)

// Sector names a scannable slice of the symbol universe.
type Sector string

const (
	SectorTech    Sector = "tech"
	SectorBanking Sector = "banking"
	SectorAuto    Sector = "auto"
	SectorFMCG    Sector = "fmcg"
	SectorEnergy  Sector = "energy"
	SectorAll     Sector = "all"
)

// ParseSector matches a sector name case-insensitively.
func ParseSector(s string) (Sector, error) {
	switch Sector(strings.ToLower(s)) {
	case SectorTech:
		return SectorTech, nil
	case SectorBanking:
		return SectorBanking, nil
	case SectorAuto:
		return SectorAuto, nil
	case SectorFMCG:
		return SectorFMCG, nil
	case SectorEnergy:
		return SectorEnergy, nil
	case SectorAll:
		return SectorAll, nil
	}
	return "", Errorf(ErrUnknownSector, "invalid sector: %s", s)
}

// VolatilityRank buckets a catalyst candidate by its expected move.
type VolatilityRank string

const (
	VolatilityMedium VolatilityRank = "medium"
	VolatilityHigh   VolatilityRank = "high"
)

// CatalystEvent is one qualifying symbol from a catalyst scan.
// ExpectedMove is (ATR/price)*100; Date is the simulated next earnings date.
type CatalystEvent struct {
	Symbol         string         `json:"symbol"`
	CurrentPrice   float64        `json:"current_price"`
	ChangePercent  float64        `json:"change_percent"`
	ExpectedMove   float64        `json:"expected_move"`
	Date           string         `json:"date"`
	CatalystType   string         `json:"catalyst_type"`
	VolatilityRank VolatilityRank `json:"volatility_rank"`
}

// CatalystScan is the ranked result of screening a sector universe.
// Events are sorted non-increasing by expected move and capped at ten.
type CatalystScan struct {
	Sector              Sector          `json:"sector"`
	ScanDate            time.Time       `json:"scan_date"`
	OpportunitiesFound  int             `json:"opportunities_found"`
	Events              []CatalystEvent `json:"catalyst_events"`
	TotalScanned        int             `json:"total_scanned"`
	HighVolatilityCount int             `json:"high_volatility_count"`
}
