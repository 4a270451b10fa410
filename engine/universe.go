package engine

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
)

//go:embed instruments.yaml
var instrumentsYAML []byte

// Instrument is one entry of the static instrument master.
type Instrument struct {
	Token  string `yaml:"token"`
	Sector string `yaml:"sector"`
}

// Universe is the process-wide static symbol data: the instrument master and
// the per-sector scan universes. It is built once at startup and read-only
// afterwards.
type Universe struct {
	instruments map[string]Instrument
	sectors     map[models.Sector][]string
}

type universeFile struct {
	Instruments map[string]Instrument      `yaml:"instruments"`
	Sectors     map[models.Sector][]string `yaml:"sectors"`
}

// LoadUniverse parses the embedded instrument master.
func LoadUniverse() (*Universe, error) {
	var file universeFile
	if err := yaml.Unmarshal(instrumentsYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse instrument master: %w", err)
	}
	if len(file.Instruments) == 0 {
		return nil, fmt.Errorf("instrument master is empty")
	}

	for sector, symbols := range file.Sectors {
		if len(symbols) == 0 {
			return nil, fmt.Errorf("sector %s has no symbols", sector)
		}
	}

	return &Universe{
		instruments: file.Instruments,
		sectors:     file.Sectors,
	}, nil
}

// Lookup returns the instrument for an uppercase symbol
func (u *Universe) Lookup(symbol string) (Instrument, bool) {
	inst, ok := u.instruments[strings.ToUpper(symbol)]
	return inst, ok
}

// SectorOf classifies a symbol, defaulting to "Others" for symbols outside
// the master. Provider suffixes (.BSE/.NSE) are stripped first.
func (u *Universe) SectorOf(symbol string) string {
	base := strings.ToUpper(symbol)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if inst, ok := u.instruments[base]; ok && inst.Sector != "" {
		return inst.Sector
	}
	return "Others"
}

// SectorSymbols returns the scan universe for a sector. SectorAll is the
// concatenation of every sector's universe in a stable order.
func (u *Universe) SectorSymbols(sector models.Sector) []string {
	if sector != models.SectorAll {
		return append([]string(nil), u.sectors[sector]...)
	}

	ordered := []models.Sector{
		models.SectorTech,
		models.SectorBanking,
		models.SectorAuto,
		models.SectorFMCG,
		models.SectorEnergy,
	}
	var all []string
	for _, s := range ordered {
		all = append(all, u.sectors[s]...)
	}
	return all
}
