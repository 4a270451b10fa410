package engine

import (
	"context"
	"strings"

	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
	"github.com/Adityaa-Sharma/Trading-mcp-server/observability"
)

// InstrumentSearcher is the optional remote lookup behind the resolver.
type InstrumentSearcher interface {
	SearchInstruments(ctx context.Context, query string) ([]models.InstrumentMatch, error)
}

// Resolver maps a human-readable symbol to a venue instrument token.
//
// The static path is total: a table hit returns the known token, a miss
// synthesizes "<SEGMENT>|<SYMBOL>". The remote path consults the brokerage
// instrument search and is terminal on a zero-result response.
type Resolver struct {
	universe       *Universe
	defaultSegment string
	searcher       InstrumentSearcher
}

// NewResolver creates a Resolver. searcher may be nil, in which case the
// remote path degrades to the static one.
func NewResolver(universe *Universe, defaultSegment string, searcher InstrumentSearcher) *Resolver {
	return &Resolver{
		universe:       universe,
		defaultSegment: defaultSegment,
		searcher:       searcher,
	}
}

// Resolve maps a symbol to an instrument token. It never fails: unknown
// symbols get a best-effort synthesized token.
func (r *Resolver) Resolve(symbol string) string {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if inst, ok := r.universe.Lookup(normalized); ok {
		return inst.Token
	}
	return r.defaultSegment + "|" + normalized
}

// ResolveTradable resolves a symbol for order placement. When a remote
// searcher is available it is authoritative: results are filtered to NSE
// equities, falling back to the first match, and an empty result set is a
// terminal SymbolNotFound for this symbol. Without a searcher the static
// path applies.
func (r *Resolver) ResolveTradable(ctx context.Context, symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return "", models.NewError(models.ErrInvalidRequest, "missing symbol")
	}

	if r.searcher == nil {
		return r.Resolve(normalized), nil
	}

	matches, err := r.searcher.SearchInstruments(ctx, normalized)
	if err != nil {
		// Search being down must not block trading a table-known symbol.
		// Unknown symbols fail instead: a synthesized token has not been
		// confirmed by the venue and would only bounce at placement.
		if inst, ok := r.universe.Lookup(normalized); ok {
			observability.WithSymbol(normalized).Warn("instrument search failed, using static resolution", "error", err)
			return inst.Token, nil
		}
		return "", models.Errorf(models.ErrTransportFailed, "instrument search failed for %s: %v", normalized, err)
	}

	if len(matches) == 0 {
		return "", models.Errorf(models.ErrSymbolNotFound, "symbol %s not found", normalized)
	}

	for _, m := range matches {
		if m.Exchange == "NSE" && m.Segment == "EQ" {
			return m.InstrumentKey, nil
		}
	}
	return matches[0].InstrumentKey, nil
}
