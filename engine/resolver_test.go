package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
)

func TestResolve(t *testing.T) {
	resolver := NewResolver(testUniverse(t), "NSE_EQ", nil)

	tests := []struct {
		name   string
		symbol string
		want   string
	}{
		{"known symbol", "RELIANCE", "NSE_EQ|INE002A01018"},
		{"lowercase normalized", "reliance", "NSE_EQ|INE002A01018"},
		{"whitespace trimmed", "  TCS ", "NSE_EQ|INE467B01029"},
		{"unknown symbol synthesized", "ZZZZ", "NSE_EQ|ZZZZ"},
		{"unknown lowercase synthesized", "zzzz", "NSE_EQ|ZZZZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Resolve(tt.symbol); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.symbol, got, tt.want)
			}
		})
	}
}

func TestResolveTradable_EmptySymbol(t *testing.T) {
	resolver := NewResolver(testUniverse(t), "NSE_EQ", nil)
	_, err := resolver.ResolveTradable(context.Background(), "  ")
	if models.KindOf(err) != models.ErrInvalidRequest {
		t.Errorf("error kind = %v, want invalid_request", models.KindOf(err))
	}
}

func TestResolveTradable_NoSearcherUsesStatic(t *testing.T) {
	resolver := NewResolver(testUniverse(t), "NSE_EQ", nil)
	token, err := resolver.ResolveTradable(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("ResolveTradable() error = %v", err)
	}
	if token != "NSE_EQ|INE002A01018" {
		t.Errorf("token = %q, want NSE_EQ|INE002A01018", token)
	}
}

type staticSearcher struct {
	matches []models.InstrumentMatch
	err     error
}

func (s *staticSearcher) SearchInstruments(ctx context.Context, query string) ([]models.InstrumentMatch, error) {
	return s.matches, s.err
}

func TestResolveTradable_PrefersNSEEquity(t *testing.T) {
	searcher := &staticSearcher{matches: []models.InstrumentMatch{
		{Exchange: "BSE", Segment: "EQ", InstrumentKey: "BSE_EQ|X"},
		{Exchange: "NSE", Segment: "FO", InstrumentKey: "NSE_FO|X"},
		{Exchange: "NSE", Segment: "EQ", InstrumentKey: "NSE_EQ|X"},
	}}

	resolver := NewResolver(testUniverse(t), "NSE_EQ", searcher)
	token, err := resolver.ResolveTradable(context.Background(), "X")
	if err != nil {
		t.Fatalf("ResolveTradable() error = %v", err)
	}
	if token != "NSE_EQ|X" {
		t.Errorf("token = %q, want NSE_EQ|X", token)
	}
}

func TestResolveTradable_FallsBackToFirstMatch(t *testing.T) {
	searcher := &staticSearcher{matches: []models.InstrumentMatch{
		{Exchange: "BSE", Segment: "EQ", InstrumentKey: "BSE_EQ|X"},
		{Exchange: "MCX", Segment: "FO", InstrumentKey: "MCX_FO|X"},
	}}

	resolver := NewResolver(testUniverse(t), "NSE_EQ", searcher)
	token, err := resolver.ResolveTradable(context.Background(), "X")
	if err != nil {
		t.Fatalf("ResolveTradable() error = %v", err)
	}
	if token != "BSE_EQ|X" {
		t.Errorf("token = %q, want BSE_EQ|X", token)
	}
}

func TestResolveTradable_ZeroMatchesIsTerminal(t *testing.T) {
	resolver := NewResolver(testUniverse(t), "NSE_EQ", &staticSearcher{})
	_, err := resolver.ResolveTradable(context.Background(), "NOPE")
	if models.KindOf(err) != models.ErrSymbolNotFound {
		t.Errorf("error kind = %v, want symbol_not_found", models.KindOf(err))
	}
}

func TestResolveTradable_SearchFailureFallsBackToStatic(t *testing.T) {
	searcher := &staticSearcher{err: errors.New("search down")}

	resolver := NewResolver(testUniverse(t), "NSE_EQ", searcher)
	token, err := resolver.ResolveTradable(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("ResolveTradable() error = %v", err)
	}
	if token != "NSE_EQ|INE002A01018" {
		t.Errorf("token = %q, want static resolution", token)
	}
}

func TestResolveTradable_SearchFailureUnknownSymbolFails(t *testing.T) {
	searcher := &staticSearcher{err: errors.New("search down")}

	resolver := NewResolver(testUniverse(t), "NSE_EQ", searcher)
	_, err := resolver.ResolveTradable(context.Background(), "ZZZZ")
	if models.KindOf(err) != models.ErrTransportFailed {
		t.Errorf("error kind = %v, want transport_failed for unconfirmed symbol", models.KindOf(err))
	}
}
