package engine

import "strings"

// MarketSymbol formats a symbol for the market-data provider, which serves
// Indian equities under a .BSE (or .NSE) suffix.
func MarketSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(s, ".BSE") || strings.HasSuffix(s, ".NSE") {
		return s
	}
	return s + ".BSE"
}
