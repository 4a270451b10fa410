package engine

import (
	"github.com/Adityaa-Sharma/Trading-mcp-server/services"
)

// Type aliases for service interfaces - defined in the services package.
// These aliases allow the engine to reference interfaces without importing
// concrete implementations.
type MarketDataService = services.MarketDataService
type BrokerService = services.BrokerService
