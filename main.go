package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
	"github.com/Adityaa-Sharma/Trading-mcp-server/engine"
	"github.com/Adityaa-Sharma/Trading-mcp-server/internal/api"
	"github.com/Adityaa-Sharma/Trading-mcp-server/observability"
	"github.com/Adityaa-Sharma/Trading-mcp-server/services"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	production := os.Getenv("ENVIRONMENT") == "production"
	observability.InitLogger(production)

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	universe, err := engine.LoadUniverse()
	if err != nil {
		observability.Fatal("failed to load instrument master", "error", err)
	}

	// Providers are optional: tools backed by a missing provider answer 503
	// instead of preventing startup.
	var market services.MarketDataService
	if cfg.HasAlphaVantage() {
		market = services.NewAlphaVantageService(cfg.AlphaVantage)
		observability.Info("alphavantage service initialized")
	} else {
		observability.Warn("ALPHAVANTAGE_API_KEY not set, market data tools disabled")
	}

	var broker services.BrokerService
	var searcher engine.InstrumentSearcher
	if cfg.HasUpstox() {
		upstox := services.NewUpstoxService(cfg.Upstox)
		broker = upstox
		searcher = upstox
		observability.Info("upstox service initialized")
	} else {
		observability.Warn("UPSTOX_ACCESS_TOKEN not set, execution tools disabled")
	}

	resolver := engine.NewResolver(universe, cfg.Engine.DefaultExchangeSegment, searcher)

	handler := api.NewHandler(
		engine.NewScorer(market, &cfg.Engine),
		engine.NewRiskAssessor(market, &cfg.Engine),
		engine.NewAnalyzer(market, universe, &cfg.Engine),
		engine.NewScanner(market, universe, &cfg.Engine),
		engine.NewDispatcher(broker, resolver),
		market,
		broker,
		cfg,
	)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second,
	}

	go func() {
		observability.Info("starting trading tool server", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}
	observability.Info("server stopped")
}
