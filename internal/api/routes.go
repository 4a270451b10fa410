package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second))
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware)

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)

		r.Route("/tools", func(r chi.Router) {
			// Decision tools
			r.Post("/get_realtime_signal", h.HandleSignal())
			r.Post("/assess_position_risk", h.HandleRisk())
			r.Post("/analyze_portfolio", h.HandleAnalyzePortfolio())
			r.Post("/scan_earnings_catalyst", h.HandleCatalystScan())

			// Execution tools
			r.Post("/buy_stock", h.HandleBuyStock())
			r.Post("/sell_stock", h.HandleSellStock())
			r.Post("/place_amo_order", h.HandleAMOOrder())
			r.Post("/cancel_order", h.HandleCancelOrder())
			r.Post("/get_order_status", h.HandleOrderStatus())
			r.Post("/get_portfolio", h.HandleGetPortfolio())
			r.Post("/get_funds", h.HandleGetFunds())

			// Market data pass-throughs
			r.Post("/stock_quote", h.HandleStockQuote())
			r.Post("/daily_data", h.HandleDailyData())
			r.Post("/intraday", h.HandleIntraday())
			r.Post("/sma", h.HandleSMA())
			r.Post("/rsi", h.HandleRSI())
			r.Post("/atr", h.HandleATR())
			r.Post("/news_sentiment", h.HandleNewsSentiment())
			r.Post("/top_gainers_losers", h.HandleTopGainersLosers())
			r.Post("/earnings_calendar", h.HandleEarningsCalendar())
			r.Post("/get_market_data", h.HandleGetMarketData())
		})
	})

	return r
}

// CORSMiddleware returns CORS middleware with the specified allowed origins
func CORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
