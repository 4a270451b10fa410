package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
	"github.com/Adityaa-Sharma/Trading-mcp-server/engine"
	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
	"github.com/Adityaa-Sharma/Trading-mcp-server/observability"
	"github.com/Adityaa-Sharma/Trading-mcp-server/services"
)

// Handler handles HTTP tool invocations.
//
// Provider-backed fields are nil when the corresponding credentials are not
// configured; their tools answer 503 instead of failing at startup.
type Handler struct {
	scorer     *engine.Scorer
	risk       *engine.RiskAssessor
	analyzer   *engine.Analyzer
	scanner    *engine.Scanner
	dispatcher *engine.Dispatcher
	market     services.MarketDataService
	broker     services.BrokerService
	cfg        *config.Config
	validate   *validator.Validate
}

// NewHandler creates a new Handler. Market and broker may be nil when the
// provider credentials are absent.
func NewHandler(
	scorer *engine.Scorer,
	risk *engine.RiskAssessor,
	analyzer *engine.Analyzer,
	scanner *engine.Scanner,
	dispatcher *engine.Dispatcher,
	market services.MarketDataService,
	broker services.BrokerService,
	cfg *config.Config,
) *Handler {
	return &Handler{
		scorer:     scorer,
		risk:       risk,
		analyzer:   analyzer,
		scanner:    scanner,
		dispatcher: dispatcher,
		market:     market,
		broker:     broker,
		cfg:        cfg,
		validate:   validator.New(),
	}
}

// HandleHealth reports provider configuration and circuit breaker state.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "ok",
		"providers": map[string]bool{
			"alphavantage": h.market != nil,
			"upstox":       h.broker != nil,
		},
	}

	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// toolFunc computes one tool result from a decoded request.
type toolFunc func(r *http.Request) (any, error)

// tool wraps a tool implementation with metrics and error mapping.
func (h *Handler) tool(name string, fn toolFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics := observability.GetMetrics()
		metrics.RecordToolRequest(name)
		timer := metrics.NewTimer()

		result, err := fn(r)
		if err != nil {
			kind := models.KindOf(err)
			metrics.RecordToolDuration(name, "error", timer.Elapsed())
			metrics.RecordToolError(name, string(kind))
			observability.WithTool(name).Warn("tool failed",
				"kind", kind,
				"error", err)
			h.jsonError(w, err)
			return
		}

		metrics.RecordToolDuration(name, "success", timer.Elapsed())
		h.jsonResponse(w, result)
	}
}

// requireMarket fails fast when AlphaVantage is not configured.
func (h *Handler) requireMarket() error {
	if h.market == nil {
		return models.NewError(models.ErrInternal, "market data provider is not configured")
	}
	return nil
}

// requireBroker fails fast when Upstox is not configured.
func (h *Handler) requireBroker() error {
	if h.broker == nil {
		return models.NewError(models.ErrInternal, "brokerage provider is not configured")
	}
	return nil
}

// decode unmarshals and validates a tool request body.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.Errorf(models.ErrInvalidRequest, "invalid JSON body: %v", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return models.Errorf(models.ErrInvalidRequest, "invalid request: %v", err)
	}
	return nil
}

// Decision tools

type signalRequest struct {
	Symbol   string `json:"symbol" validate:"required"`
	Strategy string `json:"strategy" validate:"omitempty,oneof=swing intraday long_term"`
}

// HandleSignal computes a buy/sell signal for one symbol.
func (h *Handler) HandleSignal() http.HandlerFunc {
	return h.tool("get_realtime_signal", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req signalRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		strategy := models.Strategy(req.Strategy)
		if req.Strategy == "" {
			strategy = models.StrategySwing
		}
		return h.scorer.GetSignal(r.Context(), req.Symbol, strategy)
	})
}

type riskRequest struct {
	Symbol   string `json:"symbol" validate:"required"`
	Quantity int64  `json:"quantity"`
}

// HandleRisk assesses the risk of holding a position.
func (h *Handler) HandleRisk() http.HandlerFunc {
	return h.tool("assess_position_risk", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req riskRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.risk.Assess(r.Context(), req.Symbol, req.Quantity)
	})
}

type portfolioRequest struct {
	Watchlist []string `json:"watchlist"`
}

// HandleAnalyzePortfolio builds a snapshot for a watchlist.
func (h *Handler) HandleAnalyzePortfolio() http.HandlerFunc {
	return h.tool("analyze_portfolio", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req portfolioRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.analyzer.Analyze(r.Context(), req.Watchlist)
	})
}

type catalystRequest struct {
	Sector string `json:"sector"`
}

// HandleCatalystScan screens a sector universe for volatility catalysts.
func (h *Handler) HandleCatalystScan() http.HandlerFunc {
	return h.tool("scan_earnings_catalyst", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req catalystRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		if req.Sector == "" {
			req.Sector = string(models.SectorAll)
		}
		return h.scanner.Scan(r.Context(), req.Sector)
	})
}

// Execution tools

type orderRequest struct {
	Symbol    string  `json:"symbol" validate:"required"`
	Quantity  int64   `json:"quantity"`
	OrderType string  `json:"order_type"`
	Price     float64 `json:"price" validate:"gte=0"`
	Trigger   float64 `json:"trigger_price" validate:"gte=0"`
	Product   string  `json:"product" validate:"omitempty,oneof=D I M"`
	Validity  string  `json:"validity" validate:"omitempty,oneof=DAY IOC"`
}

func (h *Handler) dispatch(r *http.Request, req orderRequest, txn models.TransactionType, amo bool) (any, error) {
	kind, err := models.ParseOrderKind(req.OrderType)
	if err != nil {
		return nil, err
	}
	return h.dispatcher.Dispatch(r.Context(), engine.OrderIntent{
		Symbol:          req.Symbol,
		Quantity:        req.Quantity,
		TransactionType: txn,
		OrderType:       kind,
		Price:           req.Price,
		TriggerPrice:    req.Trigger,
		Product:         req.Product,
		Validity:        req.Validity,
		AMO:             amo,
	})
}

// HandleBuyStock places a buy order.
func (h *Handler) HandleBuyStock() http.HandlerFunc {
	return h.tool("buy_stock", func(r *http.Request) (any, error) {
		if err := h.requireBroker(); err != nil {
			return nil, err
		}
		var req orderRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.dispatch(r, req, models.TransactionBuy, false)
	})
}

// HandleSellStock places a sell order.
func (h *Handler) HandleSellStock() http.HandlerFunc {
	return h.tool("sell_stock", func(r *http.Request) (any, error) {
		if err := h.requireBroker(); err != nil {
			return nil, err
		}
		var req orderRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.dispatch(r, req, models.TransactionSell, false)
	})
}

type amoRequest struct {
	orderRequest
	TransactionType string `json:"transaction_type" validate:"required"`
}

// HandleAMOOrder places an after-market order.
func (h *Handler) HandleAMOOrder() http.HandlerFunc {
	return h.tool("place_amo_order", func(r *http.Request) (any, error) {
		if err := h.requireBroker(); err != nil {
			return nil, err
		}
		var req amoRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		txn, err := models.ParseTransactionType(req.TransactionType)
		if err != nil {
			return nil, err
		}
		return h.dispatch(r, req.orderRequest, txn, true)
	})
}

type orderIDRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// HandleCancelOrder cancels an open order.
func (h *Handler) HandleCancelOrder() http.HandlerFunc {
	return h.tool("cancel_order", func(r *http.Request) (any, error) {
		if err := h.requireBroker(); err != nil {
			return nil, err
		}
		var req orderIDRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.broker.CancelOrder(r.Context(), req.OrderID)
	})
}

type orderStatusRequest struct {
	OrderID string `json:"order_id"`
}

// HandleOrderStatus returns a single order's details, or the full order book
// when no order id is supplied.
func (h *Handler) HandleOrderStatus() http.HandlerFunc {
	return h.tool("get_order_status", func(r *http.Request) (any, error) {
		if err := h.requireBroker(); err != nil {
			return nil, err
		}
		var req orderStatusRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		if req.OrderID == "" {
			return h.broker.GetOrderBook(r.Context())
		}
		return h.broker.GetOrderDetails(r.Context(), req.OrderID)
	})
}

// HandleGetPortfolio returns the account summary: holdings, positions, funds
// and profile. Sections that fail are reported as null rather than failing
// the whole summary.
func (h *Handler) HandleGetPortfolio() http.HandlerFunc {
	return h.tool("get_portfolio", func(r *http.Request) (any, error) {
		if err := h.requireBroker(); err != nil {
			return nil, err
		}
		ctx := r.Context()
		summary := map[string]any{
			"timestamp": time.Now(),
		}

		sections := []struct {
			name  string
			fetch func() (json.RawMessage, error)
		}{
			{"holdings", func() (json.RawMessage, error) { return h.broker.GetHoldings(ctx) }},
			{"positions", func() (json.RawMessage, error) { return h.broker.GetPositions(ctx) }},
			{"funds", func() (json.RawMessage, error) { return h.broker.GetFunds(ctx) }},
			{"profile", func() (json.RawMessage, error) { return h.broker.GetProfile(ctx) }},
		}
		for _, section := range sections {
			data, err := section.fetch()
			if err != nil {
				observability.Warn("portfolio section unavailable",
					"section", section.name,
					"error", err)
				summary[section.name] = nil
				continue
			}
			summary[section.name] = data
		}
		return summary, nil
	})
}

// HandleGetFunds returns account funds and margins.
func (h *Handler) HandleGetFunds() http.HandlerFunc {
	return h.tool("get_funds", func(r *http.Request) (any, error) {
		if err := h.requireBroker(); err != nil {
			return nil, err
		}
		return h.broker.GetFunds(r.Context())
	})
}

// Market-data pass-throughs

type symbolRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}

// HandleStockQuote returns the current quote for a symbol.
func (h *Handler) HandleStockQuote() http.HandlerFunc {
	return h.tool("stock_quote", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req symbolRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.market.GetQuote(r.Context(), engine.MarketSymbol(req.Symbol))
	})
}

type dailyRequest struct {
	Symbol     string `json:"symbol" validate:"required"`
	OutputSize string `json:"outputsize" validate:"omitempty,oneof=compact full"`
}

// HandleDailyData returns the raw daily time series.
func (h *Handler) HandleDailyData() http.HandlerFunc {
	return h.tool("daily_data", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req dailyRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		return h.market.GetDaily(r.Context(), engine.MarketSymbol(req.Symbol), req.OutputSize)
	})
}

type intradayRequest struct {
	Symbol     string `json:"symbol" validate:"required"`
	Interval   string `json:"interval" validate:"omitempty,oneof=1min 5min 15min 30min 60min"`
	OutputSize string `json:"outputsize" validate:"omitempty,oneof=compact full"`
}

// HandleIntraday returns the raw intraday time series.
func (h *Handler) HandleIntraday() http.HandlerFunc {
	return h.tool("intraday", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req intradayRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		if req.Interval == "" {
			req.Interval = "5min"
		}
		return h.market.GetIntraday(r.Context(), engine.MarketSymbol(req.Symbol), req.Interval, req.OutputSize)
	})
}

type indicatorRequest struct {
	Symbol     string `json:"symbol" validate:"required"`
	Interval   string `json:"interval" validate:"omitempty,oneof=1min 5min 15min 30min 60min daily weekly monthly"`
	TimePeriod int    `json:"time_period" validate:"omitempty,gt=0"`
}

func (h *Handler) indicatorTool(name string, indicator models.Indicator, defaultPeriod int) http.HandlerFunc {
	return h.tool(name, func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req indicatorRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		if req.Interval == "" {
			req.Interval = "daily"
		}
		if req.TimePeriod == 0 {
			req.TimePeriod = defaultPeriod
		}
		return h.market.GetIndicatorSeries(r.Context(), engine.MarketSymbol(req.Symbol), indicator, models.SeriesParams{
			Interval:   req.Interval,
			TimePeriod: req.TimePeriod,
			SeriesType: "close",
		})
	})
}

// HandleSMA returns the simple moving average series.
func (h *Handler) HandleSMA() http.HandlerFunc {
	return h.indicatorTool("sma", models.IndicatorSMA, h.cfg.Engine.SMAPeriod)
}

// HandleRSI returns the relative strength index series.
func (h *Handler) HandleRSI() http.HandlerFunc {
	return h.indicatorTool("rsi", models.IndicatorRSI, h.cfg.Engine.RSIPeriod)
}

// HandleATR returns the average true range series.
func (h *Handler) HandleATR() http.HandlerFunc {
	return h.indicatorTool("atr", models.IndicatorATR, h.cfg.Engine.ATRPeriod)
}

type newsRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=1"`
	Limit   int      `json:"limit" validate:"omitempty,gt=0"`
}

// HandleNewsSentiment returns news sentiment for the given tickers.
func (h *Handler) HandleNewsSentiment() http.HandlerFunc {
	return h.tool("news_sentiment", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req newsRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		if req.Limit == 0 {
			req.Limit = 50
		}
		return h.market.GetNewsSentiment(r.Context(), req.Tickers, req.Limit)
	})
}

// HandleTopGainersLosers returns the market's top movers.
func (h *Handler) HandleTopGainersLosers() http.HandlerFunc {
	return h.tool("top_gainers_losers", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		return h.market.GetTopGainersLosers(r.Context())
	})
}

type earningsCalendarRequest struct {
	Symbol  string `json:"symbol"`
	Horizon string `json:"horizon" validate:"omitempty,oneof=3month 6month 12month"`
}

// HandleEarningsCalendar returns the earnings calendar as CSV text.
func (h *Handler) HandleEarningsCalendar() http.HandlerFunc {
	return h.tool("earnings_calendar", func(r *http.Request) (any, error) {
		if err := h.requireMarket(); err != nil {
			return nil, err
		}
		var req earningsCalendarRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}
		if req.Horizon == "" {
			req.Horizon = "3month"
		}
		csv, err := h.market.GetEarningsCalendar(r.Context(), req.Symbol, req.Horizon)
		if err != nil {
			return nil, err
		}
		return map[string]string{"calendar": csv}, nil
	})
}

type marketDataRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1"`
}

// HandleGetMarketData returns batch brokerage quotes keyed by symbol.
func (h *Handler) HandleGetMarketData() http.HandlerFunc {
	return h.tool("get_market_data", func(r *http.Request) (any, error) {
		if err := h.requireBroker(); err != nil {
			return nil, err
		}
		var req marketDataRequest
		if err := h.decode(r, &req); err != nil {
			return nil, err
		}

		keys := make([]string, 0, len(req.Symbols))
		for _, symbol := range req.Symbols {
			matches, err := h.broker.SearchInstruments(r.Context(), symbol)
			if err != nil || len(matches) == 0 {
				observability.Warn("skipping unresolved symbol in market data batch",
					"symbol", symbol,
					"error", err)
				continue
			}
			keys = append(keys, matches[0].InstrumentKey)
		}
		if len(keys) == 0 {
			return nil, models.NewError(models.ErrSymbolNotFound, "no symbols could be resolved")
		}
		return h.broker.GetMarketQuotes(r.Context(), keys)
	})
}

// Response helpers

// statusForKind maps a tool error kind to an HTTP status.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrInvalidRequest, models.ErrUnknownSector:
		return http.StatusBadRequest
	case models.ErrSymbolNotFound:
		return http.StatusNotFound
	case models.ErrInsufficientData, models.ErrRejected:
		return http.StatusUnprocessableEntity
	case models.ErrTransportFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	status := statusForKind(kind)

	// The kind has its own field; the message carries only the detail text.
	message := err.Error()
	var e *models.Error
	if errors.As(err, &e) {
		message = e.Message
	}

	// Unconfigured providers answer 503 so clients can distinguish a
	// deployment gap from a genuine failure.
	if kind == models.ErrInternal && strings.Contains(message, "not configured") {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"kind":    string(kind),
			"message": message,
		},
	})
}
