package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
	"github.com/Adityaa-Sharma/Trading-mcp-server/observability"
)

// ProviderResponse is the raw outcome of a brokerage call that completed at
// the HTTP level. The dispatcher normalizes it; transport failures surface
// as errors instead.
type ProviderResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// OK reports whether the provider answered with a 2xx status.
func (r *ProviderResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// UpstoxService handles communication with the Upstox v2 brokerage API.
type UpstoxService struct {
	accessToken string
	httpClient  *http.Client
	baseURL     string
}

// NewUpstoxService creates a new UpstoxService instance
func NewUpstoxService(cfg config.UpstoxConfig) *UpstoxService {
	return &UpstoxService{
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     cfg.BaseURL,
	}
}

// orderPayload is the wire shape of an order placement request.
type orderPayload struct {
	Quantity          int64   `json:"quantity"`
	Product           string  `json:"product"`
	Validity          string  `json:"validity"`
	Tag               string  `json:"tag"`
	InstrumentToken   string  `json:"instrument_token"`
	OrderType         string  `json:"order_type"`
	TransactionType   string  `json:"transaction_type"`
	DisclosedQuantity int64   `json:"disclosed_quantity"`
	TriggerPrice      float64 `json:"trigger_price"`
	IsAMO             bool    `json:"is_amo"`
	Price             float64 `json:"price"`
}

// SubmitOrder sends a normalized order to the brokerage. The call is made
// exactly once: placement is not idempotent, so no retry and no breaker
// rejection may interfere once the request is on the wire.
func (s *UpstoxService) SubmitOrder(ctx context.Context, req models.OrderRequest) (*ProviderResponse, error) {
	payload := orderPayload{
		Quantity:        req.Quantity,
		Product:         req.Product,
		Validity:        req.Validity,
		Tag:             req.Tag,
		InstrumentToken: req.InstrumentToken,
		OrderType:       string(req.OrderType),
		TransactionType: string(req.TransactionType),
		TriggerPrice:    req.TriggerPrice,
		IsAMO:           req.IsAMO,
		Price:           req.Price,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, models.Errorf(models.ErrInternal, "failed to encode order: %v", err)
	}

	// Caller cancellation must not abort a placement the venue may have
	// already accepted. The client's own timeout still bounds the call.
	ctx = context.WithoutCancel(ctx)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/order/place", bytes.NewReader(body))
	if err != nil {
		return nil, models.Errorf(models.ErrInternal, "failed to build order request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	s.authorize(httpReq)

	start := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	observability.GetMetrics().RecordExternalAPIRequest("upstox", "place_order", time.Since(start))
	if err != nil {
		observability.GetMetrics().RecordExternalAPIError("upstox", "place_order")
		return nil, models.Errorf(models.ErrTransportFailed, "order placement failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.GetMetrics().RecordExternalAPIError("upstox", "place_order")
		return nil, models.Errorf(models.ErrTransportFailed, "failed to read order response: %v", err)
	}

	return &ProviderResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// CancelOrder cancels a previously placed order by id. Like placement, the
// call is made exactly once: a cancel whose response is lost may already have
// taken effect, and a blind retry would only collect already-cancelled
// rejections. Callers reconcile through the order book.
func (s *UpstoxService) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("order_id", orderID)
	requestURL := s.baseURL + "/order/cancel?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, requestURL, nil)
	if err != nil {
		return nil, models.Errorf(models.ErrInternal, "failed to build cancel request: %v", err)
	}
	s.authorize(req)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	observability.GetMetrics().RecordExternalAPIRequest("upstox", "cancel_order", time.Since(start))
	if err != nil {
		observability.GetMetrics().RecordExternalAPIError("upstox", "cancel_order")
		return nil, models.Errorf(models.ErrTransportFailed, "order cancel failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.GetMetrics().RecordExternalAPIError("upstox", "cancel_order")
		return nil, models.Errorf(models.ErrTransportFailed, "failed to read cancel response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		observability.GetMetrics().RecordExternalAPIError("upstox", "cancel_order")
		return nil, models.Errorf(models.ErrRejected, "cancel rejected: %s", ProviderMessage(body))
	}

	return json.RawMessage(body), nil
}

// GetOrderBook returns all orders for the day
func (s *UpstoxService) GetOrderBook(ctx context.Context) (json.RawMessage, error) {
	return s.getRetryable(ctx, "order_book", http.MethodGet, "/order/retrieve-all", nil)
}

// GetOrderDetails returns the details of a specific order
func (s *UpstoxService) GetOrderDetails(ctx context.Context, orderID string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("order_id", orderID)
	return s.getRetryable(ctx, "order_details", http.MethodGet, "/order/details", params)
}

// GetHoldings returns long-term holdings
func (s *UpstoxService) GetHoldings(ctx context.Context) (json.RawMessage, error) {
	return s.getRetryable(ctx, "holdings", http.MethodGet, "/portfolio/long-term-holdings", nil)
}

// GetPositions returns short-term positions
func (s *UpstoxService) GetPositions(ctx context.Context) (json.RawMessage, error) {
	return s.getRetryable(ctx, "positions", http.MethodGet, "/portfolio/short-term-positions", nil)
}

// GetFunds returns account funds and margins
func (s *UpstoxService) GetFunds(ctx context.Context) (json.RawMessage, error) {
	return s.getRetryable(ctx, "funds", http.MethodGet, "/user/get-funds-and-margin", nil)
}

// GetProfile returns the user profile
func (s *UpstoxService) GetProfile(ctx context.Context) (json.RawMessage, error) {
	return s.getRetryable(ctx, "profile", http.MethodGet, "/user/profile", nil)
}

// searchResponse is the wire shape of an instrument search result
type searchResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Exchange      string `json:"exchange"`
		Segment       string `json:"segment"`
		InstrumentKey string `json:"instrument_key"`
		TradingSymbol string `json:"trading_symbol"`
		Name          string `json:"name"`
	} `json:"data"`
}

// SearchInstruments queries the brokerage instrument master for a symbol
func (s *UpstoxService) SearchInstruments(ctx context.Context, query string) ([]models.InstrumentMatch, error) {
	params := url.Values{}
	params.Set("query", query)

	body, err := s.getRetryable(ctx, "search_instruments", http.MethodGet, "/search/instruments", params)
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, models.Errorf(models.ErrTransportFailed, "malformed instrument search response: %v", err)
	}

	matches := make([]models.InstrumentMatch, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		matches = append(matches, models.InstrumentMatch{
			Exchange:      d.Exchange,
			Segment:       d.Segment,
			InstrumentKey: d.InstrumentKey,
			TradingSymbol: d.TradingSymbol,
			Name:          d.Name,
		})
	}
	return matches, nil
}

// GetMarketQuotes returns full quotes for the given instrument keys
func (s *UpstoxService) GetMarketQuotes(ctx context.Context, instrumentKeys []string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("instrument_key", strings.Join(instrumentKeys, ","))
	return s.getRetryable(ctx, "market_quotes", http.MethodGet, "/market-quote/quotes", params)
}

func (s *UpstoxService) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
}

// getRetryable performs a read-only brokerage call with retry and breaker
// protection. Only naturally idempotent operations go through here.
func (s *UpstoxService) getRetryable(ctx context.Context, operation, method, path string, params url.Values) (json.RawMessage, error) {
	requestURL := s.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	var body []byte
	err := WithRetry(ctx, DefaultRetryConfig, func() error {
		_, err := WithCircuitBreaker(ctx, BreakerUpstox, func() (struct{}, error) {
			req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
			if err != nil {
				return struct{}{}, err
			}
			s.authorize(req)

			start := time.Now()
			resp, err := s.httpClient.Do(req)
			observability.GetMetrics().RecordExternalAPIRequest("upstox", operation, time.Since(start))
			if err != nil {
				observability.GetMetrics().RecordExternalAPIError("upstox", operation)
				return struct{}{}, err
			}
			defer resp.Body.Close()

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return struct{}{}, err
			}
			if resp.StatusCode != http.StatusOK {
				observability.GetMetrics().RecordExternalAPIError("upstox", operation)
				return struct{}{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, ProviderMessage(body))
			}
			return struct{}{}, nil
		})
		return err
	})
	if err != nil {
		return nil, models.Errorf(models.ErrTransportFailed, "upstox %s failed: %v", operation, err)
	}

	return json.RawMessage(body), nil
}

// ProviderMessage extracts a human-readable message from an Upstox error body.
func ProviderMessage(body []byte) string {
	var parsed struct {
		Status string `json:"status"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 && parsed.Errors[0].Message != "" {
		return parsed.Errors[0].Message
	}
	return strings.TrimSpace(string(body))
}
