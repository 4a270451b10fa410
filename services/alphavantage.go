package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/Adityaa-Sharma/Trading-mcp-server/config"
	"github.com/Adityaa-Sharma/Trading-mcp-server/models"
	"github.com/Adityaa-Sharma/Trading-mcp-server/observability"
)

// AlphaVantageService handles communication with the Alpha Vantage API.
// All operations are read-only and therefore retried; a rate limiter keeps
// the client inside the provider's per-minute quota.
type AlphaVantageService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewAlphaVantageService creates a new AlphaVantageService instance
func NewAlphaVantageService(cfg config.AlphaVantageConfig) *AlphaVantageService {
	return &AlphaVantageService{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute),
	}
}

// QuoteResponse represents a GLOBAL_QUOTE payload from Alpha Vantage
type QuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		LatestDay     string `json:"07. latest trading day"`
		PrevClose     string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// GetQuote returns the latest quote for a symbol
func (s *AlphaVantageService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)

	var quoteResp QuoteResponse
	if err := s.getJSON(ctx, "quote", params, &quoteResp); err != nil {
		return nil, err
	}

	if quoteResp.GlobalQuote.Price == "" {
		return nil, models.Errorf(models.ErrInsufficientData, "no quote data for %s", symbol)
	}

	price, err := decimal.NewFromString(quoteResp.GlobalQuote.Price)
	if err != nil {
		return nil, models.Errorf(models.ErrTransportFailed, "malformed quote price for %s: %v", symbol, err)
	}
	change, _ := decimal.NewFromString(quoteResp.GlobalQuote.Change)

	var changePercent float64
	if raw := strings.TrimSuffix(quoteResp.GlobalQuote.ChangePercent, "%"); raw != "" {
		changePercent, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			observability.Warn("failed to parse change percent",
				"symbol", symbol, "value", quoteResp.GlobalQuote.ChangePercent, "error", err)
		}
	}

	var volume int64
	if quoteResp.GlobalQuote.Volume != "" {
		volume, err = strconv.ParseInt(quoteResp.GlobalQuote.Volume, 10, 64)
		if err != nil {
			observability.Warn("failed to parse volume",
				"symbol", symbol, "value", quoteResp.GlobalQuote.Volume, "error", err)
		}
	}

	return &models.Quote{
		Symbol:        symbol,
		Last:          price,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        volume,
		Timestamp:     time.Now(),
	}, nil
}

// seriesKey maps an indicator to the JSON object holding its time series.
func seriesKey(indicator models.Indicator, interval string) string {
	switch indicator {
	case models.IndicatorPrice:
		if interval == "daily" {
			return "Time Series (Daily)"
		}
		return fmt.Sprintf("Time Series (%s)", interval)
	default:
		return fmt.Sprintf("Technical Analysis: %s", indicator)
	}
}

// GetIndicatorSeries returns an indicator series ordered newest-first.
// PRICE series carry the OHLC close; RSI/SMA/ATR carry the indicator value.
func (s *AlphaVantageService) GetIndicatorSeries(ctx context.Context, symbol string, indicator models.Indicator, p models.SeriesParams) (models.Series, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	switch indicator {
	case models.IndicatorPrice:
		if p.Interval == "daily" {
			params.Set("function", "TIME_SERIES_DAILY")
			params.Set("outputsize", "compact")
		} else {
			params.Set("function", "TIME_SERIES_INTRADAY")
			params.Set("interval", p.Interval)
			params.Set("outputsize", "compact")
		}
	case models.IndicatorRSI, models.IndicatorSMA, models.IndicatorATR:
		params.Set("function", string(indicator))
		params.Set("interval", p.Interval)
		params.Set("time_period", strconv.Itoa(p.TimePeriod))
		if indicator != models.IndicatorATR {
			seriesType := p.SeriesType
			if seriesType == "" {
				seriesType = "close"
			}
			params.Set("series_type", seriesType)
		}
	default:
		return nil, models.Errorf(models.ErrInvalidRequest, "unknown indicator: %s", indicator)
	}

	var payload map[string]json.RawMessage
	if err := s.getJSON(ctx, strings.ToLower(string(indicator)), params, &payload); err != nil {
		return nil, err
	}

	raw, ok := payload[seriesKey(indicator, p.Interval)]
	if !ok {
		// Provider replies 200 with a Note/Error Message body when the
		// symbol is unknown or the quota is exhausted.
		return nil, models.Errorf(models.ErrInsufficientData, "no %s series for %s", indicator, symbol)
	}

	var entries map[string]map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, models.Errorf(models.ErrTransportFailed, "malformed %s series for %s: %v", indicator, symbol, err)
	}

	valueField := string(indicator)
	if indicator == models.IndicatorPrice {
		valueField = "4. close"
	}

	series := make(models.Series, 0, len(entries))
	for ts, fields := range entries {
		value, err := strconv.ParseFloat(fields[valueField], 64)
		if err != nil {
			continue
		}
		series = append(series, models.IndicatorSample{
			Timestamp: parseSeriesTimestamp(ts),
			Value:     value,
		})
	}

	// Provider maps are unordered after decoding; restore newest-first.
	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.After(series[j].Timestamp)
	})

	return series, nil
}

// parseSeriesTimestamp accepts both daily and intraday timestamp layouts.
func parseSeriesTimestamp(ts string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", ts); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", ts)
	return t
}

// GetIntraday returns raw intraday data for the pass-through tool
func (s *AlphaVantageService) GetIntraday(ctx context.Context, symbol, interval, outputsize string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("outputsize", outputsize)
	return s.getRaw(ctx, "intraday", params)
}

// GetDaily returns raw daily data for the pass-through tool
func (s *AlphaVantageService) GetDaily(ctx context.Context, symbol, outputsize string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("outputsize", outputsize)
	return s.getRaw(ctx, "daily", params)
}

// GetNewsSentiment returns raw news sentiment for the given tickers
func (s *AlphaVantageService) GetNewsSentiment(ctx context.Context, tickers []string, limit int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("tickers", strings.Join(tickers, ","))
	params.Set("limit", strconv.Itoa(limit))
	return s.getRaw(ctx, "news_sentiment", params)
}

// GetTopGainersLosers returns the raw market movers payload
func (s *AlphaVantageService) GetTopGainersLosers(ctx context.Context) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("function", "TOP_GAINERS_LOSERS")
	return s.getRaw(ctx, "top_gainers_losers", params)
}

// GetEarningsCalendar returns the earnings calendar as CSV text, the only
// format the provider serves for this endpoint.
func (s *AlphaVantageService) GetEarningsCalendar(ctx context.Context, symbol, horizon string) (string, error) {
	params := url.Values{}
	params.Set("function", "EARNINGS_CALENDAR")
	params.Set("horizon", horizon)
	if symbol != "" {
		params.Set("symbol", symbol)
	}

	body, err := s.get(ctx, "earnings_calendar", params)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// getJSON fetches and decodes a JSON endpoint
func (s *AlphaVantageService) getJSON(ctx context.Context, operation string, params url.Values, out any) error {
	body, err := s.get(ctx, operation, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return models.Errorf(models.ErrTransportFailed, "failed to decode %s response: %v", operation, err)
	}
	return nil
}

// getRaw fetches a JSON endpoint without decoding it
func (s *AlphaVantageService) getRaw(ctx context.Context, operation string, params url.Values) (json.RawMessage, error) {
	body, err := s.get(ctx, operation, params)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, models.Errorf(models.ErrTransportFailed, "non-JSON %s response", operation)
	}
	return json.RawMessage(body), nil
}

// get performs a rate-limited, retried, breaker-protected GET
func (s *AlphaVantageService) get(ctx context.Context, operation string, params url.Values) ([]byte, error) {
	params.Set("apikey", s.apiKey)
	requestURL := s.baseURL + "?" + params.Encode()

	var body []byte
	err := WithRetry(ctx, DefaultRetryConfig, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		_, err := WithCircuitBreaker(ctx, BreakerAlphaVantage, func() (struct{}, error) {
			start := time.Now()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
			if err != nil {
				return struct{}{}, err
			}

			resp, err := s.httpClient.Do(req)
			observability.GetMetrics().RecordExternalAPIRequest("alphavantage", operation, time.Since(start))
			if err != nil {
				observability.GetMetrics().RecordExternalAPIError("alphavantage", operation)
				return struct{}{}, err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				observability.GetMetrics().RecordExternalAPIError("alphavantage", operation)
				return struct{}{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
			}

			body, err = io.ReadAll(resp.Body)
			return struct{}{}, err
		})
		return err
	})
	if err != nil {
		return nil, models.Errorf(models.ErrTransportFailed, "alphavantage %s failed: %v", operation, err)
	}

	return body, nil
}
