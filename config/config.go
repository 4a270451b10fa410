package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// External provider configurations
	AlphaVantage AlphaVantageConfig
	Upstox       UpstoxConfig

	// Engine tuning
	Engine EngineConfig

	// HTTP server configuration
	HTTP HTTPConfig
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
	// RatePerMinute bounds outbound calls; the free tier allows 5/min
	RatePerMinute int
}

// UpstoxConfig holds Upstox brokerage API configuration
type UpstoxConfig struct {
	APIKey      string
	APISecret   string
	AccessToken string
	BaseURL     string
}

// EngineConfig holds decision-engine tuning
type EngineConfig struct {
	DefaultExchangeSegment string  // synthesized-token prefix for unknown symbols
	SMAPeriod              int     // SMA look-back for signal scoring
	RSIPeriod              int     // RSI look-back
	ATRPeriod              int     // ATR look-back
	MaxConcurrentFetches   int     // fan-out bound for batch tools
	FetchTimeoutSeconds    int     // per-symbol fetch timeout
	CatalystChangeThresh   float64 // |change%| that qualifies a catalyst
	CatalystMoveThresh     float64 // expected move that qualifies a catalyst
	ScanResultLimit        int     // max events returned by a scan
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr                  string
	RequestTimeoutSeconds int
	CORSAllowedOrigins    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		AlphaVantage: AlphaVantageConfig{
			APIKey:        os.Getenv("ALPHAVANTAGE_API_KEY"),
			BaseURL:       getEnvString("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			RatePerMinute: getEnvInt("ALPHAVANTAGE_RATE_PER_MINUTE", 5),
		},
		Upstox: UpstoxConfig{
			APIKey:      os.Getenv("UPSTOCKS_API_KEY"),
			APISecret:   os.Getenv("UPSTOCKS_API_SECRET"),
			AccessToken: os.Getenv("UPSTOX_ACCESS_TOKEN"),
			BaseURL:     getEnvString("UPSTOX_BASE_URL", "https://api.upstox.com/v2"),
		},
		Engine: EngineConfig{
			DefaultExchangeSegment: getEnvString("ENGINE_DEFAULT_SEGMENT", "NSE_EQ"),
			SMAPeriod:              getEnvInt("ENGINE_SMA_PERIOD", 20),
			RSIPeriod:              getEnvInt("ENGINE_RSI_PERIOD", 14),
			ATRPeriod:              getEnvInt("ENGINE_ATR_PERIOD", 14),
			MaxConcurrentFetches:   getEnvInt("ENGINE_MAX_CONCURRENT_FETCHES", 5),
			FetchTimeoutSeconds:    getEnvInt("ENGINE_FETCH_TIMEOUT_SECONDS", 30),
			CatalystChangeThresh:   getEnvFloat("ENGINE_CATALYST_CHANGE_THRESHOLD", 3.0),
			CatalystMoveThresh:     getEnvFloat("ENGINE_CATALYST_MOVE_THRESHOLD", 2.0),
			ScanResultLimit:        getEnvInt("ENGINE_SCAN_RESULT_LIMIT", 10),
		},
		HTTP: HTTPConfig{
			Addr:                  getEnvString("HTTP_ADDR", ":8080"),
			RequestTimeoutSeconds: getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
			CORSAllowedOrigins:    getEnvString("CORS_ALLOWED_ORIGINS", "*"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Engine.SMAPeriod <= 0 {
		return fmt.Errorf("ENGINE_SMA_PERIOD must be positive, got %d", c.Engine.SMAPeriod)
	}
	if c.Engine.RSIPeriod <= 0 {
		return fmt.Errorf("ENGINE_RSI_PERIOD must be positive, got %d", c.Engine.RSIPeriod)
	}
	if c.Engine.ATRPeriod <= 0 {
		return fmt.Errorf("ENGINE_ATR_PERIOD must be positive, got %d", c.Engine.ATRPeriod)
	}
	if c.Engine.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("ENGINE_MAX_CONCURRENT_FETCHES must be positive, got %d", c.Engine.MaxConcurrentFetches)
	}
	if c.Engine.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("ENGINE_FETCH_TIMEOUT_SECONDS must be positive, got %d", c.Engine.FetchTimeoutSeconds)
	}
	if c.Engine.ScanResultLimit <= 0 {
		return fmt.Errorf("ENGINE_SCAN_RESULT_LIMIT must be positive, got %d", c.Engine.ScanResultLimit)
	}
	if c.AlphaVantage.RatePerMinute <= 0 {
		return fmt.Errorf("ALPHAVANTAGE_RATE_PER_MINUTE must be positive, got %d", c.AlphaVantage.RatePerMinute)
	}
	return nil
}

// HasAlphaVantage returns true if Alpha Vantage configuration is available
func (c *Config) HasAlphaVantage() bool {
	return c.AlphaVantage.APIKey != ""
}

// HasUpstox returns true if Upstox configuration is available
func (c *Config) HasUpstox() bool {
	return c.Upstox.AccessToken != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		AlphaVantage: AlphaVantageConfig{
			APIKey:        "",
			BaseURL:       "https://www.alphavantage.co/query",
			RatePerMinute: 5,
		},
		Upstox: UpstoxConfig{
			APIKey:      "",
			APISecret:   "",
			AccessToken: "",
			BaseURL:     "https://api.upstox.com/v2",
		},
		Engine: EngineConfig{
			DefaultExchangeSegment: "NSE_EQ",
			SMAPeriod:              20,
			RSIPeriod:              14,
			ATRPeriod:              14,
			MaxConcurrentFetches:   5,
			FetchTimeoutSeconds:    30,
			CatalystChangeThresh:   3.0,
			CatalystMoveThresh:     2.0,
			ScanResultLimit:        10,
		},
		HTTP: HTTPConfig{
			Addr:                  ":8080",
			RequestTimeoutSeconds: 60,
			CORSAllowedOrigins:    "*",
		},
	}
}
