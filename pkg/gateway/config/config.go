package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeRequired AuthMode = "required"
	AuthModeOptional AuthMode = "optional"
	AuthModeDisabled AuthMode = "disabled"
)

type ExtractProvider string

const (
	ExtractProviderAnthropic ExtractProvider = "anthropic"
	ExtractProviderGemini    ExtractProvider = "gemini"
)

type Config struct {
	Addr string

	AuthMode AuthMode
	APIKeys  map[string]struct{}

	// If true, client identity may be derived from proxy headers like
	// X-Forwarded-For. Only enable behind a trusted proxy/LB.
	TrustProxyHeaders bool

	// CORS / websocket origin allowlist. Empty => browser origins refused.
	CORSAllowedOrigins map[string]struct{}

	// Call websocket limits.
	MaxJSONMessageBytes int64
	HandshakeTimeout    time.Duration
	WSPingInterval      time.Duration
	WSWriteTimeout      time.Duration
	WSReadTimeout       time.Duration

	// Turn coordination.
	SilenceTimeout     time.Duration
	MaxRetries         int
	ExtractTimeout     time.Duration
	MaxSessionDuration time.Duration
	RecordTimeout      time.Duration

	// Eligibility rules.
	ServiceAreas           []string
	CaseTypes              []string
	PovertyBaseAnnual      int
	PovertyIncrementAnnual int
	IncomeMultiplier       float64
	AssetLimit             int

	// Fact extractor backend.
	ExtractProvider ExtractProvider
	AnthropicModel  string
	// AnthropicAPIKey is optional; the SDK falls back to ANTHROPIC_API_KEY.
	AnthropicAPIKey string
	GeminiModel     string
	GeminiAPIKey    string

	// Outcome store; empty means outcomes go to the log only.
	DatabaseURL string

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                   envOr("SCREENLINE_ADDR", ":8080"),
		AuthMode:               AuthMode(envOr("SCREENLINE_AUTH_MODE", string(AuthModeRequired))),
		APIKeys:                make(map[string]struct{}),
		TrustProxyHeaders:      envBoolOr("SCREENLINE_TRUST_PROXY_HEADERS", false),
		CORSAllowedOrigins:     make(map[string]struct{}),
		MaxJSONMessageBytes:    envInt64Or("SCREENLINE_MAX_JSON_MESSAGE_BYTES", 64*1024),
		HandshakeTimeout:       envDurationOr("SCREENLINE_HANDSHAKE_TIMEOUT", 5*time.Second),
		WSPingInterval:         envDurationOr("SCREENLINE_WS_PING_INTERVAL", 20*time.Second),
		WSWriteTimeout:         envDurationOr("SCREENLINE_WS_WRITE_TIMEOUT", 5*time.Second),
		WSReadTimeout:          envDurationOr("SCREENLINE_WS_READ_TIMEOUT", 0),
		SilenceTimeout:         envDurationOr("SCREENLINE_SILENCE_TIMEOUT", 10*time.Second),
		MaxRetries:             envIntOr("SCREENLINE_MAX_RETRIES", 3),
		ExtractTimeout:         envDurationOr("SCREENLINE_EXTRACT_TIMEOUT", 10*time.Second),
		MaxSessionDuration:     envDurationOr("SCREENLINE_MAX_SESSION_DURATION", 15*time.Minute),
		RecordTimeout:          envDurationOr("SCREENLINE_RECORD_TIMEOUT", 5*time.Second),
		PovertyBaseAnnual:      envIntOr("SCREENLINE_POVERTY_BASE_ANNUAL", 15650),
		PovertyIncrementAnnual: envIntOr("SCREENLINE_POVERTY_INCREMENT_ANNUAL", 5500),
		IncomeMultiplier:       envFloat64Or("SCREENLINE_INCOME_MULTIPLIER", 3.0),
		AssetLimit:             envIntOr("SCREENLINE_ASSET_LIMIT", 10000),
		ExtractProvider:        ExtractProvider(envOr("SCREENLINE_EXTRACT_PROVIDER", string(ExtractProviderAnthropic))),
		AnthropicModel:         envOr("SCREENLINE_ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		AnthropicAPIKey:        strings.TrimSpace(os.Getenv("SCREENLINE_ANTHROPIC_API_KEY")),
		GeminiModel:            envOr("SCREENLINE_GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiAPIKey:           strings.TrimSpace(os.Getenv("SCREENLINE_GEMINI_API_KEY")),
		DatabaseURL:            strings.TrimSpace(os.Getenv("SCREENLINE_DATABASE_URL")),
		ReadHeaderTimeout:      envDurationOr("SCREENLINE_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:            envDurationOr("SCREENLINE_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:    envDurationOr("SCREENLINE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.AuthMode {
	case AuthModeRequired, AuthModeOptional, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("SCREENLINE_AUTH_MODE must be one of required|optional|disabled")
	}

	switch cfg.ExtractProvider {
	case ExtractProviderAnthropic, ExtractProviderGemini:
	default:
		return Config{}, fmt.Errorf("SCREENLINE_EXTRACT_PROVIDER must be one of anthropic|gemini")
	}

	for _, key := range splitCSV(os.Getenv("SCREENLINE_API_KEYS")) {
		cfg.APIKeys[key] = struct{}{}
	}
	for _, origin := range splitCSV(os.Getenv("SCREENLINE_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	cfg.ServiceAreas = splitCSV(os.Getenv("SCREENLINE_SERVICE_AREAS"))
	if len(cfg.ServiceAreas) == 0 {
		cfg.ServiceAreas = []string{
			"Henry County", "Patrick County", "Franklin County",
			"Pittsylvania County", "City of Martinsville", "City of Danville",
		}
	}
	cfg.CaseTypes = splitCSV(os.Getenv("SCREENLINE_CASE_TYPES"))
	if len(cfg.CaseTypes) == 0 {
		cfg.CaseTypes = []string{"housing", "family", "public_benefits", "consumer", "health_care", "expungement"}
	}

	if cfg.MaxJSONMessageBytes <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_MAX_JSON_MESSAGE_BYTES must be > 0")
	}
	if cfg.HandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_WS_PING_INTERVAL must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSReadTimeout < 0 {
		return Config{}, fmt.Errorf("SCREENLINE_WS_READ_TIMEOUT must be >= 0")
	}
	if cfg.SilenceTimeout <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_SILENCE_TIMEOUT must be > 0")
	}
	if cfg.MaxRetries <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_MAX_RETRIES must be > 0")
	}
	if cfg.ExtractTimeout <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_EXTRACT_TIMEOUT must be > 0")
	}
	if cfg.MaxSessionDuration <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_MAX_SESSION_DURATION must be > 0")
	}
	if cfg.RecordTimeout <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_RECORD_TIMEOUT must be > 0")
	}
	if cfg.PovertyBaseAnnual <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_POVERTY_BASE_ANNUAL must be > 0")
	}
	if cfg.PovertyIncrementAnnual <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_POVERTY_INCREMENT_ANNUAL must be > 0")
	}
	if cfg.IncomeMultiplier <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_INCOME_MULTIPLIER must be > 0")
	}
	if cfg.AssetLimit <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_ASSET_LIMIT must be > 0")
	}
	if cfg.ExtractProvider == ExtractProviderGemini && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("SCREENLINE_GEMINI_API_KEY must be set when SCREENLINE_EXTRACT_PROVIDER=gemini")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("SCREENLINE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	if cfg.AuthMode == AuthModeRequired && len(cfg.APIKeys) == 0 {
		return Config{}, fmt.Errorf("SCREENLINE_API_KEYS must be set when SCREENLINE_AUTH_MODE=required")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
