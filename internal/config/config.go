package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tygolabs/leaderboard-api/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           logging.Level

	CsgowinBaseURL               string
	CsgowinAPIKey                string
	CsgowinAffiliateCode         string
	CsgowinTimeout               time.Duration
	CsgowinMaxRetries            int
	CsgowinCircuitEnabled        bool
	CsgowinCircuitFailureCount   int
	CsgowinCircuitOpenTimeout    time.Duration
	CsgowinCircuitHalfOpenMaxReq int

	RainbetBaseURL         string
	RainbetAPIKey          string
	RainbetTimeout         time.Duration
	RainbetRefreshInterval time.Duration

	SheetsDocumentID string
	SheetsSheetName  string
	SheetsTimeout    time.Duration

	KeepAliveEnabled  bool
	KeepAliveURL      string
	KeepAliveInterval time.Duration

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	UptraceCaptureRequestBody  bool
	UptraceRequestBodyMaxBytes int

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	csgowinAPIKey := strings.TrimSpace(getEnv("CSGOWIN_API_KEY", ""))
	if csgowinAPIKey == "" {
		return Config{}, fmt.Errorf("CSGOWIN_API_KEY is required")
	}
	csgowinTimeout, err := time.ParseDuration(getEnv("CSGOWIN_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CSGOWIN_TIMEOUT: %w", err)
	}
	if csgowinTimeout <= 0 {
		return Config{}, fmt.Errorf("CSGOWIN_TIMEOUT must be > 0")
	}
	csgowinMaxRetries, err := getEnvAsInt("CSGOWIN_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse CSGOWIN_MAX_RETRIES: %w", err)
	}
	if csgowinMaxRetries < 0 {
		return Config{}, fmt.Errorf("CSGOWIN_MAX_RETRIES must be >= 0")
	}
	csgowinCircuitEnabled, err := strconv.ParseBool(getEnv("CSGOWIN_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CSGOWIN_CIRCUIT_ENABLED: %w", err)
	}
	csgowinCircuitFailureCount, err := getEnvAsInt("CSGOWIN_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse CSGOWIN_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if csgowinCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("CSGOWIN_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	csgowinCircuitOpenTimeout, err := time.ParseDuration(getEnv("CSGOWIN_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CSGOWIN_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if csgowinCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("CSGOWIN_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	csgowinCircuitHalfOpenMaxReq, err := getEnvAsInt("CSGOWIN_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse CSGOWIN_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if csgowinCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("CSGOWIN_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	rainbetAPIKey := strings.TrimSpace(getEnv("RAINBET_API_KEY", ""))
	if rainbetAPIKey == "" {
		return Config{}, fmt.Errorf("RAINBET_API_KEY is required")
	}
	rainbetTimeout, err := time.ParseDuration(getEnv("RAINBET_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RAINBET_TIMEOUT: %w", err)
	}
	if rainbetTimeout <= 0 {
		return Config{}, fmt.Errorf("RAINBET_TIMEOUT must be > 0")
	}
	rainbetRefreshInterval, err := time.ParseDuration(getEnv("RAINBET_REFRESH_INTERVAL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RAINBET_REFRESH_INTERVAL: %w", err)
	}
	if rainbetRefreshInterval <= 0 {
		return Config{}, fmt.Errorf("RAINBET_REFRESH_INTERVAL must be > 0")
	}

	sheetsDocumentID := strings.TrimSpace(getEnv("SHEETS_DOC_ID", ""))
	if sheetsDocumentID == "" {
		return Config{}, fmt.Errorf("SHEETS_DOC_ID is required")
	}
	sheetsTimeout, err := time.ParseDuration(getEnv("SHEETS_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_TIMEOUT: %w", err)
	}
	if sheetsTimeout <= 0 {
		return Config{}, fmt.Errorf("SHEETS_TIMEOUT must be > 0")
	}

	keepAliveEnabled, err := strconv.ParseBool(getEnv("KEEPALIVE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse KEEPALIVE_ENABLED: %w", err)
	}
	keepAliveURL := strings.TrimSpace(getEnv("KEEPALIVE_URL", ""))
	if keepAliveEnabled && keepAliveURL == "" {
		return Config{}, fmt.Errorf("KEEPALIVE_URL is required when KEEPALIVE_ENABLED=true")
	}
	keepAliveInterval, err := time.ParseDuration(getEnv("KEEPALIVE_INTERVAL", "270s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse KEEPALIVE_INTERVAL: %w", err)
	}
	if keepAliveInterval <= 0 {
		return Config{}, fmt.Errorf("KEEPALIVE_INTERVAL must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "leaderboard-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":3000"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		CsgowinBaseURL:               getEnv("CSGOWIN_BASE_URL", "https://api.csgowin.com"),
		CsgowinAPIKey:                csgowinAPIKey,
		CsgowinAffiliateCode:         getEnv("CSGOWIN_AFFILIATE_CODE", "tygo"),
		CsgowinTimeout:               csgowinTimeout,
		CsgowinMaxRetries:            csgowinMaxRetries,
		CsgowinCircuitEnabled:        csgowinCircuitEnabled,
		CsgowinCircuitFailureCount:   csgowinCircuitFailureCount,
		CsgowinCircuitOpenTimeout:    csgowinCircuitOpenTimeout,
		CsgowinCircuitHalfOpenMaxReq: csgowinCircuitHalfOpenMaxReq,

		RainbetBaseURL:         getEnv("RAINBET_BASE_URL", "https://services.rainbet.com"),
		RainbetAPIKey:          rainbetAPIKey,
		RainbetTimeout:         rainbetTimeout,
		RainbetRefreshInterval: rainbetRefreshInterval,

		SheetsDocumentID: sheetsDocumentID,
		SheetsSheetName:  getEnv("SHEETS_SHEET_NAME", "Leaderboard"),
		SheetsTimeout:    sheetsTimeout,

		KeepAliveEnabled:  keepAliveEnabled,
		KeepAliveURL:      keepAliveURL,
		KeepAliveInterval: keepAliveInterval,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		UptraceCaptureRequestBody:  uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes: uptraceRequestBodyMaxBytes,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
