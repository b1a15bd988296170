package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mzawada/trainload/internal/platform/logging"
)

// PendingSource binds one sheet tab to the label shown for its rows.
// Order is preserved from the PENDING_SOURCE_MAP value.
type PendingSource struct {
	Sheet string
	Label string
}

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                      string
	ServiceName                 string
	ServiceVersion              string
	HTTPAddr                    string
	ReadTimeout                 time.Duration
	WriteTimeout                time.Duration
	LogLevel                    logging.Level
	CORSAllowedOrigins          []string
	CacheEnabled                bool
	CacheTTL                    time.Duration
	RefreshEnabled              bool
	RefreshInterval             time.Duration
	StatusResetTTL              time.Duration
	SheetsDocID                 string
	SheetsBaseURL               string
	SheetsProxyBaseURL          string
	SheetsSessionsGID           string
	SheetsMeasurementsGID       string
	SheetsRosterSheet           string
	SheetsTimeout               time.Duration
	SheetsMaxRetries            int
	SheetsCircuitEnabled        bool
	SheetsCircuitFailureCount   int
	SheetsCircuitOpenTimeout    time.Duration
	SheetsCircuitHalfOpenMaxReq int
	PendingSources              []PendingSource
	AppsScriptEnabled           bool
	AppsScriptURL               string
	AppsScriptTimeout           time.Duration
	AppsScriptCircuitEnabled    bool
	AppsScriptFailureCount      int
	AppsScriptOpenTimeout       time.Duration
	AppsScriptHalfOpenMaxReq    int
	SnapshotArchiveEnabled      bool
	DBURL                       string
	DBDisablePreparedBinary     bool
	UptraceEnabled              bool
	UptraceDSN                  string
	UptraceLogsEnabled          bool
	PyroscopeEnabled            bool
	PyroscopeServerAddress      string
	PyroscopeAppName            string
	PyroscopeAuthToken          string
	PyroscopeBasicAuthUser      string
	PyroscopeBasicAuthPassword  string
	PyroscopeUploadRate         time.Duration
	PprofEnabled                bool
	PprofAddr                   string
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

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	refreshEnabled, err := strconv.ParseBool(getEnv("REFRESH_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_ENABLED: %w", err)
	}
	refreshInterval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_INTERVAL: %w", err)
	}
	if refreshInterval <= 0 {
		return Config{}, fmt.Errorf("REFRESH_INTERVAL must be > 0")
	}

	statusResetTTL, err := time.ParseDuration(getEnv("STATUS_RESET_TTL", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATUS_RESET_TTL: %w", err)
	}
	if statusResetTTL <= 0 {
		return Config{}, fmt.Errorf("STATUS_RESET_TTL must be > 0")
	}

	sheetsDocID := strings.TrimSpace(getEnv("SHEETS_DOC_ID", ""))
	if sheetsDocID == "" {
		return Config{}, fmt.Errorf("SHEETS_DOC_ID is required")
	}
	sheetsTimeout, err := time.ParseDuration(getEnv("SHEETS_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_TIMEOUT: %w", err)
	}
	if sheetsTimeout <= 0 {
		return Config{}, fmt.Errorf("SHEETS_TIMEOUT must be > 0")
	}
	sheetsMaxRetries, err := getEnvAsInt("SHEETS_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_MAX_RETRIES: %w", err)
	}
	if sheetsMaxRetries < 0 {
		return Config{}, fmt.Errorf("SHEETS_MAX_RETRIES must be >= 0")
	}
	sheetsCircuitEnabled, err := strconv.ParseBool(getEnv("SHEETS_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_ENABLED: %w", err)
	}
	sheetsCircuitFailureCount, err := getEnvAsInt("SHEETS_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if sheetsCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SHEETS_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	sheetsCircuitOpenTimeout, err := time.ParseDuration(getEnv("SHEETS_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if sheetsCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("SHEETS_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	sheetsCircuitHalfOpenMaxReq, err := getEnvAsInt("SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if sheetsCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	sheetsSessionsGID := strings.TrimSpace(getEnv("SHEETS_SESSIONS_GID", "0"))
	sheetsMeasurementsGID := strings.TrimSpace(getEnv("SHEETS_MEASUREMENTS_GID", ""))
	sheetsRosterSheet := strings.TrimSpace(getEnv("SHEETS_ROSTER_SHEET", ""))

	pendingSources, err := parsePendingSourceMap(getEnv("PENDING_SOURCE_MAP", "Sessions:Training sessions"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PENDING_SOURCE_MAP: %w", err)
	}

	appsScriptEnabled, err := strconv.ParseBool(getEnv("APPSSCRIPT_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APPSSCRIPT_ENABLED: %w", err)
	}
	appsScriptURL := strings.TrimSpace(getEnv("APPSSCRIPT_URL", ""))
	if appsScriptEnabled && appsScriptURL == "" {
		return Config{}, fmt.Errorf("APPSSCRIPT_URL is required when APPSSCRIPT_ENABLED=true")
	}
	if appsScriptEnabled && len(pendingSources) == 0 {
		return Config{}, fmt.Errorf("PENDING_SOURCE_MAP is required when APPSSCRIPT_ENABLED=true")
	}
	appsScriptTimeout, err := time.ParseDuration(getEnv("APPSSCRIPT_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APPSSCRIPT_TIMEOUT: %w", err)
	}
	if appsScriptTimeout <= 0 {
		return Config{}, fmt.Errorf("APPSSCRIPT_TIMEOUT must be > 0")
	}
	appsScriptCircuitEnabled, err := strconv.ParseBool(getEnv("APPSSCRIPT_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APPSSCRIPT_CIRCUIT_ENABLED: %w", err)
	}
	appsScriptFailureCount, err := getEnvAsInt("APPSSCRIPT_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse APPSSCRIPT_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if appsScriptFailureCount < 1 {
		return Config{}, fmt.Errorf("APPSSCRIPT_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	appsScriptOpenTimeout, err := time.ParseDuration(getEnv("APPSSCRIPT_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APPSSCRIPT_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if appsScriptOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("APPSSCRIPT_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	appsScriptHalfOpenMaxReq, err := getEnvAsInt("APPSSCRIPT_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse APPSSCRIPT_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if appsScriptHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("APPSSCRIPT_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	snapshotArchiveEnabled, err := strconv.ParseBool(getEnv("SNAPSHOT_ARCHIVE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SNAPSHOT_ARCHIVE_ENABLED: %w", err)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if snapshotArchiveEnabled && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when SNAPSHOT_ARCHIVE_ENABLED=true")
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
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

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	cfg := Config{
		AppEnv:                      appEnv,
		ServiceName:                 getEnv("APP_SERVICE_NAME", "trainload-api"),
		ServiceVersion:              getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                    getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                 readTimeout,
		WriteTimeout:                writeTimeout,
		LogLevel:                    parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins:          splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		CacheEnabled:                cacheEnabled,
		CacheTTL:                    cacheTTL,
		RefreshEnabled:              refreshEnabled,
		RefreshInterval:             refreshInterval,
		StatusResetTTL:              statusResetTTL,
		SheetsDocID:                 sheetsDocID,
		SheetsBaseURL:               getEnv("SHEETS_BASE_URL", "https://docs.google.com/spreadsheets/d"),
		SheetsProxyBaseURL:          strings.TrimSpace(getEnv("SHEETS_PROXY_BASE_URL", "")),
		SheetsSessionsGID:           sheetsSessionsGID,
		SheetsMeasurementsGID:       sheetsMeasurementsGID,
		SheetsRosterSheet:           sheetsRosterSheet,
		SheetsTimeout:               sheetsTimeout,
		SheetsMaxRetries:            sheetsMaxRetries,
		SheetsCircuitEnabled:        sheetsCircuitEnabled,
		SheetsCircuitFailureCount:   sheetsCircuitFailureCount,
		SheetsCircuitOpenTimeout:    sheetsCircuitOpenTimeout,
		SheetsCircuitHalfOpenMaxReq: sheetsCircuitHalfOpenMaxReq,
		PendingSources:              pendingSources,
		AppsScriptEnabled:           appsScriptEnabled,
		AppsScriptURL:               appsScriptURL,
		AppsScriptTimeout:           appsScriptTimeout,
		AppsScriptCircuitEnabled:    appsScriptCircuitEnabled,
		AppsScriptFailureCount:      appsScriptFailureCount,
		AppsScriptOpenTimeout:       appsScriptOpenTimeout,
		AppsScriptHalfOpenMaxReq:    appsScriptHalfOpenMaxReq,
		SnapshotArchiveEnabled:      snapshotArchiveEnabled,
		DBURL:                       dbURL,
		DBDisablePreparedBinary:     dbDisablePreparedBinary,
		UptraceEnabled:              uptraceEnabled,
		UptraceDSN:                  uptraceDSN,
		UptraceLogsEnabled:          uptraceLogsEnabled,
		PyroscopeEnabled:            pyroscopeEnabled,
		PyroscopeServerAddress:      pyroscopeServerAddress,
		PyroscopeAuthToken:          strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:      strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:  strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:         pyroscopeUploadRate,
		PprofEnabled:                pprofEnabled,
		PprofAddr:                   pprofAddr,
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

func parsePendingSourceMap(raw string) ([]PendingSource, error) {
	parts := strings.Split(raw, ",")
	out := make([]PendingSource, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		segments := strings.SplitN(item, ":", 2)
		sheet := strings.TrimSpace(segments[0])
		if sheet == "" {
			return nil, fmt.Errorf("empty sheet name in item %q", item)
		}
		if _, dup := seen[sheet]; dup {
			return nil, fmt.Errorf("duplicate sheet %q", sheet)
		}
		seen[sheet] = struct{}{}

		label := sheet
		if len(segments) == 2 && strings.TrimSpace(segments[1]) != "" {
			label = strings.TrimSpace(segments[1])
		}
		out = append(out, PendingSource{Sheet: sheet, Label: label})
	}

	return out, nil
}
