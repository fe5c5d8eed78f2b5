package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
	"github.com/riskibarqy/fantasy-roster/internal/platform/resilience"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config stores runtime configuration for the api and worker binaries.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	StorageDriver           string
	DBURL                   string
	DBDisablePreparedBinary bool
	DBMaxOpenConns          int
	DBMaxIdleConns          int
	DBBootstrapSeed         bool

	RedisEnabled    bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTLSEnabled bool

	CacheEnabled       bool
	CacheTTL           time.Duration
	CORSAllowedOrigins []string
	InternalJobToken   string

	AnubisBaseURL               string
	AnubisIntrospectURL         string
	AnubisAdminKey              string
	AnubisTimeout               time.Duration
	AnubisCircuitEnabled        bool
	AnubisCircuitFailureCount   int
	AnubisCircuitOpenTimeout    time.Duration
	AnubisCircuitHalfOpenMaxReq int

	DraftReservationTTL      time.Duration
	WaiverBatchSize          int
	WaiverLockTTL            time.Duration
	WaiverClaimDelay         time.Duration
	WaiverWorkers            int
	WaiverInterval           time.Duration
	ReservationSweepInterval time.Duration

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                 appEnv,
		ServiceName:            getEnv("APP_SERVICE_NAME", "fantasy-roster-api"),
		ServiceVersion:         getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:               getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:               parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		DBURL:                  strings.TrimSpace(getEnv("DB_URL", "")),
		RedisAddr:              strings.TrimSpace(getEnv("REDIS_ADDR", "localhost:6379")),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		InternalJobToken:       strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		AnubisBaseURL:          getEnv("ANUBIS_BASE_URL", "http://localhost:8081"),
		AnubisIntrospectURL:    getEnv("ANUBIS_INTROSPECT_PATH", "/v1/auth/introspect"),
		AnubisAdminKey:         getEnv("ANUBIS_ADMIN_KEY", ""),
		PyroscopeServerAddress: strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PprofAddr:              strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", StorageMemory)))
	switch cfg.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s", cfg.StorageDriver, StorageMemory, StoragePostgres)
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", "true"); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxOpenConns, err = getEnvAsInt("DB_MAX_OPEN_CONNS", 20); err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.DBMaxIdleConns, err = getEnvAsInt("DB_MAX_IDLE_CONNS", 10); err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_IDLE_CONNS: %w", err)
	}
	if cfg.DBMaxOpenConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be > 0")
	}
	if cfg.DBMaxIdleConns < 0 || cfg.DBMaxIdleConns > cfg.DBMaxOpenConns {
		return Config{}, fmt.Errorf("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}
	seedDefault := "true"
	if appEnv == EnvProd {
		seedDefault = "false"
	}
	if cfg.DBBootstrapSeed, err = getEnvAsBool("DB_BOOTSTRAP_SEED", seedDefault); err != nil {
		return Config{}, err
	}

	if cfg.RedisEnabled, err = getEnvAsBool("REDIS_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	if cfg.RedisTLSEnabled, err = getEnvAsBool("REDIS_TLS_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	if cfg.RedisEnabled && cfg.RedisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if cfg.RedisDB < 0 {
		return Config{}, fmt.Errorf("REDIS_DB must be >= 0")
	}

	if cfg.CacheEnabled, err = getEnvAsBool("CACHE_ENABLED", "true"); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", "60s"); err != nil {
		return Config{}, err
	}

	if cfg.AnubisTimeout, err = getEnvAsDuration("ANUBIS_TIMEOUT", "3s"); err != nil {
		return Config{}, err
	}
	if cfg.AnubisCircuitEnabled, err = getEnvAsBool("ANUBIS_CIRCUIT_ENABLED", "true"); err != nil {
		return Config{}, err
	}
	if cfg.AnubisCircuitFailureCount, err = getEnvAsInt("ANUBIS_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, fmt.Errorf("parse ANUBIS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.AnubisCircuitOpenTimeout, err = getEnvAsDuration("ANUBIS_CIRCUIT_OPEN_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.AnubisCircuitHalfOpenMaxReq, err = getEnvAsInt("ANUBIS_CIRCUIT_HALF_OPEN_MAX_REQ", 2); err != nil {
		return Config{}, fmt.Errorf("parse ANUBIS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.AnubisCircuitFailureCount <= 0 {
		return Config{}, fmt.Errorf("ANUBIS_CIRCUIT_FAILURE_COUNT must be > 0")
	}
	if cfg.AnubisCircuitHalfOpenMaxReq <= 0 {
		return Config{}, fmt.Errorf("ANUBIS_CIRCUIT_HALF_OPEN_MAX_REQ must be > 0")
	}

	if cfg.DraftReservationTTL, err = getEnvAsDuration("DRAFT_RESERVATION_TTL", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.WaiverBatchSize, err = getEnvAsInt("WAIVER_BATCH_SIZE", 50); err != nil {
		return Config{}, fmt.Errorf("parse WAIVER_BATCH_SIZE: %w", err)
	}
	if cfg.WaiverBatchSize <= 0 {
		return Config{}, fmt.Errorf("WAIVER_BATCH_SIZE must be > 0")
	}
	if cfg.WaiverLockTTL, err = getEnvAsDuration("WAIVER_LOCK_TTL", "2m"); err != nil {
		return Config{}, err
	}
	if cfg.WaiverClaimDelay, err = getEnvAsDuration("WAIVER_CLAIM_DELAY", "0s"); err != nil {
		return Config{}, err
	}
	if cfg.WaiverClaimDelay < 0 {
		return Config{}, fmt.Errorf("WAIVER_CLAIM_DELAY must be >= 0")
	}
	if cfg.WaiverWorkers, err = getEnvAsInt("WAIVER_WORKERS", 4); err != nil {
		return Config{}, fmt.Errorf("parse WAIVER_WORKERS: %w", err)
	}
	if cfg.WaiverWorkers <= 0 {
		return Config{}, fmt.Errorf("WAIVER_WORKERS must be > 0")
	}
	if cfg.WaiverInterval, err = getEnvAsDuration("WAIVER_INTERVAL", "1m"); err != nil {
		return Config{}, err
	}
	if cfg.ReservationSweepInterval, err = getEnvAsDuration("RESERVATION_SWEEP_INTERVAL", "10s"); err != nil {
		return Config{}, err
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", "false"); err != nil {
		return Config{}, err
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	return cfg, nil
}

func (c Config) AnubisCircuitConfig() resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Enabled:          c.AnubisCircuitEnabled,
		FailureThreshold: c.AnubisCircuitFailureCount,
		OpenTimeout:      c.AnubisCircuitOpenTimeout,
		HalfOpenMaxReq:   c.AnubisCircuitHalfOpenMaxReq,
	}
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

func getEnvAsBool(key, fallback string) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

// getEnvAsDuration rejects zero and negative values except where callers check them explicitly.
func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out < 0 || (out == 0 && fallback != "0s") {
		return 0, fmt.Errorf("%s must be > 0", key)
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
