package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "pmreport.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("PMREPORT_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PMREPORT_PORT")
	setString(&cfg.Server.CORSOrigin, "PMREPORT_CORS_ORIGIN")
	setFloat(&cfg.Server.SubmitRate, "PMREPORT_SUBMIT_RATE")
	setInt(&cfg.Server.SubmitBurst, "PMREPORT_SUBMIT_BURST")

	setString(&cfg.PMService.URL, "PMREPORT_SERVICE_URL")
	setDuration(&cfg.PMService.Timeout, "PMREPORT_SERVICE_TIMEOUT")
	setInt64(&cfg.PMService.BodyLimit, "PMREPORT_SERVICE_BODY_LIMIT")

	setString(&cfg.Logging.Level, "PMREPORT_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PMREPORT_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PMREPORT_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "PMREPORT_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PMREPORT_BREAKER_TIMEOUT")

	setDuration(&cfg.Sessions.IdleTTL, "PMREPORT_SESSION_IDLE_TTL")
	setDuration(&cfg.Sessions.SweepInterval, "PMREPORT_SESSION_SWEEP_INTERVAL")

	setString(&cfg.Report.Filename, "PMREPORT_REPORT_FILENAME")
	setInt64(&cfg.Report.CacheMaxMB, "PMREPORT_REPORT_CACHE_MB")
	setDuration(&cfg.Report.CacheTTL, "PMREPORT_REPORT_CACHE_TTL")

	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Prometheus, "PMREPORT_PROMETHEUS")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.SubmitRate < 0 {
		return errors.New("server.submit_rate must be >= 0")
	}
	if cfg.Server.SubmitRate > 0 && cfg.Server.SubmitBurst < 1 {
		return errors.New("server.submit_burst must be >= 1 when submit_rate is set")
	}
	if cfg.PMService.URL == "" {
		return errors.New("pm_service.url is required")
	}
	u, err := url.Parse(cfg.PMService.URL)
	if err != nil || !u.IsAbs() {
		return errors.New("pm_service.url must be an absolute URL")
	}
	if cfg.PMService.Timeout < 0 {
		return errors.New("pm_service.timeout must be >= 0")
	}
	if cfg.PMService.BodyLimit < 1 {
		return errors.New("pm_service.body_limit must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Sessions.IdleTTL <= 0 {
		return errors.New("sessions.idle_ttl must be > 0")
	}
	if cfg.Sessions.SweepInterval <= 0 {
		return errors.New("sessions.sweep_interval must be > 0")
	}
	if cfg.Report.Filename == "" {
		return errors.New("report.filename is required")
	}
	if cfg.Report.CacheMaxMB < 1 {
		return errors.New("report.cache_max_mb must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
