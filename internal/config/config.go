// Package config provides hierarchical configuration loading for pmreport.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the pmreport service.
type Config struct {
	Server    Server    `yaml:"server"`
	PMService PMService `yaml:"pm_service"`
	Logging   Logging   `yaml:"logging"`
	Breaker   Breaker   `yaml:"breaker"`
	Sessions  Sessions  `yaml:"sessions"`
	Report    Report    `yaml:"report"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port        string  `yaml:"port"`
	CORSOrigin  string  `yaml:"cors_origin"`
	SubmitRate  float64 `yaml:"submit_rate"`  // submissions per second per session, 0 = unlimited
	SubmitBurst int     `yaml:"submit_burst"` // submissions allowed back to back
}

// PMService holds the remote project-management endpoint configuration.
type PMService struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`    // 0 = no timeout
	BodyLimit int64         `yaml:"body_limit"` // Max response body in bytes
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Sessions holds in-memory page session configuration.
type Sessions struct {
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Report holds document rendering configuration.
type Report struct {
	Filename   string        `yaml:"filename"`
	CacheMaxMB int64         `yaml:"cache_max_mb"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// Telemetry holds metrics and tracing export configuration.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"` // host:port, empty = no OTLP export
	Prometheus   bool   `yaml:"prometheus"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:        "8080",
			CORSOrigin:  "http://localhost:8080",
			SubmitBurst: 3,
		},
		PMService: PMService{
			URL:       "https://llm-projectmanagement.onrender.com/manage-project",
			BodyLimit: 8 << 20,
		},
		Logging: Logging{
			Level:   "info",
			Service: "pmreport",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Sessions: Sessions{
			IdleTTL:       2 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Report: Report{
			Filename:   "project_management_result.pdf",
			CacheMaxMB: 64,
			CacheTTL:   30 * time.Minute,
		},
		Telemetry: Telemetry{
			Prometheus: true,
		},
	}
}
