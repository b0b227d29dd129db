package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/tradespace-search/internal/observability"
)

// ErrInvalidConfig marks configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the client configuration file.
type Config struct {
	Catalog   Catalog                     `yaml:"catalog"`
	Submit    Submit                      `yaml:"submit"`
	LogLevel  string                      `yaml:"logLevel"`  // "debug" | "info" | "warn" | "error"
	LogFormat string                      `yaml:"logFormat"` // "text" | "json"
	Tracing   observability.TracingConfig `yaml:"tracing"`
	Metrics   Metrics                     `yaml:"metrics"`
}

// Catalog configures the knowledge-base lookup service.
type Catalog struct {
	BaseURL string `yaml:"baseURL"`
	Timeout string `yaml:"timeout"`
	Token   string `yaml:"token"`
	Limit   int    `yaml:"limit"`
}

// Submit configures the analysis service endpoint.
type Submit struct {
	Endpoint    string `yaml:"endpoint"`
	ResultsPath string `yaml:"resultsPath"`
	Timeout     string `yaml:"timeout"`
}

// Metrics configures the optional Prometheus push gateway.
type Metrics struct {
	PushGateway string `yaml:"pushGateway"`
	Job         string `yaml:"job"`
}

const (
	DefaultCatalogURL  = "https://tatckb.org/api"
	DefaultEndpoint    = "http://localhost:5000/getRunFiles"
	DefaultResultsPath = "/data"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// NewConfigFromYaml parses, defaults and validates a configuration file.
func NewConfigFromYaml(yamlBytes []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	setDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads path when non-empty, otherwise starts from defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = Default()
	} else {
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read config %s: %w", path, readErr)
		}
		cfg, err = NewConfigFromYaml(raw)
		if err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CatalogTimeout returns the parsed catalog timeout.
func (c *Config) CatalogTimeout() time.Duration { return mustDuration(c.Catalog.Timeout) }

// SubmitTimeout returns the parsed submission timeout.
func (c *Config) SubmitTimeout() time.Duration { return mustDuration(c.Submit.Timeout) }

func setDefaults(config *Config) {
	if strings.TrimSpace(config.LogLevel) == "" {
		config.LogLevel = "info"
	}
	if strings.TrimSpace(config.LogFormat) == "" {
		config.LogFormat = "text"
	}
	if strings.TrimSpace(config.Catalog.BaseURL) == "" {
		config.Catalog.BaseURL = DefaultCatalogURL
	}
	if strings.TrimSpace(config.Catalog.Timeout) == "" {
		config.Catalog.Timeout = "15s"
	}
	if config.Catalog.Limit == 0 {
		config.Catalog.Limit = 100
	}
	if strings.TrimSpace(config.Submit.Endpoint) == "" {
		config.Submit.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(config.Submit.ResultsPath) == "" {
		config.Submit.ResultsPath = DefaultResultsPath
	}
	if strings.TrimSpace(config.Submit.Timeout) == "" {
		config.Submit.Timeout = "60s"
	}
	if strings.TrimSpace(config.Metrics.Job) == "" {
		config.Metrics.Job = "tradespace"
	}
}

func applyEnv(config *Config) {
	if v := os.Getenv("TATCKB_BASE_URL"); v != "" {
		config.Catalog.BaseURL = v
	}
	if v := os.Getenv("TATCKB_TOKEN"); v != "" {
		config.Catalog.Token = v
	}
	if v := os.Getenv("TRADESPACE_ENDPOINT"); v != "" {
		config.Submit.Endpoint = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		config.LogFormat = v
	}
	config.Tracing = observability.ApplyTracingEnv(config.Tracing)
}

func validateConfig(config *Config) error {
	level := strings.ToLower(strings.TrimSpace(config.LogLevel))
	switch level {
	case "debug", "info", "warn", "error":
		config.LogLevel = level
	default:
		return fmt.Errorf("%w: logLevel '%s' (supported: debug, info, warn, error)", ErrInvalidConfig, config.LogLevel)
	}

	format := strings.ToLower(strings.TrimSpace(config.LogFormat))
	switch format {
	case "text", "json":
		config.LogFormat = format
	default:
		return fmt.Errorf("%w: logFormat '%s' (supported: text, json)", ErrInvalidConfig, config.LogFormat)
	}

	if err := validateURL("catalog.baseURL", config.Catalog.BaseURL); err != nil {
		return err
	}
	if err := validateURL("submit.endpoint", config.Submit.Endpoint); err != nil {
		return err
	}
	if config.Catalog.Limit < 0 {
		return fmt.Errorf("%w: catalog.limit must be positive (got %d)", ErrInvalidConfig, config.Catalog.Limit)
	}

	for name, raw := range map[string]string{
		"catalog.timeout": config.Catalog.Timeout,
		"submit.timeout":  config.Submit.Timeout,
	} {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: %s '%s': %v", ErrInvalidConfig, name, raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}

	if config.Metrics.PushGateway != "" {
		if err := validateURL("metrics.pushGateway", config.Metrics.PushGateway); err != nil {
			return err
		}
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %s cannot be parsed: '%s' - error: %s", ErrInvalidConfig, name, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %s must be an http(s) URL: '%s'", ErrInvalidConfig, name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %s has no host: '%s'", ErrInvalidConfig, name, raw)
	}
	return nil
}

func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}
