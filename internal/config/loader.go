package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "lawgpt.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
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
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
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
	setString(&cfg.Server.Port, "LAWGPT_PORT")
	setString(&cfg.Server.CORSOrigin, "LAWGPT_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "LAWGPT_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "LAWGPT_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "LAWGPT_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "LAWGPT_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "LAWGPT_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setStringSlice(&cfg.Elastic.Addresses, "ELASTICSEARCH_ADDRESSES")
	setString(&cfg.Elastic.Username, "ELASTICSEARCH_USERNAME")
	setString(&cfg.Elastic.Password, "ELASTICSEARCH_PASSWORD")
	setString(&cfg.Elastic.LawsIndex, "LAWGPT_ES_LAWS_INDEX")
	setString(&cfg.Elastic.CourtIndex, "LAWGPT_ES_COURT_INDEX")
	setString(&cfg.Elastic.AnalyticsIndex, "LAWGPT_ES_ANALYTICS_INDEX")
	setString(&cfg.OpenRouter.URL, "OPENROUTER_URL")
	setString(&cfg.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "LAWGPT_LLM_MODEL")
	setDuration(&cfg.OpenRouter.Timeout, "LAWGPT_LLM_TIMEOUT")
	setString(&cfg.WebSearch.APIKey, "GOOGLE_SEARCH_API_KEY")
	setString(&cfg.WebSearch.CX, "GOOGLE_SEARCH_CX")
	setString(&cfg.Logging.Level, "LAWGPT_LOG_LEVEL")
	setString(&cfg.Logging.Service, "LAWGPT_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "LAWGPT_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "LAWGPT_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Cooldown, "LAWGPT_BREAKER_COOLDOWN")
	setInt64(&cfg.Cache.MaxSizeMB, "LAWGPT_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.SnippetTTL, "LAWGPT_CACHE_SNIPPET_TTL")
	setDuration(&cfg.Coordinator.AgentTimeout, "LAWGPT_AGENT_TIMEOUT")
	setInt(&cfg.Coordinator.ClassifyTopN, "LAWGPT_CLASSIFY_TOP_N")
	setInt(&cfg.Coordinator.SynthesizeTopN, "LAWGPT_SYNTHESIZE_TOP_N")
	setInt(&cfg.Coordinator.ClassifyMaxTokens, "LAWGPT_CLASSIFY_MAX_TOKENS")
	setInt(&cfg.Coordinator.AnswerMaxTokens, "LAWGPT_ANSWER_MAX_TOKENS")
	setFloat64(&cfg.Coordinator.Temperature, "LAWGPT_LLM_TEMPERATURE")
	setBool(&cfg.Telemetry.Enabled, "LAWGPT_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "LAWGPT_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if len(cfg.Elastic.Addresses) == 0 {
		return errors.New("elastic.addresses is required")
	}
	if cfg.OpenRouter.URL == "" {
		return errors.New("openrouter.url is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Coordinator.AgentTimeout <= 0 {
		return errors.New("coordinator.agent_timeout must be positive")
	}
	if cfg.Coordinator.Temperature < 0 || cfg.Coordinator.Temperature > 1 {
		return errors.New("coordinator.temperature must be in [0, 1]")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		*dst = parts
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
