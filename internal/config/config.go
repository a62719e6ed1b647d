// Package config carrega a configuração do processo a partir de variáveis de
// ambiente (e de um .env opcional) via viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"proof-gateway/internal/axiom"
)

type Config struct {
	ListenAddr string

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	CompletionTimeout time.Duration
	CompletionRPS     float64
	CompletionBurst   int

	RateEnabled      bool
	RateLimit        int
	RateWindow       time.Duration
	RateKeyHeader    string
	TrustXFF         bool
	AddHeaders       bool
	RateJanitorEvery time.Duration
	RateFailOpen     bool

	RateRedisAddr     string
	RateRedisPassword string
	RateRedisDB       int
	RateRedisPrefix   string

	RateStatsEnabled   bool
	RateStatsBackend   string // memory|redis
	RateStatsPrefix    string
	RateStatsTTL       time.Duration
	RateStatsBucket    string
	RateStatsTrackKeys bool

	ConcurrencyMax     int
	ConcurrencyTimeout time.Duration

	AxiomBaseURL      string
	AxiomSets         map[string]string
	AxiomFetchTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// New devolve um viper com os defaults e os nomes de env já ligados.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("LISTEN_ADDR", ":8000")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("COMPLETION_TIMEOUT", "0s")
	v.SetDefault("COMPLETION_RPS", 0.0)
	v.SetDefault("COMPLETION_BURST", 1)

	v.SetDefault("RATE_ENABLED", true)
	v.SetDefault("RATE_LIMIT", 10)
	v.SetDefault("RATE_WINDOW", "24h")
	v.SetDefault("RATE_KEY_HEADER", "")
	v.SetDefault("TRUST_XFF", false)
	v.SetDefault("ADD_RATELIMIT_HEADERS", true)
	v.SetDefault("RATE_JANITOR_EVERY", "10m")
	v.SetDefault("RATE_FAIL_OPEN", true)

	v.SetDefault("RATE_REDIS_ADDR", "")
	v.SetDefault("RATE_REDIS_PASSWORD", "")
	v.SetDefault("RATE_REDIS_DB", 0)
	v.SetDefault("RATE_REDIS_PREFIX", "proof:ratelimit:window")

	v.SetDefault("RATE_STATS_ENABLED", false)
	v.SetDefault("RATE_STATS_BACKEND", "memory")
	v.SetDefault("RATE_STATS_PREFIX", "proof:ratelimit:stats")
	v.SetDefault("RATE_STATS_TTL", "168h")
	v.SetDefault("RATE_STATS_BUCKET", "hour")
	v.SetDefault("RATE_STATS_TRACK_KEYS", false)

	v.SetDefault("CONCURRENCY_MAX", 100)
	v.SetDefault("CONCURRENCY_TIMEOUT", "0s")

	v.SetDefault("AXIOM_BASE_URL", axiom.DefaultBaseURL)
	v.SetDefault("AXIOM_SETS", "")
	v.SetDefault("AXIOM_FETCH_TIMEOUT", "10s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OPENAI_API_KEY", "")

	v.AutomaticEnv()
	return v
}

// ReadDotEnv carrega um arquivo .env se existir. Env do processo tem precedência.
func ReadDotEnv(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// Load lê e valida. As mensagens citam o nome da variável de ambiente.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		ListenAddr: strings.TrimSpace(v.GetString("LISTEN_ADDR")),

		OpenAIAPIKey:      strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		OpenAIBaseURL:     strings.TrimSpace(v.GetString("OPENAI_BASE_URL")),
		OpenAIModel:       strings.TrimSpace(v.GetString("OPENAI_MODEL")),
		CompletionTimeout: v.GetDuration("COMPLETION_TIMEOUT"),
		CompletionRPS:     v.GetFloat64("COMPLETION_RPS"),
		CompletionBurst:   v.GetInt("COMPLETION_BURST"),

		RateEnabled:      v.GetBool("RATE_ENABLED"),
		RateLimit:        v.GetInt("RATE_LIMIT"),
		RateWindow:       v.GetDuration("RATE_WINDOW"),
		RateKeyHeader:    strings.TrimSpace(v.GetString("RATE_KEY_HEADER")),
		TrustXFF:         v.GetBool("TRUST_XFF"),
		AddHeaders:       v.GetBool("ADD_RATELIMIT_HEADERS"),
		RateJanitorEvery: v.GetDuration("RATE_JANITOR_EVERY"),
		RateFailOpen:     v.GetBool("RATE_FAIL_OPEN"),

		RateRedisAddr:     strings.TrimSpace(v.GetString("RATE_REDIS_ADDR")),
		RateRedisPassword: v.GetString("RATE_REDIS_PASSWORD"),
		RateRedisDB:       v.GetInt("RATE_REDIS_DB"),
		RateRedisPrefix:   v.GetString("RATE_REDIS_PREFIX"),

		RateStatsEnabled:   v.GetBool("RATE_STATS_ENABLED"),
		RateStatsBackend:   strings.ToLower(strings.TrimSpace(v.GetString("RATE_STATS_BACKEND"))),
		RateStatsPrefix:    v.GetString("RATE_STATS_PREFIX"),
		RateStatsTTL:       v.GetDuration("RATE_STATS_TTL"),
		RateStatsBucket:    v.GetString("RATE_STATS_BUCKET"),
		RateStatsTrackKeys: v.GetBool("RATE_STATS_TRACK_KEYS"),

		ConcurrencyMax:     v.GetInt("CONCURRENCY_MAX"),
		ConcurrencyTimeout: v.GetDuration("CONCURRENCY_TIMEOUT"),

		AxiomBaseURL:      strings.TrimSpace(v.GetString("AXIOM_BASE_URL")),
		AxiomFetchTimeout: v.GetDuration("AXIOM_FETCH_TIMEOUT"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	sets, err := axiom.ParseOverrides(v.GetString("AXIOM_SETS"))
	if err != nil {
		return Config{}, fmt.Errorf("AXIOM_SETS: %w", err)
	}
	cfg.AxiomSets = sets

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR is required")
	}
	if c.RateLimit <= 0 {
		return errors.New("RATE_LIMIT must be > 0")
	}
	if c.RateWindow <= 0 {
		return errors.New("RATE_WINDOW must be > 0")
	}
	if c.RateJanitorEvery < 0 {
		return errors.New("RATE_JANITOR_EVERY must be >= 0")
	}
	if c.CompletionRPS < 0 {
		return errors.New("COMPLETION_RPS must be >= 0")
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	switch c.RateStatsBackend {
	case "memory":
	case "redis":
		if c.RateStatsEnabled && c.RateRedisAddr == "" {
			return errors.New("RATE_REDIS_ADDR is required when RATE_STATS_BACKEND=redis")
		}
	default:
		return fmt.Errorf("RATE_STATS_BACKEND must be memory or redis, got %q", c.RateStatsBackend)
	}
	return nil
}

// UsesRedis indica se algum componente precisa do cliente Redis.
func (c Config) UsesRedis() bool {
	if c.RateRedisAddr == "" {
		return false
	}
	return c.RateEnabled || (c.RateStatsEnabled && c.RateStatsBackend == "redis")
}
