package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	OpenAIAPIKey       string   `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel        string   `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL      string   `mapstructure:"OPENAI_BASE_URL"`
	AgentMaxIterations int      `mapstructure:"AGENT_MAX_ITERATIONS"`
	KnownPatientNames  []string `mapstructure:"KNOWN_PATIENT_NAMES"`
	RateLimitRPS       float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit          string   `mapstructure:"BODY_LIMIT"`
}

const defaultKnownPatientNames = "john doe,jane smith,michael patel"

// Load reads the server configuration. Both the database URL and the model
// credentials are required.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads the configuration for operator commands that only touch
// the database, so they run without model credentials.
func LoadDatabase() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("AGENT_MAX_ITERATIONS", 10)
	v.SetDefault("KNOWN_PATIENT_NAMES", defaultKnownPatientNames)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("BODY_LIMIT", "64K")

	// Bind env vars explicitly so Unmarshal picks them up.
	// DB_URL is the name the first prototype used.
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL", "DATABASE_URL", "DB_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("OPENAI_MODEL")
	v.BindEnv("OPENAI_BASE_URL")
	v.BindEnv("AGENT_MAX_ITERATIONS")
	v.BindEnv("KNOWN_PATIENT_NAMES")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("BODY_LIMIT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	// BindEnv aliases only cover the process environment, not .env keys.
	if v.GetString("DATABASE_URL") == "" {
		v.Set("DATABASE_URL", v.GetString("DB_URL"))
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.KnownPatientNames = splitNames(v.GetString("KNOWN_PATIENT_NAMES"))
	return cfg, nil
}

// IsDev reports whether the human readable console log format applies.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.AgentMaxIterations <= 0 {
		return fmt.Errorf("AGENT_MAX_ITERATIONS must be positive, got %d", c.AgentMaxIterations)
	}
	return nil
}

// splitNames parses a comma separated name list into lower-cased, trimmed
// entries, dropping blanks.
func splitNames(raw string) []string {
	var names []string
	for _, n := range strings.Split(raw, ",") {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
