package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   string
	Generator GeneratorConfig
	Session   SessionConfig
	Rewards   RewardsConfig
	RabbitMQ  RabbitMQConfig
	JWT       JWTConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type GeneratorConfig struct {
	Provider        string
	Timeout         time.Duration
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	BatchSize       int
}

type SessionConfig struct {
	IdleTTL time.Duration
}

type RewardsConfig struct {
	PerCorrect  int
	StreakBonus int
	Complete    int
	Perfect     int
}

type RabbitMQConfig struct {
	URL             string
	XPQueue         string
	ChallengesQueue string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

const (
	StorageSQL    = "sql"
	StorageMemory = "memory"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderMock      = "mock"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "learnloop")
	v.SetDefault("DB_PASSWORD", "learnloop")
	v.SetDefault("DB_NAME", "learnloop")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "learnloop.db")
	v.SetDefault("STORAGE", StorageSQL)

	v.SetDefault("LLM_PROVIDER", ProviderAnthropic)
	v.SetDefault("MOCK_GENERATOR", false)
	v.SetDefault("GENERATOR_TIMEOUT", "20s")
	v.SetDefault("GENERATOR_BATCH_SIZE", 5)
	v.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")

	v.SetDefault("SESSION_IDLE_TTL", "2h")

	v.SetDefault("XP_PER_CORRECT", 3)
	v.SetDefault("XP_STREAK_BONUS", 5)
	v.SetDefault("XP_COMPLETE", 8)
	v.SetDefault("XP_PERFECT", 10)

	v.SetDefault("RABBITMQ_XP_QUEUE", "engine.xp")
	v.SetDefault("RABBITMQ_CHALLENGES_QUEUE", "engine.challenges")

	v.SetDefault("JWT_SECRET", "dev-secret-change-in-production")
	v.SetDefault("JWT_EXPIRY", "720h")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "logs/engine.log")
}

// Load reads configuration from the environment. If configFile is non-empty
// it is read first and environment variables override it.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	provider := strings.ToLower(v.GetString("LLM_PROVIDER"))
	if v.GetBool("MOCK_GENERATOR") {
		provider = ProviderMock
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			Name:       v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Storage: strings.ToLower(v.GetString("STORAGE")),
		Generator: GeneratorConfig{
			Provider:        provider,
			Timeout:         v.GetDuration("GENERATOR_TIMEOUT"),
			AnthropicAPIKey: v.GetString("ANTHROPIC_API_KEY"),
			AnthropicModel:  v.GetString("ANTHROPIC_MODEL"),
			OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
			OpenAIModel:     v.GetString("OPENAI_MODEL"),
			OpenAIBaseURL:   v.GetString("OPENAI_BASE_URL"),
			BatchSize:       v.GetInt("GENERATOR_BATCH_SIZE"),
		},
		Session: SessionConfig{
			IdleTTL: v.GetDuration("SESSION_IDLE_TTL"),
		},
		Rewards: RewardsConfig{
			PerCorrect:  v.GetInt("XP_PER_CORRECT"),
			StreakBonus: v.GetInt("XP_STREAK_BONUS"),
			Complete:    v.GetInt("XP_COMPLETE"),
			Perfect:     v.GetInt("XP_PERFECT"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             v.GetString("RABBITMQ_URL"),
			XPQueue:         v.GetString("RABBITMQ_XP_QUEUE"),
			ChallengesQueue: v.GetString("RABBITMQ_CHALLENGES_QUEUE"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Expiry: v.GetDuration("JWT_EXPIRY"),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("LOG_LEVEL")),
			File:  v.GetString("LOG_FILE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}
	switch c.Storage {
	case StorageSQL, StorageMemory:
	default:
		return fmt.Errorf("unsupported STORAGE %q (want sql or memory)", c.Storage)
	}
	switch c.Generator.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.Generator.Provider)
	}
	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("GENERATOR_TIMEOUT must be positive, got %s", c.Generator.Timeout)
	}
	if c.Generator.BatchSize <= 0 {
		return fmt.Errorf("GENERATOR_BATCH_SIZE must be positive, got %d", c.Generator.BatchSize)
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive, got %s", c.Session.IdleTTL)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
