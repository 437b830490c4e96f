package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Twitter   TwitterConfig   `mapstructure:"twitter"`
	Community CommunityConfig `mapstructure:"community"`
	Manifest  ManifestConfig  `mapstructure:"manifest"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Roma      RomaConfig      `mapstructure:"roma"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ProviderConfig struct {
	Name             string        `mapstructure:"name"`
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Referer          string        `mapstructure:"referer"`
	Title            string        `mapstructure:"title"`
	Temperature      float64       `mapstructure:"temperature"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	TopP             float64       `mapstructure:"top_p"`
	FrequencyPenalty float64       `mapstructure:"frequency_penalty"`
	PresencePenalty  float64       `mapstructure:"presence_penalty"`
	HistoryLimit     int           `mapstructure:"history_limit"`
}

type DiscordConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ServerID string `mapstructure:"server_id"`
}

type TwitterConfig struct {
	BearerToken string `mapstructure:"bearer_token"`
	APIKey      string `mapstructure:"api_key"`
	APISecret   string `mapstructure:"api_secret"`
	BaseURL     string `mapstructure:"base_url"`
}

type CommunityConfig struct {
	EventsInterval        time.Duration `mapstructure:"events_interval"`
	AnnouncementsInterval time.Duration `mapstructure:"announcements_interval"`
	PostsInterval         time.Duration `mapstructure:"posts_interval"`
}

type ManifestConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Header    string `mapstructure:"header"`
	Payload   string `mapstructure:"payload"`
	Signature string `mapstructure:"signature"`
}

type StorageConfig struct {
	// Backend is one of memory, postgres, redis
	Backend     string `mapstructure:"backend"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// RomaConfig drives the ROMA persona on the shared provider and the ROMA backend checks
type RomaConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

const defaultRomaURL = "http://localhost:8000"

// keys without defaults are invisible to Unmarshal unless bound explicitly
var envOnlyKeys = []string{
	"provider.api_key",
	"provider.base_url",
	"provider.model",
	"discord.bot_token",
	"discord.server_id",
	"twitter.bearer_token",
	"twitter.api_key",
	"twitter.api_secret",
	"twitter.base_url",
	"manifest.base_url",
	"storage.redis_url",
	"database.password",
	"database.dbname",
	"telegram.token",
	"roma.api_key",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("provider.name", "openrouter")
	v.SetDefault("provider.timeout", 60*time.Second)
	v.SetDefault("provider.referer", "http://localhost:3000")
	v.SetDefault("provider.title", "Mawari AI Agent")
	v.SetDefault("provider.temperature", 0.8)
	v.SetDefault("provider.max_tokens", 3072)
	v.SetDefault("provider.top_p", 0.95)
	v.SetDefault("provider.frequency_penalty", 0.05)
	v.SetDefault("provider.presence_penalty", 0.2)
	v.SetDefault("provider.history_limit", 10)

	v.SetDefault("community.events_interval", time.Hour)
	v.SetDefault("community.announcements_interval", 5*time.Minute)
	v.SetDefault("community.posts_interval", 10*time.Minute)

	v.SetDefault("manifest.header", "eyJmaWQiOjY0NTMxMiwidHlwZSI6ImN1c3RvZHkiLCJrZXkiOiIweDBhYTMyMDQ3RTM3MzBBQkNjM2RDZjlGQTcxQzA2RDQ3MEVjOGY1MjYifQ")
	v.SetDefault("manifest.payload", "eyJkb21haW4iOiJtYXdhcmktYWdlbnQudmVyY2VsLmFwcCJ9")
	v.SetDefault("manifest.signature", "87DqCeSjj+zrfJcvNGxH+aKpItODSDOR8zQTWcYzxUdsHsQUu6WI/l7vRa6TtDXdGIfveUajCZtzG+Yrxdxq+Bw=")

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.redis_prefix", "mawari")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("roma.base_url", defaultRomaURL)
	v.SetDefault("roma.timeout", 30*time.Second)
	v.SetDefault("roma.temperature", 0.7)
	v.SetDefault("roma.max_tokens", 1200)
}

// LoadConfig reads an optional YAML file, .env, and the environment.
// A missing file is not an error: every service has a mock or fallback mode.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	applyLegacyEnv(v, &config)
	config.Provider.Name = strings.ToLower(strings.TrimSpace(config.Provider.Name))
	return &config, nil
}

// applyLegacyEnv maps the flat variable names used by earlier deployments
func applyLegacyEnv(v *viper.Viper, c *Config) {
	setIfEmpty := func(dst *string, key string) {
		if *dst == "" {
			*dst = v.GetString(key)
		}
	}

	switch strings.ToLower(c.Provider.Name) {
	case "fireworks":
		setIfEmpty(&c.Provider.APIKey, "FIREWORKS_API_KEY")
		if c.Provider.BaseURL == "" {
			c.Provider.BaseURL = strings.TrimSuffix(strings.TrimRight(v.GetString("FIREWORKS_API_URL"), "/"), "/chat/completions")
		}
	default:
		setIfEmpty(&c.Provider.APIKey, "OPENROUTER_API_KEY")
	}
	setIfEmpty(&c.Provider.Model, "DEFAULT_MODEL")

	setIfEmpty(&c.Discord.BotToken, "DISCORD_BOT_TOKEN")
	setIfEmpty(&c.Discord.ServerID, "DISCORD_SERVER_ID")

	setIfEmpty(&c.Twitter.BearerToken, "TWITTER_BEARER_TOKEN")
	setIfEmpty(&c.Twitter.APIKey, "TWITTER_API_KEY")
	setIfEmpty(&c.Twitter.APISecret, "TWITTER_API_SECRET")

	setIfEmpty(&c.Manifest.BaseURL, "NEXT_PUBLIC_ROOT_URL")
	setIfEmpty(&c.Telegram.Token, "TELEGRAM_TOKEN")
	setIfEmpty(&c.Storage.RedisURL, "REDIS_URL")
	if u := v.GetString("NEXT_PUBLIC_ROMA_API_URL"); u != "" && c.Roma.BaseURL == defaultRomaURL {
		c.Roma.BaseURL = u
	}
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
