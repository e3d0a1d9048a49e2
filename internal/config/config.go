package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultConfigPath      = "config.toml"
	DefaultEnvPath         = ".env"
	DefaultHTTPAddr        = ":8000"
	DefaultJWTExpiresIn    = "720h"
	DefaultPGHost          = "127.0.0.1"
	DefaultPGPort          = 5432
	DefaultPGUser          = "postgres"
	DefaultPGDatabase      = "sitechief"
	DefaultPGSSLMode       = "disable"
	DefaultLLMBaseURL      = "https://api.deepseek.com"
	DefaultLLMModel        = "deepseek-chat"
	DefaultSpeechBaseURL   = "https://api.openai.com/v1"
	DefaultSpeechModel     = "whisper-1"
	DefaultSpeechLanguage  = "tr"
	DefaultVisionModel     = "gpt-4o-mini"
	DefaultGraphBaseURL    = "https://graph.facebook.com"
	DefaultGraphAPIVersion = "v17.0"
	DefaultPersona         = "dayi"
	DefaultTimezone        = "Europe/Istanbul"
	DefaultKeepAliveSpec   = "@every 10m"
	DefaultMediaMaxBytes   = 25 * 1024 * 1024
)

type Config struct {
	Log        LogConfig        `toml:"log"`
	Server     ServerConfig     `toml:"server"`
	Postgres   PostgresConfig   `toml:"postgres"`
	LLM        LLMConfig        `toml:"llm"`
	Speech     SpeechConfig     `toml:"speech"`
	Vision     VisionConfig     `toml:"vision"`
	Media      MediaConfig      `toml:"media"`
	WhatsApp   WhatsAppConfig   `toml:"whatsapp"`
	Dispatcher DispatcherConfig `toml:"dispatcher"`
	Auth       AuthConfig       `toml:"auth"`
	KeepAlive  KeepAliveConfig  `toml:"keepalive"`
	Personas   PersonasConfig   `toml:"personas"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `toml:"format" validate:"omitempty,oneof=text json"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type PostgresConfig struct {
	// URL takes precedence over the discrete fields when set.
	URL      string `toml:"url"`
	Host     string `toml:"host"`
	Port     int    `toml:"port" validate:"omitempty,min=1,max=65535"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// DSN returns a libpq-style connection URL.
func (c PostgresConfig) DSN() string {
	if strings.TrimSpace(c.URL) != "" {
		return strings.TrimSpace(c.URL)
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = DefaultPGSSLMode
	}
	userInfo := c.User
	if c.Password != "" {
		userInfo += ":" + c.Password
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=%s", userInfo, c.Host, c.Port, c.Database, sslMode)
}

type LLMConfig struct {
	BaseURL        string  `toml:"base_url" validate:"omitempty,url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float32 `toml:"temperature" validate:"min=0,max=2"`
	TimeoutSeconds int     `toml:"timeout_seconds" validate:"min=0"`
}

type SpeechConfig struct {
	BaseURL        string `toml:"base_url" validate:"omitempty,url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"min=0"`
}

type VisionConfig struct {
	BaseURL        string `toml:"base_url" validate:"omitempty,url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Prompt         string `toml:"prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"min=0"`
}

type MediaConfig struct {
	// SpoolDir holds downloaded payloads while they are converted. Empty means os.TempDir().
	SpoolDir string `toml:"spool_dir"`
	MaxBytes int64  `toml:"max_bytes" validate:"min=0"`
}

type WhatsAppConfig struct {
	GraphBaseURL   string `toml:"graph_base_url" validate:"omitempty,url"`
	APIVersion     string `toml:"api_version"`
	PhoneID        string `toml:"phone_id"`
	APIToken       string `toml:"api_token"`
	VerifyToken    string `toml:"verify_token"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"min=0"`
}

type DispatcherConfig struct {
	// RequireApproval blocks chat for profiles whose is_approved flag is still false.
	RequireApproval bool     `toml:"require_approval"`
	TriggerKeywords []string `toml:"trigger_keywords"`
	MentionNames    []string `toml:"mention_names"`
	Persona         string   `toml:"persona"`
	Timezone        string   `toml:"timezone"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type KeepAliveConfig struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url" validate:"required_if=Enabled true"`
	Schedule string `toml:"schedule"`
}

type PersonasConfig struct {
	Path string `toml:"path"`
}

// Defaults returns the configuration used when no file or environment is present.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		LLM: LLMConfig{
			BaseURL:        DefaultLLMBaseURL,
			Model:          DefaultLLMModel,
			Temperature:    0.4,
			TimeoutSeconds: 60,
		},
		Speech: SpeechConfig{
			BaseURL:        DefaultSpeechBaseURL,
			Model:          DefaultSpeechModel,
			Language:       DefaultSpeechLanguage,
			TimeoutSeconds: 60,
		},
		Vision: VisionConfig{
			BaseURL:        DefaultSpeechBaseURL,
			Model:          DefaultVisionModel,
			TimeoutSeconds: 60,
		},
		Media: MediaConfig{
			MaxBytes: DefaultMediaMaxBytes,
		},
		WhatsApp: WhatsAppConfig{
			GraphBaseURL:   DefaultGraphBaseURL,
			APIVersion:     DefaultGraphAPIVersion,
			TimeoutSeconds: 20,
		},
		Dispatcher: DispatcherConfig{
			TriggerKeywords: []string{"dayı", "dayi", "şef", "sef", "bot"},
			MentionNames:    []string{"dayı", "dayi", "santiye"},
			Persona:         DefaultPersona,
			Timezone:        DefaultTimezone,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		KeepAlive: KeepAliveConfig{
			Schedule: DefaultKeepAliveSpec,
		},
	}
}

// Load reads the TOML file at path (missing file is fine), then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, err
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvPath
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.LLM.APIKey, "DEEPSEEK_API_KEY", "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")

	setString(&cfg.Postgres.URL, "DATABASE_URL")
	setString(&cfg.Postgres.Password, "SUPABASE_SERVICE_KEY", "POSTGRES_PASSWORD")

	setString(&cfg.Speech.APIKey, "OPENAI_API_KEY", "SPEECH_API_KEY")
	setString(&cfg.Vision.APIKey, "OPENAI_API_KEY", "VISION_API_KEY")

	setString(&cfg.WhatsApp.PhoneID, "WHATSAPP_PHONE_ID")
	setString(&cfg.WhatsApp.APIToken, "WHATSAPP_API_TOKEN")
	setString(&cfg.WhatsApp.VerifyToken, "WHATSAPP_VERIFY_TOKEN")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Server.Addr, "HTTP_ADDR")
	setString(&cfg.KeepAlive.URL, "KEEPALIVE_URL")

	if raw, ok := os.LookupEnv("REQUIRE_APPROVAL"); ok {
		if value, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			cfg.Dispatcher.RequireApproval = value
		}
	}
}

// setString assigns the first non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*dst = value
			return
		}
	}
}
