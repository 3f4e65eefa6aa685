package configuration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "CHATAPP_"

var ErrMissingSecret = errors.New("auth.secret is required")

type MongoConfig struct {
	Uri                     string `json:"uri" env:"URI"`
	Database                string `json:"database" env:"DATABASE"`
	MessagesCollection      string `json:"messagesCollection" env:"MESSAGES_COLLECTION"`
	ConversationsCollection string `json:"conversationsCollection" env:"CONVERSATIONS_COLLECTION"`
	UsersCollection         string `json:"usersCollection" env:"USERS_COLLECTION"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port" env:"APP_PORT"`
	SocketPort     int      `json:"socket_port" env:"SOCKET_PORT"`
	AllowedOrigins []string `json:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type AuthConfig struct {
	Secret             string `json:"secret" env:"SECRET"`
	Issuer             string `json:"issuer" env:"ISSUER"`
	TokenDurationHours int    `json:"token_duration_hours" env:"TOKEN_DURATION_HOURS"`
}

type HubConfig struct {
	SendBuffer       int `json:"send_buffer" env:"SEND_BUFFER"`
	SendTimeoutMs    int `json:"send_timeout_ms" env:"SEND_TIMEOUT_MS"`
	TypingThrottleMs int `json:"typing_throttle_ms" env:"TYPING_THROTTLE_MS"`
	ReapBuffer       int `json:"reap_buffer" env:"REAP_BUFFER"`
}

type LogConfig struct {
	Level       string `json:"level" env:"LEVEL"`
	Development bool   `json:"development" env:"DEVELOPMENT"`
}

type Config struct {
	ChatDatabase MongoConfig  `json:"mongo" envPrefix:"MONGO_"`
	Server       ServerConfig `json:"server" envPrefix:"SERVER_"`
	Auth         AuthConfig   `json:"auth" envPrefix:"AUTH_"`
	Hub          HubConfig    `json:"hub" envPrefix:"HUB_"`
	Log          LogConfig    `json:"log" envPrefix:"LOG_"`
}

// UseMemoryStore reports whether no Mongo URI was configured.
func (c *Config) UseMemoryStore() bool {
	return c.ChatDatabase.Uri == ""
}

func (c *Config) TokenDuration() time.Duration {
	return time.Duration(c.Auth.TokenDurationHours) * time.Hour
}

func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Hub.SendTimeoutMs) * time.Millisecond
}

func (c *Config) TypingThrottle() time.Duration {
	return time.Duration(c.Hub.TypingThrottleMs) * time.Millisecond
}

// ConfigPath returns CHATAPP_CONFIG_PATH or the development file.
func ConfigPath() (string, error) {
	var locator struct {
		Path string `env:"CHATAPP_CONFIG_PATH" envDefault:"config/config.dev.json"`
	}
	if err := env.Parse(&locator); err != nil {
		return "", fmt.Errorf("parse env: %w", err)
	}
	return locator.Path, nil
}

// LoadConfig reads the JSON file at config_path and applies CHATAPP_*
// environment overrides on top of it.
func LoadConfig(config_path string) (*Config, error) {
	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", config_path, err)
	}

	if err := env.ParseWithOptions(&config, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.AppPort == 0 {
		c.Server.AppPort = 8080
	}
	if c.Server.SocketPort == 0 {
		c.Server.SocketPort = 8081
	}
	if c.ChatDatabase.MessagesCollection == "" {
		c.ChatDatabase.MessagesCollection = "messages"
	}
	if c.ChatDatabase.ConversationsCollection == "" {
		c.ChatDatabase.ConversationsCollection = "conversations"
	}
	if c.ChatDatabase.UsersCollection == "" {
		c.ChatDatabase.UsersCollection = "users"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return ErrMissingSecret
	}
	if !c.UseMemoryStore() && c.ChatDatabase.Database == "" {
		return errors.New("mongo.database is required when mongo.uri is set")
	}
	return nil
}
