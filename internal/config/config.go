package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Bluesky   BlueskyConfig   `yaml:"bluesky"`
	Slack     SlackConfig     `yaml:"slack"`
	Transcode TranscodeConfig `yaml:"transcode"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host          string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port          int           `yaml:"port" envconfig:"SERVER_PORT" default:"3000"`
	PublicBaseURL string        `yaml:"public_base_url" envconfig:"PUBLIC_BASE_URL"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"5m"`
}

// StorageConfig holds filesystem storage configuration.
type StorageConfig struct {
	VideoPath        string `yaml:"video_path" envconfig:"STORAGE_PATH" default:"/data/videos"`
	InstallationPath string `yaml:"installation_path" envconfig:"INSTALLATION_DB_PATH" default:"/data/slack_installations.db"`
}

// BlueskyConfig holds microblog platform configuration.
type BlueskyConfig struct {
	APIBaseURL       string        `yaml:"api_base_url" envconfig:"BLUESKY_API_BASE_URL" default:"https://public.api.bsky.app"`
	SupportedDomains []string      `yaml:"supported_domains" envconfig:"SUPPORTED_DOMAINS" default:"bsky.app,blacksky.community"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"BLUESKY_TIMEOUT" default:"30s"`
}

// SlackConfig holds chat platform configuration.
type SlackConfig struct {
	BotToken           string   `yaml:"bot_token" envconfig:"SLACK_BOT_TOKEN"`
	AppToken           string   `yaml:"app_token" envconfig:"SLACK_APP_TOKEN"`
	ClientID           string   `yaml:"client_id" envconfig:"SLACK_CLIENT_ID"`
	ClientSecret       string   `yaml:"client_secret" envconfig:"SLACK_CLIENT_SECRET"`
	ApprovedWorkspaces []string `yaml:"approved_workspaces" envconfig:"APPROVED_WORKSPACES"`
}

// TranscodeConfig holds video transcode configuration.
type TranscodeConfig struct {
	Timeout          time.Duration `yaml:"timeout" envconfig:"TRANSCODE_TIMEOUT" default:"300s"`
	ThumbnailTimeout time.Duration `yaml:"thumbnail_timeout" envconfig:"THUMBNAIL_TIMEOUT" default:"30s"`
	ThumbnailWidth   int           `yaml:"thumbnail_width" envconfig:"THUMBNAIL_WIDTH" default:"640"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if c.Slack.AppToken == "" {
		return fmt.Errorf("SLACK_APP_TOKEN is required")
	}
	if c.Server.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is required")
	}
	if c.Storage.VideoPath == "" {
		return fmt.Errorf("STORAGE_PATH is required")
	}
	if len(c.Bluesky.SupportedDomains) == 0 {
		return fmt.Errorf("SUPPORTED_DOMAINS must list at least one domain")
	}
	c.Server.PublicBaseURL = strings.TrimRight(c.Server.PublicBaseURL, "/")
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
