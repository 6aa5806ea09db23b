package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Tools   ToolsConfig   `yaml:"tools"`
	Tokens  TokensConfig  `yaml:"tokens"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT" default:"8077"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"5m"`
}

// StorageConfig holds temp-file storage configuration.
type StorageConfig struct {
	// TempPath is the shared directory for remux work files. Entries never
	// collide across requests: names derive from source hash + timestamp.
	TempPath string        `yaml:"temp_path" envconfig:"STORAGE_TEMP_PATH"`
	HookTTL  time.Duration `yaml:"hook_ttl" envconfig:"STORAGE_HOOK_TTL" default:"5m"`
}

// ProxyConfig holds the optional SOCKS5 proxy used for region-locked platforms.
type ProxyConfig struct {
	Hostname string `yaml:"hostname" envconfig:"PROXY_HOSTNAME"`
	Port     int    `yaml:"port" envconfig:"PROXY_PORT"`
}

// ViewerConfig holds the external image-viewer URL template. __LINK__,
// __HEADERS__ and __PROXY__ placeholders are substituted per media item.
type ViewerConfig struct {
	URLTemplate string `yaml:"url_template" envconfig:"VIEWER_URL_TEMPLATE"`
}

// ToolsConfig holds paths to the external binaries the resolver shells out to.
type ToolsConfig struct {
	FFmpegPath         string        `yaml:"ffmpeg_path" envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	YtdlpPath          string        `yaml:"ytdlp_path" envconfig:"YTDLP_PATH" default:"yt-dlp"`
	TwitterScraperPath string        `yaml:"twitter_scraper_path" envconfig:"TWITTER_SCRAPER_PATH"`
	TwitterCookiesPath string        `yaml:"twitter_cookies_path" envconfig:"TWITTER_COOKIES_PATH"`
	ExecTimeout        time.Duration `yaml:"exec_timeout" envconfig:"TOOLS_EXEC_TIMEOUT" default:"3m"`
}

// TokensConfig holds per-platform credentials. Every field is optional;
// a missing credential degrades only its own platform.
type TokensConfig struct {
	InstagramCookie      string `yaml:"instagram_cookie" envconfig:"INSTAGRAM_COOKIE"`
	InstagramCookiesFile string `yaml:"instagram_cookies_file" envconfig:"INSTAGRAM_COOKIES_FILE"`
	JoyreactorCookie     string `yaml:"joyreactor_cookie" envconfig:"JOYREACTOR_COOKIE"`
	KemonoCookie         string `yaml:"kemono_cookie" envconfig:"KEMONO_COOKIE"`
	TumblrAPIKey         string `yaml:"tumblr_api_key" envconfig:"TUMBLR_API_KEY"`
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

	if cfg.Storage.TempPath == "" {
		cfg.Storage.TempPath = os.TempDir()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Storage.TempPath == "" {
		return fmt.Errorf("STORAGE_TEMP_PATH is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a SOCKS5 proxy is configured.
func (c *ProxyConfig) Enabled() bool {
	return c.Hostname != "" && c.Port > 0
}

// Addr returns the proxy address in host:port format.
func (c *ProxyConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.Port)
}
