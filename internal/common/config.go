package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Logging     LoggingConfig  `toml:"logging"`
	Snapchat    SnapchatConfig `toml:"snapchat"`
	Auth        AuthConfig     `toml:"auth"`
	Bulk        BulkConfig     `toml:"bulk"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// SnapchatConfig contains the Marketing API endpoints and transport policy
type SnapchatConfig struct {
	AdsBaseURL     string        `toml:"ads_base_url"`    // Ads API base URL
	AuthURL        string        `toml:"auth_url"`        // OAuth authorize endpoint
	TokenURL       string        `toml:"token_url"`       // OAuth token endpoint
	RequestTimeout time.Duration `toml:"request_timeout"` // Per-attempt HTTP timeout
	MaxRetries     int           `toml:"max_retries"`     // Retries on transient transport/5xx failures
	BackoffBase    time.Duration `toml:"backoff_base"`    // Exponential backoff base (base * 2^attempt)
	RateLimit      int           `toml:"rate_limit"`      // Max API requests per second
}

// AuthConfig contains credential storage and OAuth client settings
type AuthConfig struct {
	TokenFile    string `toml:"token_file"`    // Path to the persisted credential record (JSON)
	ClientID     string `toml:"client_id"`     // OAuth client id (fallback when token file has none)
	ClientSecret string `toml:"client_secret"` // OAuth client secret
	RedirectURL  string `toml:"redirect_url"`  // OAuth callback URL
}

// BulkConfig contains operational knobs for the bulk-creation pipeline.
// Job-level settings (totals, budgets, targeting) live on the job spec.
type BulkConfig struct {
	UploadRetries      int           `toml:"upload_retries"`        // Attempts per media item before moving on
	UploadRetryPause   time.Duration `toml:"upload_retry_pause"`    // Pause between upload attempts
	SquadCreatePause   time.Duration `toml:"squad_create_pause"`    // Pause between ad squad creations
	AdCreatePause      time.Duration `toml:"ad_create_pause"`       // Pause between ad creations
	MediaNotReadyPause time.Duration `toml:"media_not_ready_pause"` // Back-off when the platform reports media still processing
	MediaSampleSize    int           `toml:"media_sample_size"`     // Max media ids sampled in the readiness check
	MediaWaitTimeout   time.Duration `toml:"media_wait_timeout"`    // Cap for per-media readiness waits
	MediaPollInterval  time.Duration `toml:"media_poll_interval"`   // Interval between media status polls
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in adlaunch.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Snapchat: SnapchatConfig{
			AdsBaseURL:     "https://adsapi.snapchat.com/v1",
			AuthURL:        "https://accounts.snapchat.com/login/oauth2/authorize",
			TokenURL:       "https://accounts.snapchat.com/login/oauth2/access_token",
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			BackoffBase:    1 * time.Second,
			RateLimit:      10,
		},
		Auth: AuthConfig{
			TokenFile: "./snapchat_tokens.json",
		},
		Bulk: BulkConfig{
			UploadRetries:      3,
			UploadRetryPause:   1 * time.Second,
			SquadCreatePause:   100 * time.Millisecond,
			AdCreatePause:      20 * time.Millisecond,
			MediaNotReadyPause: 2 * time.Second,
			MediaSampleSize:    50,
			MediaWaitTimeout:   120 * time.Second,
			MediaPollInterval:  10 * time.Second,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ADLAUNCH_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("ADLAUNCH_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("ADLAUNCH_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("ADLAUNCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("ADLAUNCH_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("ADLAUNCH_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Snapchat API configuration
	if baseURL := os.Getenv("ADLAUNCH_SNAPCHAT_ADS_BASE_URL"); baseURL != "" {
		config.Snapchat.AdsBaseURL = baseURL
	}
	if tokenURL := os.Getenv("ADLAUNCH_SNAPCHAT_TOKEN_URL"); tokenURL != "" {
		config.Snapchat.TokenURL = tokenURL
	}
	if timeout := os.Getenv("ADLAUNCH_SNAPCHAT_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			config.Snapchat.RequestTimeout = t
		}
	}
	if retries := os.Getenv("ADLAUNCH_SNAPCHAT_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.Snapchat.MaxRetries = r
		}
	}
	if rateLimit := os.Getenv("ADLAUNCH_SNAPCHAT_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.Snapchat.RateLimit = rl
		}
	}

	// Auth configuration
	if tokenFile := os.Getenv("ADLAUNCH_AUTH_TOKEN_FILE"); tokenFile != "" {
		config.Auth.TokenFile = tokenFile
	}
	if clientID := os.Getenv("ADLAUNCH_AUTH_CLIENT_ID"); clientID != "" {
		config.Auth.ClientID = clientID
	}
	if clientSecret := os.Getenv("ADLAUNCH_AUTH_CLIENT_SECRET"); clientSecret != "" {
		config.Auth.ClientSecret = clientSecret
	}
	if redirectURL := os.Getenv("ADLAUNCH_AUTH_REDIRECT_URL"); redirectURL != "" {
		config.Auth.RedirectURL = redirectURL
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
