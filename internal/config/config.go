package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBaseURL points at the production API host.
const DefaultBaseURL = "https://tripletex.no/v2"

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	Tripletex   TripletexConfig
	Session     SessionConfig
	HTTP        HTTPConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type TripletexConfig struct {
	ConsumerToken string
	EmployeeToken string
	CompanyID     string
	BaseURL       string
}

type SessionConfig struct {
	TTL             time.Duration
	RefreshMargin   time.Duration
	RefreshInterval time.Duration
}

// HTTPConfig configures the optional status server.
type HTTPConfig struct {
	Enabled      bool
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ProbeInterval paces upstream reachability checks. Zero disables them.
	ProbeInterval time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally from an
// env file, ".env" when envFile is empty) and applies defaults. Missing
// upstream tokens are not reported here; they fail the first session exchange.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		_ = godotenv.Load(".env")
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg := &Config{
		AppName:     getString("APP_NAME", "tripletex-mcp"),
		Environment: getString("APP_ENV", "development"),
		Tripletex: TripletexConfig{
			ConsumerToken: os.Getenv("TRIPLETEX_CONSUMER_TOKEN"),
			EmployeeToken: os.Getenv("TRIPLETEX_EMPLOYEE_TOKEN"),
			CompanyID:     getString("TRIPLETEX_COMPANY_ID", "0"),
			BaseURL:       getString("TRIPLETEX_BASE_URL", DefaultBaseURL),
		},
		Session: SessionConfig{
			TTL:             getDuration("SESSION_TTL", 24*time.Hour),
			RefreshMargin:   getDuration("SESSION_REFRESH_MARGIN", 10*time.Minute),
			RefreshInterval: getDuration("SESSION_REFRESH_INTERVAL", 0),
		},
		HTTP: HTTPConfig{
			Enabled:       getBool("STATUS_SERVER_ENABLED", false),
			Host:          getString("SERVER_HOST", "127.0.0.1"),
			Port:          getString("SERVER_PORT", "8089"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ProbeInterval: getDuration("UPSTREAM_PROBE_INTERVAL", time.Minute),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 30*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.Session.TTL)
	}
	if cfg.Session.RefreshMargin >= cfg.Session.TTL {
		return nil, fmt.Errorf("SESSION_REFRESH_MARGIN (%s) must be shorter than SESSION_TTL (%s)",
			cfg.Session.RefreshMargin, cfg.Session.TTL)
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad(envFile string) *Config {
	cfg, err := Load(envFile)
	if err != nil {
		panic(err)
	}
	return cfg
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the listen address for the status server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
