// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	APIKey         string        `yaml:"api_key"`    // X-API-Key guard; empty disables it
	JWTSecret      string        `yaml:"jwt_secret"` // HS256 secret for user bearer tokens
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// upload caps in MiB; guests get the smaller one
	MaxUploadGuestMB int `yaml:"max_upload_guest_mb"`
	MaxUploadUserMB  int `yaml:"max_upload_user_mb"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type QueueConfig struct {
	Backend           string        `yaml:"backend"` // redis | postgres | memory
	Workers           int           `yaml:"workers"`
	PollInterval      time.Duration `yaml:"poll_interval"`      // postgres claim polling
	BlockTimeout      time.Duration `yaml:"block_timeout"`      // redis BRPOPLPUSH timeout per round
	VisibilityTimeout time.Duration `yaml:"visibility_timeout"` // postgres: claims older than this are recovered
	RecoverOnStart    bool          `yaml:"recover_on_start"`
	MemoryBuffer      int           `yaml:"memory_buffer"`
}

type AIConfig struct {
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	FastModel       string        `yaml:"fast_model"`
	CapableModel    string        `yaml:"capable_model"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	LocalBaseURL    string        `yaml:"local_base_url"` // OpenAI-compatible endpoint (Ollama /v1)
	LocalModel      string        `yaml:"local_model"`
	LocalAPIKey     string        `yaml:"local_api_key"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent calls per provider
	MaxInputChars   int           `yaml:"max_input_chars"`
	CapableAttempts int           `yaml:"capable_attempts"`
	FastAttempts    int           `yaml:"fast_attempts"`
	BackoffCap      time.Duration `yaml:"backoff_cap"`
	BackoffJitter   time.Duration `yaml:"backoff_jitter"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
}

type CallbackConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Backend       string        `yaml:"backend"` // memory | redis
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"` // 0 disables the background sweeper
	EncryptionKey string        `yaml:"encryption_key"` // 16/24/32 bytes; encrypts redis sessions at rest
}

type GuestConfig struct {
	Backend  string        `yaml:"backend"` // redis | memory
	MaxUsage int           `yaml:"max_usage"`
	Window   time.Duration `yaml:"window"`
}

type StorageConfig struct {
	GCSEnabled bool   `yaml:"gcs_enabled"`
	LocalRoot  string `yaml:"local_root"` // optional; relative refs resolve against it

	CredentialsFile string `yaml:"credentials_file"` // empty: application default credentials
	GCSEndpoint     string `yaml:"gcs_endpoint"`     // emulator endpoint
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Queue    QueueConfig    `yaml:"queue"`
	AI       AIConfig       `yaml:"ai"`
	Callback CallbackConfig `yaml:"callback"`
	Session  SessionConfig  `yaml:"session"`
	Guest    GuestConfig    `yaml:"guest"`
	Storage  StorageConfig  `yaml:"storage"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, expands ${ENV} references,
// applies defaults and validates what the selected backends need.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse is LoadConfig without the file read.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8001
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 2 * time.Minute
	}
	if c.HTTP.MaxUploadGuestMB <= 0 {
		c.HTTP.MaxUploadGuestMB = 5
	}
	if c.HTTP.MaxUploadUserMB <= 0 {
		c.HTTP.MaxUploadUserMB = 7
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}

	c.Queue.Backend = lowerOr(c.Queue.Backend, "redis")
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 4
	}
	if c.Queue.PollInterval <= 0 {
		c.Queue.PollInterval = 500 * time.Millisecond
	}
	if c.Queue.BlockTimeout <= 0 {
		c.Queue.BlockTimeout = 5 * time.Second
	}
	if c.Queue.VisibilityTimeout <= 0 {
		c.Queue.VisibilityTimeout = 15 * time.Minute
	}
	if c.Queue.MemoryBuffer <= 0 {
		c.Queue.MemoryBuffer = 128
	}

	if c.AI.FastModel == "" {
		c.AI.FastModel = "gemini-flash-latest"
	}
	if c.AI.CapableModel == "" {
		c.AI.CapableModel = "gemini-pro-latest"
	}
	if c.AI.LocalModel == "" {
		c.AI.LocalModel = "phi3:mini"
	}
	if c.AI.LocalBaseURL == "" {
		c.AI.LocalBaseURL = "http://localhost:11434/v1"
	}
	if c.AI.ConcurrentLimit <= 0 {
		c.AI.ConcurrentLimit = 16
	}
	if c.AI.MaxInputChars <= 0 {
		c.AI.MaxInputChars = 50000
	}
	if c.AI.CapableAttempts <= 0 {
		c.AI.CapableAttempts = 3
	}
	if c.AI.FastAttempts <= 0 {
		c.AI.FastAttempts = 5
	}
	if c.AI.BackoffCap <= 0 {
		c.AI.BackoffCap = 30 * time.Second
	}
	if c.AI.BackoffJitter < 0 {
		c.AI.BackoffJitter = 0
	} else if c.AI.BackoffJitter == 0 {
		c.AI.BackoffJitter = 500 * time.Millisecond
	}
	if c.AI.CallTimeout <= 0 {
		c.AI.CallTimeout = 2 * time.Minute
	}

	if c.Callback.Timeout <= 0 {
		c.Callback.Timeout = 30 * time.Second
	}

	c.Session.Backend = lowerOr(c.Session.Backend, "memory")
	c.Session.TTL = normalizeTTL(c.Session.TTL)

	c.Guest.Backend = lowerOr(c.Guest.Backend, "redis")
	if c.Guest.MaxUsage <= 0 {
		c.Guest.MaxUsage = 3
	}
	if c.Guest.Window <= 0 {
		c.Guest.Window = 24 * time.Hour
	}
}

func (c *Config) validate() error {
	switch c.Queue.Backend {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("queue.backend %q: want redis|postgres|memory", c.Queue.Backend)
	}
	switch c.Session.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("session.backend %q: want redis|memory", c.Session.Backend)
	}
	if n := len(c.Session.EncryptionKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("session.encryption_key must be 16, 24 or 32 bytes; got %d", n)
	}
	switch c.Guest.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("guest.backend %q: want redis|memory", c.Guest.Backend)
	}
	if c.NeedsRedis() && c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Queue.Backend == "postgres" && c.Database.URL == "" {
		return errors.New("database.url is required for queue.backend=postgres")
	}
	if c.AI.GeminiKey == "" && !c.Runtime.Dev {
		return errors.New("ai.gemini_key is required outside dev mode")
	}
	return nil
}

// NeedsRedis reports whether any configured backend lives in Redis.
func (c *Config) NeedsRedis() bool {
	return c.Queue.Backend == "redis" || c.Session.Backend == "redis" || c.Guest.Backend == "redis"
}

func lowerOr(s, def string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
