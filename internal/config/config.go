package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/leonardcser/clockverse/internal/bucket"
	"github.com/leonardcser/clockverse/internal/coordinator"
	"github.com/leonardcser/clockverse/internal/provider"
)

// Cache backends.
const (
	BackendDaemon = "daemon"
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
)

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppAddr string `mapstructure:"APP_ADDR"`
	LogPath string `mapstructure:"CLOCKVERSE_LOG"`

	// --- shared store ---
	CacheBackend  string `mapstructure:"CACHE_BACKEND"`
	CacheSock     string `mapstructure:"CACHE_SOCK"`
	CacheDB       string `mapstructure:"CACHE_DB"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// --- buckets and coordination ---
	BucketWidth     time.Duration `mapstructure:"BUCKET_WIDTH"`
	DataTTL         time.Duration `mapstructure:"DATA_TTL"`
	LockTTL         time.Duration `mapstructure:"LOCK_TTL"`
	KeyPrefix       string        `mapstructure:"KEY_PREFIX"`
	WaitInterval    time.Duration `mapstructure:"WAIT_INTERVAL"`
	WaitMaxInterval time.Duration `mapstructure:"WAIT_MAX_INTERVAL"`
	WaitBudget      time.Duration `mapstructure:"WAIT_BUDGET"`
	ProduceTimeout  time.Duration `mapstructure:"PRODUCE_TIMEOUT"`
	Poets           []string      `mapstructure:"POETS"`
	ServeDefaults   bool          `mapstructure:"SERVE_DEFAULTS"`

	// --- providers ---
	OpenAIAPIKey      string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel       string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL     string `mapstructure:"OPENAI_BASE_URL"`
	PoemFeedURL       string `mapstructure:"POEM_FEED_URL"`
	UnsplashAccessKey string `mapstructure:"UNSPLASH_ACCESS_KEY"`
	UnsplashBaseURL   string `mapstructure:"UNSPLASH_BASE_URL"`
	UnsplashTopics    string `mapstructure:"UNSPLASH_TOPICS"`
	ImagePageURL      string `mapstructure:"IMAGE_PAGE_URL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("CLOCKVERSE_LOG", "")

	v.SetDefault("CACHE_BACKEND", BackendDaemon)
	v.SetDefault("CACHE_SOCK", filepath.Join(cacheDir(), "cache.sock"))
	v.SetDefault("CACHE_DB", filepath.Join(cacheDir(), "cache.bbolt"))
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")

	wait := coordinator.DefaultWait()
	v.SetDefault("BUCKET_WIDTH", bucket.DefaultWidth)
	v.SetDefault("DATA_TTL", 2*bucket.DefaultWidth)
	v.SetDefault("LOCK_TTL", 30*time.Second)
	v.SetDefault("KEY_PREFIX", "verse")
	v.SetDefault("WAIT_INTERVAL", wait.Interval)
	v.SetDefault("WAIT_MAX_INTERVAL", wait.MaxInterval)
	v.SetDefault("WAIT_BUDGET", wait.Budget)
	v.SetDefault("PRODUCE_TIMEOUT", 20*time.Second)
	v.SetDefault("POETS", "Sylvia Plath,Emily Dickinson,Pablo Neruda,Mary Oliver")
	v.SetDefault("SERVE_DEFAULTS", true)

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", provider.DefaultOpenAIModel)
	v.SetDefault("OPENAI_BASE_URL", provider.DefaultOpenAIBaseURL)
	v.SetDefault("POEM_FEED_URL", "")
	v.SetDefault("UNSPLASH_ACCESS_KEY", "")
	v.SetDefault("UNSPLASH_BASE_URL", provider.DefaultUnsplashBaseURL)
	v.SetDefault("UNSPLASH_TOPICS", "M8jVbLbTRws")
	v.SetDefault("IMAGE_PAGE_URL", "")
}

// LoadFromEnv reads .env when present, then the process environment.
func LoadFromEnv() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Poets = trimAll(cfg.Poets)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendDaemon, BackendRedis, BackendBolt:
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.WaitBudget <= 0 {
		return errors.New("config: WAIT_BUDGET must be positive")
	}
	return nil
}

// Policy is the bucket policy described by c.
func (c *Config) Policy() bucket.Policy {
	return bucket.Policy{
		Width:   c.BucketWidth,
		Prefix:  c.KeyPrefix,
		DataTTL: c.DataTTL,
		LockTTL: c.LockTTL,
		Poets:   c.Poets,
	}
}

// Coordinator is the coordinator configuration described by c.
func (c *Config) Coordinator() coordinator.Config {
	return coordinator.Config{
		DataTTL:        c.DataTTL,
		LockTTL:        c.LockTTL,
		Wait:           coordinator.Wait{Interval: c.WaitInterval, MaxInterval: c.WaitMaxInterval, Budget: c.WaitBudget},
		ProduceTimeout: c.ProduceTimeout,
	}
}

func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  AppEnv: %s\n", c.AppEnv)
	fmt.Fprintf(&sb, "  AppAddr: %s\n", c.AppAddr)
	fmt.Fprintf(&sb, "  CacheBackend: %s\n", c.CacheBackend)
	switch c.CacheBackend {
	case BackendRedis:
		fmt.Fprintf(&sb, "  RedisAddr: %s (db %d)\n", c.RedisAddr, c.RedisDB)
		fmt.Fprintf(&sb, "  RedisPassword: %s\n", mask(c.RedisPassword))
	case BackendBolt:
		fmt.Fprintf(&sb, "  CacheDB: %s\n", c.CacheDB)
	default:
		fmt.Fprintf(&sb, "  CacheSock: %s\n", c.CacheSock)
	}
	fmt.Fprintf(&sb, "  Bucket: %s, data ttl %s, lock ttl %s, prefix %q\n", c.BucketWidth, c.DataTTL, c.LockTTL, c.KeyPrefix)
	fmt.Fprintf(&sb, "  Wait: %s..%s within %s\n", c.WaitInterval, c.WaitMaxInterval, c.WaitBudget)
	fmt.Fprintf(&sb, "  Poets: %s\n", strings.Join(c.Poets, ", "))
	fmt.Fprintf(&sb, "  OpenAI: %s %s key %s\n", c.OpenAIBaseURL, c.OpenAIModel, mask(c.OpenAIAPIKey))
	fmt.Fprintf(&sb, "  Unsplash: %s key %s\n", c.UnsplashBaseURL, mask(c.UnsplashAccessKey))
	fmt.Fprintf(&sb, "  PoemFeedURL: %s\n", orEmpty(c.PoemFeedURL))
	fmt.Fprintf(&sb, "  ImagePageURL: %s\n", orEmpty(c.ImagePageURL))
	fmt.Fprintf(&sb, "  ServeDefaults: %v\n", c.ServeDefaults)
	return sb.String()
}

func mask(secret string) string {
	if secret == "" {
		return "(empty)"
	}
	return "********"
}

func orEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cacheDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "clockverse")
}
