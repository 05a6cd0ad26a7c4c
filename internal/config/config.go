package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

type S3 struct {
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	Key             string `toml:"key"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UseSSL          bool   `toml:"use_ssl"`
}

// Config holds the prices server settings.
type Config struct {
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`

	Backend     string `toml:"backend"`
	PricesFile  string `toml:"prices_file"`
	WatchFile   bool   `toml:"watch_prices_file"`
	DatabaseURL string `toml:"database_url"`
	S3          S3     `toml:"s3"`

	StaticDir string `toml:"static_dir"`

	MetricsEnabled bool   `toml:"metrics_enabled"`
	MetricsToken   string `toml:"metrics_token"`

	MutationLimitPerMin int `toml:"mutation_limit_per_min"`
}

func New() *Config {
	return &Config{
		Port:                3000,
		LogLevel:            "info",
		Backend:             BackendFile,
		PricesFile:          "prices.json",
		WatchFile:           true,
		S3:                  S3{Region: "us-east-1", Key: "prices.json", UseSSL: true},
		StaticDir:           ".",
		MetricsEnabled:      true,
		MutationLimitPerMin: 60,
	}
}

// Load applies defaults, then the TOML file at path (a missing file is fine),
// then environment overrides.
func Load(path string) (*Config, error) {
	c := New()
	if err := c.LoadFile(path); err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = b
		return nil
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("PRICES_BACKEND", &c.Backend)
	str("PRICES_FILE", &c.PricesFile)
	str("DATABASE_URL", &c.DatabaseURL)
	str("S3_ENDPOINT", &c.S3.Endpoint)
	str("S3_REGION", &c.S3.Region)
	str("S3_BUCKET", &c.S3.Bucket)
	str("S3_KEY", &c.S3.Key)
	str("S3_ACCESS_KEY_ID", &c.S3.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &c.S3.SecretAccessKey)
	str("STATIC_DIR", &c.StaticDir)
	str("METRICS_TOKEN", &c.MetricsToken)

	if err := boolean("S3_USE_SSL", &c.S3.UseSSL); err != nil {
		return err
	}
	if err := boolean("WATCH_PRICES_FILE", &c.WatchFile); err != nil {
		return err
	}
	if err := boolean("METRICS_ENABLED", &c.MetricsEnabled); err != nil {
		return err
	}

	if err := integer("PORT", &c.Port); err != nil {
		return err
	}
	return integer("MUTATION_LIMIT_PER_MIN", &c.MutationLimitPerMin)
}

func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))

	switch c.Backend {
	case BackendFile:
		if c.PricesFile == "" {
			return errors.New("config: prices_file is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: database_url is required for the postgres backend")
		}
	case BackendS3:
		if c.S3.Bucket == "" || c.S3.Key == "" {
			return errors.New("config: s3 bucket and key are required for the s3 backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
