package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "dialoguetree.yaml"

// PostgresDSNEnv supplies the postgres DSN when the file does not.
const PostgresDSNEnv = "DIALOGUETREE_POSTGRES_DSN"

// EncryptionKeyEnv supplies the at-rest encryption key when the file does not.
const EncryptionKeyEnv = "DIALOGUETREE_ENCRYPTION_KEY"

// Store kinds.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreLoam     = "loam"
)

// Config is the whole application configuration.
type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	Store    StoreConfig  `mapstructure:"store"`
	Server   ServerConfig `mapstructure:"server"`
	Layout   LayoutConfig `mapstructure:"layout"`
}

// StoreConfig selects and configures the asset backend.
type StoreConfig struct {
	Kind     string         `mapstructure:"kind"`
	Dir      string         `mapstructure:"dir"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	// Encryption enables AES-GCM encryption of stored assets.
	Encryption EncryptionConfig `mapstructure:"encryption"`
}

// EncryptionConfig holds base64 encoded 32-byte keys. An empty Key disables encryption.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	// Lock enables distributed locking of assets across server replicas.
	Lock bool `mapstructure:"lock"`
}

type PostgresConfig struct {
	DSN          string `mapstructure:"dsn"`
	CreateSchema bool   `mapstructure:"create_schema"`
}

// ServerConfig configures `serve`.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
}

// LayoutConfig overrides the node layout.
type LayoutConfig struct {
	NodeWidth  float64 `mapstructure:"node_width"`
	NodeHeight float64 `mapstructure:"node_height"`
	PlugHeight float64 `mapstructure:"plug_height"`
	PlugGap    float64 `mapstructure:"plug_gap"`
}

// Domain converts the config into a domain layout.
func (l LayoutConfig) Domain() domain.Layout {
	return domain.Layout{
		Base:       domain.Vector2{X: l.NodeWidth, Y: l.NodeHeight},
		PlugHeight: l.PlugHeight,
		PlugGap:    l.PlugGap,
	}
}

// Default returns the configuration used when no file is present.
func Default() Config {
	layout := domain.DefaultLayout()
	return Config{
		LogLevel: "info",
		Store: StoreConfig{
			Kind: StoreFile,
			Dir:  filepath.Join(".dialoguetree", "assets"),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "dialoguetree:",
			},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			LockTTL:         30 * time.Second,
		},
		Layout: LayoutConfig{
			NodeWidth:  layout.Base.X,
			NodeHeight: layout.Base.Y,
			PlugHeight: layout.PlugHeight,
			PlugGap:    layout.PlugGap,
		},
	}
}

// Load reads a YAML or JSON config file over the defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.finish()
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.finish()
}

// Decode applies raw values onto cfg. Strings are accepted for numbers, booleans
// and durations ("30s").
func Decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

func (c *Config) finish() error {
	if c.Store.Postgres.DSN == "" {
		c.Store.Postgres.DSN = os.Getenv(PostgresDSNEnv)
	}
	if c.Store.Encryption.Key == "" {
		c.Store.Encryption.Key = os.Getenv(EncryptionKeyEnv)
	}
	return c.Validate()
}

// Validate rejects unknown store kinds and impossible layouts.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis, StorePostgres, StoreLoam:
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Store.Kind == StoreLoam && c.Store.Encryption.Key != "" {
		return fmt.Errorf("encryption is not supported by the read-only %s store", StoreLoam)
	}
	if c.Layout.NodeHeight <= 0 || c.Layout.PlugHeight < 0 || c.Layout.PlugGap < 0 {
		return fmt.Errorf("invalid layout %+v", c.Layout)
	}
	return nil
}
