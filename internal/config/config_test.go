package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv(PostgresDSNEnv, "")
	t.Setenv(EncryptionKeyEnv, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, domain.DefaultLayout(), cfg.Layout.Domain())
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "dialoguetree.yaml", `
log_level: debug
store:
  kind: redis
  redis:
    addr: cache:6379
    db: "2"
    ttl: 90m
    lock: "true"
server:
  addr: ":9090"
  shutdown_timeout: 10s
layout:
  plug_gap: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB, "weakly typed input")
	assert.Equal(t, 90*time.Minute, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Store.Redis.Lock)
	assert.Equal(t, "dialoguetree:", cfg.Store.Redis.Prefix, "unset keys keep their default")
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 4.0, cfg.Layout.PlugGap)
	assert.Equal(t, domain.DefaultPlugHeight, cfg.Layout.PlugHeight)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "dialoguetree.json", `{"store": {"kind": "memory"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
}

func TestLoad_PostgresDSNFromEnv(t *testing.T) {
	t.Setenv(PostgresDSNEnv, "postgres://localhost/test")
	path := write(t, "c.yaml", "store:\n  kind: postgres\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/test", cfg.Store.Postgres.DSN)
}

func TestLoad_Encryption(t *testing.T) {
	t.Setenv(EncryptionKeyEnv, "ZnJvbS1lbnY=")
	path := write(t, "c.yaml", "store:\n  encryption:\n    fallback_keys: [b2xk]\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ZnJvbS1lbnY=", cfg.Store.Encryption.Key)
	assert.Equal(t, []string{"b2xk"}, cfg.Store.Encryption.FallbackKeys)

	_, err = Load(write(t, "l.yaml", "store:\n  kind: loam\n"))
	assert.Error(t, err, "a read-only store cannot be encrypted")
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown kind": "store:\n  kind: s3\n",
		"unknown key":  "stroe:\n  kind: file\n",
		"bad duration": "server:\n  shutdown_timeout: soon\n",
		"bad layout":   "layout:\n  node_height: 0\n",
		"bad yaml":     "store: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(write(t, "c.yaml", content))
			assert.Error(t, err)
		})
	}
}
