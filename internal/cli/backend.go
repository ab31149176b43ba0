package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/dialoguetree/internal/adapters/file"
	"github.com/aretw0/dialoguetree/internal/adapters/postgres"
	"github.com/aretw0/dialoguetree/internal/adapters/redis"
	"github.com/aretw0/dialoguetree/internal/config"
	"github.com/aretw0/dialoguetree/pkg/adapters/loam"
	"github.com/aretw0/dialoguetree/pkg/adapters/memory"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/persistence/middleware"
	"github.com/aretw0/dialoguetree/pkg/ports"
)

// ErrReadOnly is returned when a command needs to write to a read-only backend.
var ErrReadOnly = domain.ErrReadOnly

// Backend is the asset backend selected by configuration.
type Backend struct {
	Kind   string
	Loader ports.AssetLoader
	// Store is nil for read-only sources.
	Store ports.AssetStore
	// Locker is set when distributed locking is enabled.
	Locker ports.DistributedLocker

	closers []func() error
}

// RequireStore returns the writable store or ErrReadOnly.
func (b *Backend) RequireStore() (ports.AssetStore, error) {
	if b.Store == nil {
		return nil, fmt.Errorf("%w (%s)", ErrReadOnly, b.Kind)
	}
	return b.Store, nil
}

// SessionStore returns the writable store, or the loader wrapped so that writes fail
// with ErrReadOnly.
func (b *Backend) SessionStore() ports.AssetStore {
	if b.Store != nil {
		return b.Store
	}
	return readOnlyStore{AssetLoader: b.Loader, kind: b.Kind}
}

type readOnlyStore struct {
	ports.AssetLoader
	kind string
}

func (s readOnlyStore) Save(_ context.Context, asset *domain.Asset) error {
	return fmt.Errorf("%w (%s): save %s", ErrReadOnly, s.kind, asset.ID)
}

func (s readOnlyStore) Delete(_ context.Context, id string) error {
	return fmt.Errorf("%w (%s): delete %s", ErrReadOnly, s.kind, id)
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenBackend builds the backend for cfg.Store.
func OpenBackend(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	b := &Backend{Kind: cfg.Kind}

	switch cfg.Kind {
	case config.StoreMemory:
		s := memory.NewStore()
		b.Loader, b.Store = s, s

	case config.StoreFile:
		s := file.New(cfg.Dir)
		b.Loader, b.Store = s, s

	case config.StoreRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		b.Loader, b.Store = s, s
		b.closers = append(b.closers, s.Close)
		if cfg.Redis.Lock {
			b.Locker = redis.NewLocker(s.Client(), s.Prefix())
		}

	case config.StorePostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("postgres store needs a DSN (store.postgres.dsn or %s)", config.PostgresDSNEnv)
		}
		s, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, s.Close)
		if cfg.Postgres.CreateSchema {
			if err := s.CreateSchema(ctx); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("postgres: create schema: %w", err)
			}
		}
		b.Loader, b.Store = s, s

	case config.StoreLoam:
		l, err := loam.Open(cfg.Dir)
		if err != nil {
			return nil, err
		}
		b.Loader = l

	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}

	if cfg.Encryption.Key != "" {
		if err := b.encrypt(cfg.Encryption); err != nil {
			_ = b.Close()
			return nil, err
		}
	}

	logger.Debug("asset backend ready",
		"kind", cfg.Kind,
		"writable", b.Store != nil,
		"locking", b.Locker != nil,
		"encrypted", cfg.Encryption.Key != "",
	)
	return b, nil
}

// encrypt wraps the writable store with at-rest encryption.
func (b *Backend) encrypt(cfg config.EncryptionConfig) error {
	if b.Store == nil {
		return fmt.Errorf("encryption needs a writable store, %s is read-only", b.Kind)
	}
	active, err := decodeKey(cfg.Key)
	if err != nil {
		return fmt.Errorf("encryption key: %w", err)
	}
	encCfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return fmt.Errorf("fallback key %d: %w", i, err)
		}
		encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
	}

	mw, err := middleware.NewEncryptionMiddleware(encCfg)
	if err != nil {
		return err
	}
	b.Store = mw(b.Store)
	b.Loader = b.Store
	return nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	return key, nil
}
