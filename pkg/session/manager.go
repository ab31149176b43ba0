package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/dialoguetree"
	"github.com/aretw0/dialoguetree/internal/logging"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
	"github.com/aretw0/dialoguetree/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold an asset.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to assets, ensuring edits to one asset never interleave.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.AssetStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker      ports.DistributedLocker // Optional distributed locker
	lockTTL     time.Duration
	logger      *slog.Logger
	builderOpts []dialoguetree.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithBuilderOptions passes options (metrics, layout) to every AssetBuilder the
// Manager creates.
func WithBuilderOptions(opts ...dialoguetree.Option) Option {
	return func(m *Manager) {
		m.builderOpts = append(m.builderOpts, opts...)
	}
}

// NewManager creates a new Manager over the given store.
func NewManager(store ports.AssetStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(assetID) after unlocking.
func (m *Manager) acquire(assetID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[assetID]
	if !exists {
		entry = &lockEntry{}
		m.locks[assetID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(assetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[assetID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, assetID)
	}
}

func (m *Manager) builder(assetID string) *dialoguetree.AssetBuilder {
	opts := append([]dialoguetree.Option{
		dialoguetree.WithStore(m.store),
		dialoguetree.WithLogger(m.logger),
	}, m.builderOpts...)
	return dialoguetree.New(assetID, opts...)
}

// Load retrieves an asset from the store.
func (m *Manager) Load(ctx context.Context, assetID string) (*domain.Asset, error) {
	var asset *domain.Asset
	err := m.WithLock(ctx, assetID, func(ctx context.Context) error {
		var err error
		asset, err = m.store.Load(ctx, assetID)
		return err
	})
	return asset, err
}

// Import decodes an authoring stream, recompiles the runtime form and stores both
// under assetID. Nothing is stored if the stream is rejected.
func (m *Manager) Import(ctx context.Context, assetID, authoringData string) (*domain.Asset, error) {
	var asset *domain.Asset
	err := m.WithLock(ctx, assetID, func(ctx context.Context) error {
		b := m.builder(assetID)
		if err := b.Open(&domain.Asset{ID: assetID, AuthoringData: authoringData}); err != nil {
			return err
		}
		var err error
		asset, err = b.Save(ctx)
		return err
	})
	return asset, err
}

// Edit loads the graph of assetID (an empty graph if the asset does not exist yet),
// applies fn and saves the result. If fn fails nothing is saved.
func (m *Manager) Edit(ctx context.Context, assetID string, fn func(*graph.Model) error) (*domain.Asset, error) {
	var asset *domain.Asset
	err := m.WithLock(ctx, assetID, func(ctx context.Context) error {
		b := m.builder(assetID)
		if err := b.Load(ctx); err != nil && !errors.Is(err, domain.ErrAssetNotFound) {
			return err
		}
		if err := fn(b.Model()); err != nil {
			return err
		}
		var err error
		asset, err = b.Save(ctx)
		return err
	})
	return asset, err
}

// Delete removes the asset from the store.
func (m *Manager) Delete(ctx context.Context, assetID string) error {
	return m.WithLock(ctx, assetID, func(ctx context.Context) error {
		return m.store.Delete(ctx, assetID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying asset store.
func (m *Manager) Store() ports.AssetStore {
	return m.store
}

// WithLock executes a function while holding the lock for the asset.
func (m *Manager) WithLock(ctx context.Context, assetID string, fn func(context.Context) error) error {
	entry := m.acquire(assetID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(assetID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, assetID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"asset", assetID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
