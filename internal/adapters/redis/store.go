package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/dialoguetree/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "dialoguetree:"

// Asset values, the index and locks live under separate sub-namespaces of the prefix,
// so no asset id can collide with the index or a lock key.
const (
	assetSpace = "asset:"
	indexName  = "index"
	lockSpace  = "lock:"
)

// noExpiry is the index score used for assets without a TTL (2100-01-01).
const noExpiry = 4102444800

// Store implements ports.AssetStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for assets.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for assets.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share the connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Prefix returns the key prefix in use.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(assetID string) string {
	return s.prefix + assetSpace + assetID
}

func (s *Store) indexKey() string {
	return s.prefix + indexName
}

// Save persists the asset to Redis and records it in the index.
func (s *Store) Save(ctx context.Context, asset *domain.Asset) error {
	if asset == nil || asset.ID == "" {
		return fmt.Errorf("%w: empty", domain.ErrInvalidAssetID)
	}

	data, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}

	pipe := s.client.Pipeline()

	// A zero ttl means no expiration.
	pipe.Set(ctx, s.key(asset.ID), data, s.ttl)

	// Index score is the expiry time so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}

	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: asset.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves the asset from Redis.
func (s *Store) Load(ctx context.Context, assetID string) (*domain.Asset, error) {
	val, err := s.client.Get(ctx, s.key(assetID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, assetID)
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var asset domain.Asset
	if err := json.Unmarshal([]byte(val), &asset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset: %w", err)
	}

	return &asset, nil
}

// Delete removes the asset and its index entry.
func (s *Store) Delete(ctx context.Context, assetID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(assetID))
	pipe.ZRem(ctx, s.indexKey(), assetID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the ids in the index, pruning entries whose TTL has passed.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired assets: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
