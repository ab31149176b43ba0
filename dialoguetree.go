package dialoguetree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/dialoguetree/internal/logging"
	"github.com/aretw0/dialoguetree/pkg/authoring"
	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
	"github.com/aretw0/dialoguetree/pkg/ports"
	"github.com/google/uuid"
)

// ErrNoStore is returned by Save and Load when the builder has nowhere to persist to.
var ErrNoStore = errors.New("no asset store configured")

// ErrStaleRuntime is returned by Verify when the runtime stream of an asset is not the
// one its authoring stream compiles to.
var ErrStaleRuntime = errors.New("runtime data out of date")

// AssetBuilder owns the graph of one dialogue asset during an authoring session.
// It compiles the graph into both persisted forms and moves them to and from a store.
//
// An AssetBuilder is not safe for concurrent use; one authoring session edits an asset
// at a time.
type AssetBuilder struct {
	id       string
	model    *graph.Model
	loader   ports.AssetLoader
	store    ports.AssetStore
	observer ports.CompileObserver
	logger   *slog.Logger
	graphOpt []graph.Option
	now      func() time.Time
}

// Option defines a functional option for configuring the AssetBuilder.
type Option func(*AssetBuilder)

// WithStore persists assets to store. The store is also used for loading.
func WithStore(store ports.AssetStore) Option {
	return func(b *AssetBuilder) {
		b.store = store
		b.loader = store
	}
}

// WithLoader loads assets from a read-only source. Save still requires WithStore.
func WithLoader(loader ports.AssetLoader) Option {
	return func(b *AssetBuilder) {
		b.loader = loader
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *AssetBuilder) {
		b.logger = logger
	}
}

// WithMetrics reports every compile to observer.
func WithMetrics(observer ports.CompileObserver) Option {
	return func(b *AssetBuilder) {
		b.observer = observer
	}
}

// WithLayout overrides the node layout used for dimensions.
func WithLayout(layout domain.Layout) Option {
	return func(b *AssetBuilder) {
		b.graphOpt = append(b.graphOpt, graph.WithLayout(layout))
	}
}

// New creates a builder for assetID with an empty graph.
// An empty assetID is replaced by a random UUID.
func New(assetID string, opts ...Option) *AssetBuilder {
	if assetID == "" {
		assetID = uuid.NewString()
	}

	b := &AssetBuilder{
		id:  assetID,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	b.logger = b.logger.With("asset", b.id)
	b.model = graph.New(b.graphOpt...)

	return b
}

// ID returns the asset id.
func (b *AssetBuilder) ID() string {
	return b.id
}

// Model returns the graph being edited.
func (b *AssetBuilder) Model() *graph.Model {
	return b.model
}

// Reset discards the current graph and starts an empty one.
func (b *AssetBuilder) Reset() {
	b.model = graph.New(b.graphOpt...)
}

// Compile validates the graph and encodes its authoring and runtime forms.
func (b *AssetBuilder) Compile() (*domain.Asset, error) {
	start := time.Now()
	err := b.model.Validate()
	if b.observer != nil {
		b.observer.ObserveCompile(b.model.NodeCount(), b.model.ConnectionCount(), time.Since(start), err)
	}
	if err != nil {
		b.logger.Warn("compile rejected", "err", err)
		return nil, fmt.Errorf("compile %s: %w", b.id, err)
	}

	asset := compiler.Package(b.id, b.model, b.now().UTC())
	b.logger.Debug("compiled",
		"nodes", b.model.NodeCount(),
		"connections", b.model.ConnectionCount(),
	)
	return asset, nil
}

// Save compiles the graph and writes the asset to the store.
func (b *AssetBuilder) Save(ctx context.Context) (*domain.Asset, error) {
	if b.store == nil {
		return nil, ErrNoStore
	}

	asset, err := b.Compile()
	if err != nil {
		return nil, err
	}
	if err := b.store.Save(ctx, asset); err != nil {
		return nil, fmt.Errorf("save %s: %w", b.id, err)
	}

	b.logger.Debug("saved")
	return asset, nil
}

// Load replaces the graph with the one stored for this asset.
// On failure the current graph is kept.
func (b *AssetBuilder) Load(ctx context.Context) error {
	if b.loader == nil {
		return ErrNoStore
	}

	asset, err := b.loader.Load(ctx, b.id)
	if err != nil {
		return err
	}
	return b.Open(asset)
}

// Open replaces the graph with the authoring form held by asset.
// On failure the current graph is kept.
func (b *AssetBuilder) Open(asset *domain.Asset) error {
	m, err := authoring.Decode(asset.AuthoringData, b.graphOpt...)
	if err != nil {
		b.logger.Warn("load rejected, keeping current graph", "err", err)
		return fmt.Errorf("load %s: %w", asset.ID, err)
	}

	b.model = m
	b.logger.Debug("loaded", "nodes", m.NodeCount())
	return nil
}

// LoadRuntime decodes the runtime form of an asset for a playback consumer.
// The graph is never reconstructed.
func LoadRuntime(asset *domain.Asset) (*compiler.View, error) {
	return compiler.Decode(asset.RuntimeData)
}

// Verify checks a stored asset without touching the builder's graph: the authoring
// stream must decode, the runtime stream must be exactly what it compiles to, and the
// returned report tells how the runtime walks from its start node.
func (b *AssetBuilder) Verify(asset *domain.Asset) (compiler.Report, error) {
	m, err := authoring.Decode(asset.AuthoringData, b.graphOpt...)
	if err != nil {
		return compiler.Report{}, fmt.Errorf("verify %s: %w", asset.ID, err)
	}
	runtime, view := compiler.Compile(m)
	if runtime != asset.RuntimeData {
		return compiler.Reachability(view), fmt.Errorf("verify %s: %w", asset.ID, ErrStaleRuntime)
	}
	return compiler.Reachability(view), nil
}
