package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/dialoguetree/pkg/authoring"
	"github.com/aretw0/dialoguetree/pkg/compiler"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam document library to the ports.AssetLoader interface.
// It is read-only: documents are authored by hand or by another tool.
type Loader struct {
	Repo *loam.TypedRepository[AssetMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[AssetMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return New(loam.NewTypedRepository[AssetMetadata](repo)), nil
}

// Load reads the document for assetID and compiles its runtime data.
func (l *Loader) Load(ctx context.Context, assetID string) (*domain.Asset, error) {
	doc, err := l.Repo.Get(ctx, assetID)
	if err != nil {
		// The front matter id may differ from the file name.
		docID, ok, lerr := l.resolve(ctx, assetID)
		if lerr != nil {
			return nil, lerr
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, assetID)
		}
		if doc, err = l.Repo.Get(ctx, docID); err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", assetID, err)
		}
	}

	// Editors usually leave a newline after the last delimiter.
	stream := strings.TrimSpace(doc.Content)
	m, err := authoring.Decode(stream)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", assetID, err)
	}
	runtime, _ := compiler.Compile(m)

	return &domain.Asset{
		ID:            assetID,
		AuthoringData: stream,
		RuntimeData:   runtime,
	}, nil
}

// resolve finds the document whose normalized id is assetID.
func (l *Loader) resolve(ctx context.Context, assetID string) (string, bool, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return "", false, fmt.Errorf("loam list failed: %w", err)
	}
	for _, doc := range docs {
		if assetIDOf(doc.ID, doc.Data) == assetID {
			return doc.ID, true, nil
		}
	}
	return "", false, nil
}

// List returns the normalized ids of every document in the library.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		id := assetIDOf(doc.ID, doc.Data)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: asset '%s' is defined in both '%s' and '%s'", domain.ErrDuplicateID, id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

func assetIDOf(docID string, meta AssetMetadata) string {
	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}
	return trimExtension(rawID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
