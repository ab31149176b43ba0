package compiler

import (
	"time"

	"github.com/aretw0/dialoguetree/pkg/authoring"
	"github.com/aretw0/dialoguetree/pkg/domain"
	"github.com/aretw0/dialoguetree/pkg/graph"
)

// Package encodes both forms of m into an asset. The runtime form is always
// recomputed from the model, never patched.
func Package(assetID string, m *graph.Model, updatedAt time.Time) *domain.Asset {
	runtime, _ := Compile(m)
	return &domain.Asset{
		ID:            assetID,
		AuthoringData: authoring.Encode(m),
		RuntimeData:   runtime,
		UpdatedAt:     updatedAt,
	}
}
