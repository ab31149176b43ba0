package middleware

import "github.com/aretw0/dialoguetree/pkg/ports"

// Middleware allows wrapping an AssetStore to add behavior.
type Middleware func(ports.AssetStore) ports.AssetStore
