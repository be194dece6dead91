package interfaces

import "context"

// ArtifactStore archives run outputs (coverage reports, step logs) under a
// run-scoped key
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte) error
}
