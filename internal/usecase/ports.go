package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golden-fork/bistro"
)

// ContentGateway executes queries against the content backend. A nil
// payload with a nil error means the query declared absence a valid
// outcome and the entity was absent.
type ContentGateway interface {
	Execute(ctx context.Context, query bistro.ContentQuery) (json.RawMessage, error)
	InvalidateTag(tag string) int
}

// SnapshotRepository persists last-known-good entity payloads so pages
// can be served stale while the backend is unreachable.
type SnapshotRepository interface {
	Store(ctx context.Context, key string, payload json.RawMessage) error
	Load(ctx context.Context, key string) (json.RawMessage, time.Time, error)
}

// PurgeBroadcaster fans a tag purge out to every running process.
type PurgeBroadcaster interface {
	PublishPurge(ctx context.Context, tags []string) error
}
