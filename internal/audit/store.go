package audit

import "context"

// Store is the append-only sink for audit entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByActor(ctx context.Context, actorID string) ([]Entry, error)
}
