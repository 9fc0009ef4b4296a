// Package persistence provides durable storage for the roster and the
// attendance log: a gob file store for single-node deployments, a
// PostgreSQL store using pgvector for shared deployments, and a CSV
// recorder for the per-day attendance files.
package persistence

import (
	"context"

	"github.com/okian/presence/internal/domain/roster"
)

// Store persists the full roster and loads it back on startup.
type Store interface {
	// Save replaces the stored roster with the given people.
	Save(ctx context.Context, people []roster.Person) error

	// Load returns the stored roster, or an empty slice when nothing has
	// been stored yet.
	Load(ctx context.Context) ([]roster.Person, error)

	// Close releases store resources.
	Close() error
}
