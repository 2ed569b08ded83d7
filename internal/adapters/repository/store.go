// Package repository holds the published match-state snapshots.
package repository

import (
	"context"

	"github.com/okian/innings/internal/domain/model"
)

// Versioned is a published state with its version number. Versions start at
// 1 for the seed and increase by one per successful transition.
type Versioned struct {
	Version uint64           `json:"version"`
	State   model.MatchState `json:"state"`
}

// Store provides the single-writer, many-reader view of the match state.
type Store interface {
	// Current returns the latest published snapshot. Callers may keep it.
	Current(ctx context.Context) Versioned

	// Publish makes next the current snapshot and returns its version.
	// Only the ingestion loop calls Publish.
	Publish(ctx context.Context, next model.MatchState) (uint64, error)

	// At returns a recent snapshot by version, or ErrNotFound when it has
	// aged out of the history.
	At(ctx context.Context, version uint64) (Versioned, error)
}
