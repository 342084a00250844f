package persistence

import (
	"context"
	"fmt"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
)

// Gateway stores named blobs in a single container (a folder, a database
// file). Lookup is by exact name. Load returns an error wrapping
// apperr.ErrNotFound when no blob exists under key.
type Gateway interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
}

// DisabledGateway is used when no storage backend is configured. The app runs
// local-only: nothing is found and nothing can be saved.
type DisabledGateway struct{}

// Load always reports that no blob exists
func (DisabledGateway) Load(_ context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("%s: %w", key, apperr.ErrNotFound)
}

// Save always fails as unavailable
func (DisabledGateway) Save(_ context.Context, key string, _ []byte) error {
	return fmt.Errorf("%s: sync not configured: %w", key, apperr.ErrPersistenceUnavailable)
}

// UnavailableGateway stands in for a backend that could not be opened.
// Every call fails with Cause.
type UnavailableGateway struct {
	Cause error
}

func (g UnavailableGateway) Load(_ context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("%s: %w", key, g.Cause)
}

func (g UnavailableGateway) Save(_ context.Context, key string, _ []byte) error {
	return fmt.Errorf("%s: %w", key, g.Cause)
}
