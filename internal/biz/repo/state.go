package repo

import (
	"context"

	"github.com/replyrota/replyrota/internal/biz/domain"
)

// StateRepo is the persisted cursor repository interface. Implementations:
// the spreadsheet state tab (shared deployments) and a local SQLite file.
type StateRepo interface {
	// LoadCursor returns the persisted rotation cursor, or a fresh zero
	// cursor if none has been saved yet
	LoadCursor(ctx context.Context) (*domain.RotationCursor, error)

	// SaveCursor persists the rotation cursor
	SaveCursor(ctx context.Context, cursor *domain.RotationCursor) error

	// Get reads an auxiliary state value ("" if unset)
	Get(ctx context.Context, key string) (string, error)

	// Set writes an auxiliary state value
	Set(ctx context.Context, key, value string) error

	// Close releases the backing store
	Close() error
}
