package data

import (
	"context"
	"encoding/json"

	"github.com/replyrota/replyrota/internal/biz/domain"
	"github.com/replyrota/replyrota/internal/biz/repo"
)

// cursorStateKey is the state tab row the rotation cursor lives under
const cursorStateKey = "assignment_cursor"

// sheetStateRepo persists the cursor and auxiliary values in the
// spreadsheet's state tab, so shared deployments need no local disk.
type sheetStateRepo struct {
	client *SheetsClient
}

// NewSheetStateRepo creates a spreadsheet-backed state repository
func NewSheetStateRepo(client *SheetsClient) repo.StateRepo {
	return &sheetStateRepo{client: client}
}

func (r *sheetStateRepo) Get(ctx context.Context, key string) (string, error) {
	rows, err := r.client.readRows(ctx, r.client.cfg.StateTab)
	if err != nil {
		return "", err
	}
	// Last write wins if duplicate keys ever appear.
	value := ""
	for _, row := range rows {
		if row["state_key"] == key {
			value = row["state_value"]
		}
	}
	return value, nil
}

func (r *sheetStateRepo) Set(ctx context.Context, key, value string) error {
	count, err := r.client.updateRowsByID(ctx, r.client.cfg.StateTab, "state_key", key,
		map[string]string{
			"state_value": value,
			"updated_at":  nowUTCISO(),
		})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.client.appendRow(ctx, r.client.cfg.StateTab, stateHeaders, map[string]string{
		"state_key":   key,
		"state_value": value,
		"updated_at":  nowUTCISO(),
	})
}

func (r *sheetStateRepo) LoadCursor(ctx context.Context) (*domain.RotationCursor, error) {
	raw, err := r.Get(ctx, cursorStateKey)
	if err != nil {
		return nil, &domain.StatePersistError{Cause: err}
	}
	return decodeCursor(raw)
}

func (r *sheetStateRepo) SaveCursor(ctx context.Context, cursor *domain.RotationCursor) error {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return &domain.StatePersistError{Cause: err}
	}
	if err := r.Set(ctx, cursorStateKey, string(raw)); err != nil {
		return &domain.StatePersistError{Cause: err}
	}
	return nil
}

func (r *sheetStateRepo) Close() error { return nil }

// decodeCursor parses a persisted cursor, returning a fresh one for an
// empty value
func decodeCursor(raw string) (*domain.RotationCursor, error) {
	if raw == "" {
		return domain.NewRotationCursor(), nil
	}
	var cursor domain.RotationCursor
	if err := json.Unmarshal([]byte(raw), &cursor); err != nil {
		return nil, &domain.StatePersistError{Cause: err}
	}
	cursor.Normalize()
	return &cursor, nil
}
