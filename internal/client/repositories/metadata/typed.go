package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/dbx"
)

// GetJSON decodes the value under key into v. It reports false when the
// key is absent.
func GetJSON(ctx context.Context, r Repository, key string, v any) (bool, error) {
	data, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode metadata[%s]: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key as JSON.
func SetJSON(ctx context.Context, r Repository, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode metadata[%s]: %w", key, err)
	}
	return r.Set(ctx, key, data)
}

// GetTime returns the timestamp under key, or the zero time when absent.
func GetTime(ctx context.Context, r Repository, key string) (time.Time, error) {
	data, err := r.Get(ctx, key)
	if err != nil || data == nil {
		return time.Time{}, err
	}
	ts, err := dbx.ParseTime(string(data))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode metadata[%s]: %w", key, err)
	}
	return ts, nil
}

// SetTime stores t under key.
func SetTime(ctx context.Context, r Repository, key string, t time.Time) error {
	return r.Set(ctx, key, []byte(dbx.FormatTime(t)))
}
