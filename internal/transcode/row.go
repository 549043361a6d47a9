package transcode

import (
	"encoding/json"
	"fmt"
)

// ToRow converts a model into its local-shape row using the model's JSON tags.
func ToRow(v any) (Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal row: %w", err)
	}
	var row Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	return row, nil
}

// FromRow builds a model from a local-shape row.
func FromRow[T any](row Row) (*T, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal row: %w", err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	return out, nil
}
