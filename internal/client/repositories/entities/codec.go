package entities

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/transcode"
)

// encodeValue turns a local-shape row value into an SQLite bind argument.
func encodeValue(f transcode.Field, v any) (any, error) {
	if f.Kind == transcode.KindJSON {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		return string(data), nil
	}
	if v == nil {
		return nil, nil
	}

	switch f.Kind {
	case transcode.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("field %s: expected bool, got %T", f.Name, v)
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case transcode.KindInteger:
		switch n := v.(type) {
		case float64:
			return int64(n), nil
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		}
		return nil, fmt.Errorf("field %s: expected number, got %T", f.Name, v)
	case transcode.KindTime:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %s: expected timestamp, got %T", f.Name, v)
		}
		ts, err := dbx.ParseTime(s)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		return dbx.FormatTime(ts), nil
	default:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	}
}

// decodeValue turns a scanned SQLite value back into a local-shape row value.
func decodeValue(f transcode.Field, v any) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}

	switch f.Kind {
	case transcode.KindBool:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("column %s: expected integer, got %T", f.Column(), v)
		}
		return n != 0, nil
	case transcode.KindJSON:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("column %s: expected text, got %T", f.Column(), v)
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Column(), err)
		}
		return out, nil
	default:
		return v, nil
	}
}
