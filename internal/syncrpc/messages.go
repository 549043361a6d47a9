package syncrpc

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Credentials is the payload of Register and Login.
type Credentials struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
	StoreName   string `json:"storeName,omitempty"`
}

// Tokens is returned by Login and RefreshToken.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId,omitempty"`
}

// Identity describes the authenticated user (Register and WhoAmI).
type Identity struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	StoreName   string `json:"storeName,omitempty"`
}

// UpsertRequest carries one remote-shape row.
type UpsertRequest struct {
	Table string         `json:"table"`
	Row   map[string]any `json:"row"`
}

// SelectRequest asks for every row of owner in table, optionally only those
// updated strictly after Since.
type SelectRequest struct {
	Table   string     `json:"table"`
	OwnerID string     `json:"ownerId"`
	Since   *time.Time `json:"since,omitempty"`
}

// SnapshotTarget is where a database snapshot can be uploaded.
type SnapshotTarget struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Encode converts a message into a structpb.Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return s, nil
}

// Decode fills v from s.
func Decode(s *structpb.Struct, v any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// EncodeRows packs rows into a list of structs.
func EncodeRows(rows []map[string]any) (*structpb.ListValue, error) {
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(rows))}
	for _, r := range rows {
		s, err := structpb.NewStruct(r)
		if err != nil {
			return nil, fmt.Errorf("encode row: %w", err)
		}
		out.Values = append(out.Values, structpb.NewStructValue(s))
	}
	return out, nil
}

// DecodeRows unpacks a list produced by EncodeRows.
func DecodeRows(l *structpb.ListValue) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("decode row %d: not an object", i)
		}
		out = append(out, s.AsMap())
	}
	return out, nil
}
