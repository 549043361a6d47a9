package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/possync/internal/syncrpc"
)

// Client is the device's view of the remote store.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Register(ctx context.Context, creds syncrpc.Credentials) (*syncrpc.Identity, error)
	Login(ctx context.Context, username, password string) (*syncrpc.Tokens, error)
	WhoAmI(ctx context.Context) (*syncrpc.Identity, error)

	// Upsert inserts or replaces one remote-shape row, keyed by its id.
	Upsert(ctx context.Context, table string, row map[string]any) error
	// Select returns the owner's remote-shape rows, soft-deleted ones
	// included. A non-nil since limits the result to rows updated after it.
	Select(ctx context.Context, table, ownerID string, since *time.Time) ([]map[string]any, error)

	Catalog(ctx context.Context) ([]map[string]any, error)
	SnapshotURL(ctx context.Context) (*syncrpc.SnapshotTarget, error)

	SetTokens(access, refresh string)
	Tokens() (access, refresh string)
}
