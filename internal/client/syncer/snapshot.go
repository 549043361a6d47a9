package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/filex"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/netx"
)

// DefaultSnapshotTimeout bounds one Upload when no other limit is set.
const DefaultSnapshotTimeout = 2 * time.Minute

// Snapshotter uploads a consistent copy of the local database to the
// object store behind a presigned URL.
type Snapshotter struct {
	db      *sql.DB
	remote  client.Client
	dir     string
	http    *http.Client
	log     logging.Logger
	timeout time.Duration
}

// NewSnapshotter writes its scratch copies to dir, or to the system temp
// directory when dir is empty.
func NewSnapshotter(db *sql.DB, remote client.Client, dir string, hc *http.Client, log logging.Logger) *Snapshotter {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Snapshotter{db: db, remote: remote, dir: dir, http: hc, log: log, timeout: DefaultSnapshotTimeout}
}

// WithTimeout limits how long a whole Upload may take. Backup holds the
// sync lock while uploading, so the limit also bounds how long other
// syncs wait. Non-positive values keep the current limit.
func (s *Snapshotter) WithTimeout(d time.Duration) *Snapshotter {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Upload returns the object key the snapshot was stored under.
func (s *Snapshotter) Upload(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	target, err := s.remote.SnapshotURL(ctx)
	if err != nil {
		return "", fmt.Errorf("get snapshot url: %w", err)
	}

	path, err := filex.TempPath(s.dir, "possync-snapshot-*.db")
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("copy database: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return "", err
	}

	if err := netx.UploadToPresignedURL(ctx, s.http, target.URL, f, fi.Size()); err != nil {
		return "", err
	}
	s.log.Debug(ctx, "snapshot written", "key", target.Key, "bytes", fi.Size())
	return target.Key, nil
}
