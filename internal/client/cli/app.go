package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/config"
	"github.com/dmitrijs2005/possync/internal/client/services"
	"github.com/dmitrijs2005/possync/internal/client/storage"
	"github.com/dmitrijs2005/possync/internal/client/syncer"
	"github.com/dmitrijs2005/possync/internal/filex"
	"github.com/dmitrijs2005/possync/internal/logging"
	"go.uber.org/multierr"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// App is the POS device process: local store, sync engine and the REPL
// driving them.
type App struct {
	config *config.Config
	db     *sql.DB
	client client.Client
	log    logging.Logger
	closer io.Closer

	gate    *services.SessionGate
	auth    *services.AuthService
	pos     *services.POSService
	catalog *services.CatalogService
	prober  *services.PingProber
	orch    *syncer.Orchestrator

	mu      sync.Mutex
	mode    Mode
	session *services.Session

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local store and the server connection described by cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.LogFile != "" {
		if _, err := filex.EnsureParentDir(cfg.LogFile); err != nil {
			return nil, err
		}
	}
	log, logCloser := logging.NewFileLogger(cfg.LogFile, cfg.LogLevel)

	if _, err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	db, err := storage.Open(ctx, cfg.DatabasePath, log)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}

	c, err := client.NewPosSyncClient(cfg.ServerEndpointAddr, client.Options{
		RPCTimeout:    cfg.RPCTimeout,
		RetryAttempts: cfg.RetryAttempts,
	})
	if err != nil {
		return nil, multierr.Combine(err, db.Close(), logCloser.Close())
	}

	app, err := newApp(cfg, db, c, log, os.Stdin, os.Stdout)
	if err != nil {
		return nil, multierr.Combine(err, c.Close(), db.Close(), logCloser.Close())
	}
	app.closer = logCloser
	return app, nil
}

// newApp wires the services over an already opened store and client.
func newApp(cfg *config.Config, db *sql.DB, c client.Client, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	gate := services.NewSessionGate(c, db, cfg.OfflineSessionTTL, log)
	pos, err := services.NewPOSService(db, log)
	if err != nil {
		return nil, err
	}
	catalog := services.NewCatalogService(c, db, log)
	prober := services.NewPingProber(c, 0)

	opts := []syncer.Option{syncer.WithCatalog(catalog)}
	if cfg.SnapshotOnBackup {
		dir := filepath.Dir(cfg.DatabasePath)
		hc := &http.Client{Timeout: cfg.SnapshotTimeout}
		snap := syncer.NewSnapshotter(db, c, dir, hc, log).WithTimeout(cfg.SnapshotTimeout)
		opts = append(opts, syncer.WithSnapshots(snap))
	}
	orch, err := syncer.New(db, c, prober, gate, log, opts...)
	if err != nil {
		return nil, err
	}

	return &App{
		config:  cfg,
		db:      db,
		client:  c,
		log:     log,
		gate:    gate,
		auth:    services.NewAuthService(c, db, gate, log),
		pos:     pos,
		catalog: catalog,
		prober:  prober,
		orch:    orch,
		mode:    ModeDisabled,
		reader:  bufio.NewReader(in),
		out:     out,
	}, nil
}

// Close releases the server connection, the local store and the log file.
func (a *App) Close() error {
	err := multierr.Combine(a.client.Close(), a.db.Close())
	if a.closer != nil {
		err = multierr.Append(err, a.closer.Close())
	}
	return err
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// setMode switches the connectivity mode and returns the previous one.
func (a *App) setMode(mode Mode) Mode {
	a.mu.Lock()
	prev := a.mode
	a.mode = mode
	a.mu.Unlock()

	if prev != mode {
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
		a.log.Info(context.Background(), "mode changed", "from", string(prev), "to", string(mode))
	}
	return prev
}

func (a *App) currentSession() *services.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *App) setSession(s *services.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = s
}

func (a *App) isLoggedIn() bool {
	return a.currentSession() != nil
}

// StartOnlineStatusWatcher probes the server every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// checkOnline updates the mode after one probe. Coming back online with
// pending changes triggers a full sync.
func (a *App) checkOnline(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}

	if !a.prober.Online(ctx) {
		a.setMode(ModeOffline)
		return
	}

	if prev := a.setMode(ModeOnline); prev == ModeOnline {
		return
	}

	s := a.currentSession()
	if s == nil {
		return
	}
	p, err := a.orch.Pending(ctx, s.UserID)
	if err != nil {
		a.log.Error(ctx, "pending count failed", "error", err)
		return
	}
	if !p.HasPending() {
		return
	}

	stats, err := a.orch.FullSync(ctx, syncer.SyncOptions{})
	if err != nil {
		a.log.Error(ctx, "sync after reconnect failed", "error", err)
		fmt.Fprintf(a.out, "Sync after reconnect failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Back online, synced: %s\n", stats)
}
