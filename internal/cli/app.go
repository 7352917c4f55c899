package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fllscore/ddzledger/internal/config"
	"github.com/fllscore/ddzledger/internal/hmacsig"
	"github.com/fllscore/ddzledger/internal/pending"
	"github.com/fllscore/ddzledger/internal/remote"
	"github.com/fllscore/ddzledger/internal/service"
	"github.com/fllscore/ddzledger/internal/session"
	"github.com/fllscore/ddzledger/internal/storage"
	"github.com/fllscore/ddzledger/internal/syncer"
	"github.com/fllscore/ddzledger/internal/undo"
)

// app is one fully wired instance: config, local store, remote client,
// and the services built on top. Commands construct it, use it, and
// close it.
type app struct {
	cfg     *config.Config
	store   *storage.SQLite
	client  *remote.Client
	session *session.Cache
	queue   *pending.Queue
	undo    *undo.Coordinator
	svc     *service.Service
	rec     *syncer.Reconciler
	runner  *syncer.Runner
}

// newApp wires the full stack from configuration. The returned app
// owns the database handle; callers must Close it.
func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create data directory", err)
	}
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open local database", err)
	}

	sess := session.NewCache(store)
	client := remote.New(remote.Config{
		Endpoint:   cfg.EndpointURL,
		AppVersion: cfg.AppVersion,
		Signer:     hmacsig.New(cfg.APISecret),
		Session:    sess,
		Timeout:    cfg.Timeout,
		Logger:     slog.Default(),
	})
	queue := pending.New(store)
	coord := undo.New(queue, client, store)
	if err := coord.Restore(ctx); err != nil {
		slog.Warn("could not restore undo state", "error", err)
	}

	rec := syncer.New(queue, client, sess, slog.Default())
	runner := syncer.NewRunner(rec, client, queue, slog.Default())
	runner.SetInterval(cfg.SyncInterval)

	return &app{
		cfg:     cfg,
		store:   store,
		client:  client,
		session: sess,
		queue:   queue,
		undo:    coord,
		svc:     service.New(client, sess, queue, coord, store),
		rec:     rec,
		runner:  runner,
	}, nil
}

// Close releases the database handle.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// formatter builds the output formatter for one command invocation.
func formatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}
