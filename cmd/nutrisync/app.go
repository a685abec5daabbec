package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/nutrisync/internal/cloudsync"
	"github.com/and161185/nutrisync/internal/config"
	"github.com/and161185/nutrisync/internal/foodcatalog/openfoodfacts"
	"github.com/and161185/nutrisync/internal/localstate"
	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/repository/postgres"
	"github.com/and161185/nutrisync/internal/service"
	"github.com/and161185/nutrisync/internal/session"
)

const exitPushTimeout = 10 * time.Second

// app is everything a command needs, wired from config and flags.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	file     *localstate.File
	store    *service.Store
	outbox   *cloudsync.Outbox
	sessions *session.Manager
	db       *postgres.DB
	rec      *cloudsync.Reconciler
	catalog  *openfoodfacts.Client
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(configPath(opts))
	if err != nil {
		return nil, err
	}
	cfg.Merge(&config.Config{State: config.StateConfig{Path: opts.statePath}, Remote: config.RemoteConfig{DSN: opts.dsn}})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// openApp loads config, hydrates the store and, when a DSN is configured,
// connects the reconciler.
func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	statePath := cfg.State.Path
	if statePath == "" {
		statePath = localstate.DefaultPath()
	}
	file := localstate.Open(statePath, localstate.WithPassphrase(cfg.Passphrase()), localstate.WithLogger(logger))
	outbox := cloudsync.NewOutbox(cfg.Sync.Debounce, logger)
	store := service.NewStore(file, outbox, logger)
	if err := store.Hydrate(ctx); err != nil {
		_ = file.Close()
		if errors.Is(err, localstate.ErrLocked) {
			return nil, fmt.Errorf("%w (set $%s)", err, cfg.State.PassphraseEnv)
		}
		return nil, fmt.Errorf("load %s: %w", statePath, err)
	}
	if opts.date != "" {
		if _, err := model.ParseDate(opts.date); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", opts.date)
		}
		store.SetDate(opts.date)
	}

	sessions := session.NewManager(session.NewFileStore(config.Dir()), cfg.JWTKey(), logger)
	if err := sessions.Restore(); err != nil {
		logger.Warn("restore session", zap.Error(err))
	}

	a := &app{
		cfg:      cfg,
		log:      logger,
		file:     file,
		store:    store,
		outbox:   outbox,
		sessions: sessions,
		catalog: &openfoodfacts.Client{
			BaseURL:    cfg.Catalog.BaseURL,
			HTTPClient: &http.Client{Timeout: cfg.Catalog.Timeout},
			Log:        logger,
		},
	}
	if cfg.Remote.DSN != "" {
		db, err := postgres.New(ctx, cfg.Remote.DSN)
		if err != nil {
			logger.Warn("remote unavailable, working offline", zap.Error(err))
		} else {
			a.db = db
			a.rec = cloudsync.NewReconciler(store, sessions,
				postgres.NewProfileRepo(db), postgres.NewLogRepo(db), postgres.NewRecipeRepo(db), logger)
		}
	}
	return a, nil
}

// close pushes pending changes when sync is available and flushes local state.
func (a *app) close() {
	if a.rec != nil {
		ctx, cancel := context.WithTimeout(context.Background(), exitPushTimeout)
		if err := a.outbox.Flush(ctx, a.rec); err != nil {
			fmt.Fprintln(os.Stderr, "warning: changes not synced:", err)
		}
		cancel()
	}
	if err := a.file.Close(); err != nil {
		a.log.Error("flush local state", zap.Error(err))
		fmt.Fprintln(os.Stderr, "warning: local state not saved:", err)
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.log.Sync()
}

func (a *app) requireSync() error {
	if a.rec == nil {
		return errors.New("sync is not configured (set remote.dsn or --dsn)")
	}
	if _, ok := a.sessions.Current(); !ok {
		return errors.New("not signed in (run: nutrisync login <token>)")
	}
	return nil
}

// withApp opens the app for one command and closes it afterwards.
func withApp(ctx context.Context, opts *rootOptions, run func(*app) error) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()
	return run(a)
}
