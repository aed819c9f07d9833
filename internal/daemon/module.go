// Package daemon composes the chatd process out of its parts and manages
// their startup and shutdown order.
package daemon

import (
	"context"

	"chatd/internal/api"
	"chatd/internal/bus"
	"chatd/internal/config"
	"chatd/internal/home"
	"chatd/internal/identity"
	"chatd/internal/lifecycle"
	"chatd/internal/lock"
	"chatd/internal/logging"
	"chatd/internal/presence"
	"chatd/internal/status"
	"chatd/internal/store"
	intsync "chatd/internal/sync"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved configuration passed to the fx module.
type Params struct {
	Config  *config.Config
	DataDir string
	// ListenAddr overrides the configured address; used by tests to bind
	// an ephemeral port. Empty means use Config.ListenAddr.
	ListenAddr string
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideVerifier,
			provideEngine,
			provideSnapshotService,
			provideDigest,
			provideTracker,
			provideHandler,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(home.LogPath(p.DataDir))
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := home.EnsureDirs(p.DataDir); err != nil {
		return nil, err
	}
	logger.Info("acquiring data dir lock", zap.String("dir", p.DataDir))
	l, err := lock.Acquire(p.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired")
	return l, nil
}

func provideStore(p Params, machine *status.Machine, logger *zap.Logger, _ *lock.Lock) (*store.DB, error) {
	dbPath := home.DBPath(p.DataDir)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := machine.Transition(status.Migrating); err != nil {
		_ = db.Close()
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = machine.Transition(status.Error)
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}

	actors := make([]store.Actor, 0, len(p.Config.Actors))
	for _, a := range p.Config.Actors {
		actors = append(actors, store.Actor{ID: a.ID, Name: a.Name, Token: a.Token})
	}
	if err := identity.Provision(db, actors, logger); err != nil {
		_ = machine.Transition(status.Error)
		_ = db.Close()
		return nil, err
	}

	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideVerifier(db *store.DB) identity.Verifier {
	return identity.NewStoreVerifier(db)
}

func provideEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *lifecycle.Engine {
	return lifecycle.NewEngine(db, b, logger)
}

func provideSnapshotService(p Params, db *store.DB) *intsync.Service {
	return intsync.NewService(db, p.Config.SnapshotLimit)
}

func provideDigest(db *store.DB, b *bus.Bus, logger *zap.Logger) *intsync.Digest {
	return intsync.NewDigest(db, b, logger)
}

func provideTracker(b *bus.Bus) *presence.Tracker {
	return presence.NewTracker(b)
}

func provideHandler(
	engine *lifecycle.Engine,
	snapshot *intsync.Service,
	tracker *presence.Tracker,
	verifier identity.Verifier,
	machine *status.Machine,
	db *store.DB,
	logger *zap.Logger,
) *api.Handler {
	return api.NewHandler(engine, snapshot, tracker, verifier, machine, db, logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	srv *Server,
	lk *lock.Lock,
	digest *intsync.Digest,
	tracker *presence.Tracker,
	machine *status.Machine,
	db *store.DB,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			digest.Start(context.Background())
			tracker.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
					_ = machine.Transition(status.Error)
				}
			}()

			if err := machine.Transition(status.Ready); err != nil {
				return err
			}
			logger.Info("daemon ready", zap.String("addr", srv.Addr()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = machine.Transition(status.Draining)
			srv.Stop(ctx)
			tracker.Stop()
			digest.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
