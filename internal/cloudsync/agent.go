package cloudsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/nutrisync/internal/session"
)

const shutdownFlushTimeout = 10 * time.Second

// Sessions is the session source the agent follows.
type Sessions interface {
	session.Provider
	Subscribe(session.Listener)
}

// Clearer wipes local data.
type Clearer interface {
	Clear()
}

// Watcher reports changes made to local state by other processes.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Reloader re-reads local state.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Agent runs background sync: it pulls when a session becomes available,
// wipes local data on sign-out and drains the outbox.
type Agent struct {
	rec      *Reconciler
	outbox   *Outbox
	sessions Sessions
	store    Clearer
	log      *zap.Logger

	watcher  Watcher
	reloader Reloader

	pulls chan struct{}
}

// NewAgent constructs an Agent and subscribes it to session changes.
func NewAgent(rec *Reconciler, ob *Outbox, sessions Sessions, store Clearer, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Agent{rec: rec, outbox: ob, sessions: sessions, store: store, log: log, pulls: make(chan struct{}, 1)}
	sessions.Subscribe(a.onSession)
	return a
}

// Follow makes Run reload local state when w reports an outside change. The
// reload requests a push through the outbox.
func (a *Agent) Follow(w Watcher, r Reloader) {
	a.watcher, a.reloader = w, r
}

func (a *Agent) onSession(s session.Session, ok bool) {
	if !ok {
		a.store.Clear()
		return
	}
	a.log.Debug("session available, scheduling pull", zap.String("user_id", s.UserID.String()))
	a.requestPull()
}

func (a *Agent) requestPull() {
	select {
	case a.pulls <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done, then flushes pending changes.
func (a *Agent) Run(ctx context.Context) {
	if _, ok := a.sessions.Current(); ok {
		a.requestPull()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.outbox.Run(ctx, a.rec)
	}()
	if a.watcher != nil && a.reloader != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := a.watcher.Watch(ctx, func() {
				if err := a.reloader.Reload(ctx); err != nil {
					a.log.Error("reload local state", zap.Error(err))
				}
			})
			if err != nil {
				a.log.Error("watch local state", zap.Error(err))
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			fctx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			if err := a.outbox.Flush(fctx, a.rec); err != nil {
				a.log.Warn("final push failed", zap.Error(err))
			}
			cancel()
			return
		case <-a.pulls:
			_ = a.rec.PullAll(ctx)
		}
	}
}
