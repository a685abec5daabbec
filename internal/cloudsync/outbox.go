package cloudsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/nutrisync/internal/service"
)

// DefaultDebounce is the quiet period before a scheduled push.
const DefaultDebounce = 2 * time.Second

// Pusher uploads the local state.
type Pusher interface {
	PushAll(ctx context.Context) error
}

// Outbox collects change signals from the store and turns bursts of them
// into a single push once changes stop for the debounce period.
type Outbox struct {
	debounce time.Duration
	log      *zap.Logger

	mu    sync.Mutex
	dirty bool
	kick  chan struct{}
}

var _ service.Notifier = (*Outbox)(nil)

// NewOutbox constructs an Outbox. A non-positive debounce uses DefaultDebounce.
func NewOutbox(debounce time.Duration, log *zap.Logger) *Outbox {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Outbox{debounce: debounce, log: log, kick: make(chan struct{}, 1)}
}

// Notify marks the local state as needing a push.
func (o *Outbox) Notify() {
	o.mu.Lock()
	o.dirty = true
	o.mu.Unlock()
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// Dirty reports whether there are changes not yet pushed.
func (o *Outbox) Dirty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dirty
}

// Flush pushes now if anything is pending. A failed push leaves the outbox dirty.
func (o *Outbox) Flush(ctx context.Context, p Pusher) error {
	o.mu.Lock()
	if !o.dirty {
		o.mu.Unlock()
		return nil
	}
	o.dirty = false
	o.mu.Unlock()

	if err := p.PushAll(ctx); err != nil {
		o.mu.Lock()
		o.dirty = true
		o.mu.Unlock()
		return err
	}
	return nil
}

// Run pushes through p after each burst of notifications until ctx is done.
func (o *Outbox) Run(ctx context.Context, p Pusher) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-o.kick:
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := o.Flush(ctx, p); err != nil {
				o.log.Warn("scheduled push failed; will retry on next change", zap.Error(err))
			}
		}
	}
}
