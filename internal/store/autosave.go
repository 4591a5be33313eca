package store

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
)

// DefaultAutosaveDelay is the quiet period after the last change before a save
const DefaultAutosaveDelay = 300 * time.Millisecond

// Autosaver persists the registry after changes settle.
type Autosaver struct {
	st    Store
	reg   *param.Registry
	delay time.Duration

	dirty   chan struct{}
	unwatch func()
	saves   atomic.Uint64
}

// NewAutosaver creates an autosaver and starts tracking changes at once, so
// nothing published between construction and Run is missed. A delay of zero
// uses DefaultAutosaveDelay.
func NewAutosaver(st Store, reg *param.Registry, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	a := &Autosaver{
		st:    st,
		reg:   reg,
		delay: delay,
		dirty: make(chan struct{}, 1),
	}
	a.unwatch = reg.Watch(func(param.Change) {
		select {
		case a.dirty <- struct{}{}:
		default:
		}
	})
	return a
}

// Saves returns the number of completed saves
func (a *Autosaver) Saves() uint64 {
	return a.saves.Load()
}

// Run watches the registry until ctx ends, saving once per quiet period.
// Pending changes are flushed before Run returns. Run may be called once.
func (a *Autosaver) Run(ctx context.Context) error {
	defer a.unwatch()

	// quiet is nil while nothing is pending
	var quiet <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			// Changes that raced with shutdown are still in the channel.
			pending := quiet != nil
			select {
			case <-a.dirty:
				pending = true
			default:
			}
			if pending {
				a.save(context.WithoutCancel(ctx))
			}
			return nil
		case <-a.dirty:
			quiet = time.After(a.delay)
		case <-quiet:
			quiet = nil
			a.save(ctx)
		}
	}
}

func (a *Autosaver) save(ctx context.Context) {
	if err := SaveFrom(ctx, a.st, a.reg); err != nil {
		logging.Error("Autosave failed", zap.Error(err))
		return
	}
	a.saves.Add(1)
}
