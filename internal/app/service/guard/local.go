package guard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Local is an in-process keyed lock. Each key owns a one-slot channel that
// lives only while somebody holds or waits for it.
type Local struct {
	mu      sync.Mutex
	slots   map[string]*slot
	timeout time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocal returns a Local whose waits give up after timeout (0: wait until ctx is done).
func NewLocal(timeout time.Duration) *Local {
	return &Local{slots: make(map[string]*slot), timeout: timeout}
}

func (l *Local) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s := l.ref(key)
	defer l.unref(key, s)

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	// blocked senders are queued by the runtime, so waiters are served in order
	select {
	case s.ch <- struct{}{}:
	case <-waitCtx.Done():
		return fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, waitCtx.Err())
	}
	defer func() { <-s.ch }()

	return fn(ctx)
}

func (l *Local) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Local) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// size reports how many keys are currently held or awaited.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
