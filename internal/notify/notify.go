// Package notify fans registry invalidations out to subscribers, in process
// or across nodes.
package notify

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed reports use of a closed notifier.
var ErrClosed = errors.New("notifier closed")

// Notifier publishes tenant invalidations.
type Notifier interface {
	// Publish announces that tenant's models changed.
	Publish(ctx context.Context, tenant string) error
	// Subscribe calls fn for every invalidation until ctx is done or the
	// notifier is closed. It returns once the subscription is active.
	Subscribe(ctx context.Context, fn func(tenant string)) error
	Close() error
}

// Local delivers invalidations to subscribers of the same process.
type Local struct {
	mu     sync.RWMutex
	next   int
	subs   map[int]func(string)
	closed bool
}

// NewLocal returns an in-process notifier.
func NewLocal() *Local {
	return &Local{subs: make(map[int]func(string))}
}

// Publish calls every subscriber synchronously.
func (l *Local) Publish(_ context.Context, tenant string) error {
	l.mu.RLock()
	subs := make([]func(string), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.RUnlock()
	for _, fn := range subs {
		fn(tenant)
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, fn func(tenant string)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	id := l.next
	l.next++
	l.subs[id] = fn
	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}()
	return nil
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	clear(l.subs)
	return nil
}
