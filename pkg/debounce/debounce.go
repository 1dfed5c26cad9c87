// Package debounce buffers rapid per-key actions and runs only the latest one
// once the key has been quiet for a configured delay.
package debounce

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Trigger after Close.
var ErrClosed = errors.New("debounce group closed")

type pending struct {
	timer *time.Timer
	fn    func()
	seq   uint64
}

// Group debounces actions keyed by string. The zero value is not usable; use New.
type Group struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pending
	seq     uint64
	closed  bool
}

// New returns a group that fires an action after delay without a newer Trigger for its key.
func New(delay time.Duration) *Group {
	if delay <= 0 {
		delay = 400 * time.Millisecond
	}
	return &Group{delay: delay, pending: make(map[string]*pending)}
}

// Delay returns the quiet period.
func (g *Group) Delay() time.Duration {
	return g.delay
}

// Trigger schedules fn for key, replacing and restarting any pending action for that key.
func (g *Group) Trigger(key string, fn func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if p, ok := g.pending[key]; ok {
		p.timer.Stop()
	}
	g.seq++
	seq := g.seq
	p := &pending{fn: fn, seq: seq}
	p.timer = time.AfterFunc(g.delay, func() { g.fire(key, seq) })
	g.pending[key] = p
	return nil
}

// fire runs the action only if it is still the latest one registered for key.
func (g *Group) fire(key string, seq uint64) {
	g.mu.Lock()
	p, ok := g.pending[key]
	if !ok || p.seq != seq {
		g.mu.Unlock()
		return
	}
	delete(g.pending, key)
	g.mu.Unlock()
	p.fn()
}

// Flush runs every pending action immediately and returns how many ran.
func (g *Group) Flush() int {
	g.mu.Lock()
	fns := make([]func(), 0, len(g.pending))
	for key, p := range g.pending {
		p.timer.Stop()
		fns = append(fns, p.fn)
		delete(g.pending, key)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Cancel drops the pending action for key without running it.
func (g *Group) Cancel(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(g.pending, key)
	return true
}

// CancelAll drops every pending action and returns how many were dropped.
func (g *Group) CancelAll() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.pending)
	for key, p := range g.pending {
		p.timer.Stop()
		delete(g.pending, key)
	}
	return n
}

// Pending returns the number of buffered actions.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// IsPending reports whether key has a buffered action.
func (g *Group) IsPending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[key]
	return ok
}

// Close cancels every pending action and rejects further triggers.
func (g *Group) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.CancelAll()
}
