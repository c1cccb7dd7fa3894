package scheduler

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrHubClosed is returned by Subscribe after Close.
var ErrHubClosed = errors.New("hub closed")

// Hub shares one Poller per symbol between any number of subscribers. The
// poller starts with the first subscription and stops when the last one is
// closed.
type Hub[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	opts     []Option
	ctx      context.Context

	mu        sync.Mutex
	entries   map[string]*hubEntry[T]
	listeners []func(Snapshot[T])
	closed    bool
}

type hubEntry[T any] struct {
	poller *Poller[T]
	subs   map[*Subscription[T]]struct{}
}

// NewHub creates a hub whose pollers live at most as long as ctx.
func NewHub[T any](ctx context.Context, name string, interval time.Duration, fetch FetchFunc[T], opts ...Option) *Hub[T] {
	return &Hub[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		opts:     opts,
		ctx:      ctx,
		entries:  make(map[string]*hubEntry[T]),
	}
}

// OnSnapshot registers fn to receive every state change of every symbol.
// fn must not block.
func (h *Hub[T]) OnSnapshot(fn func(Snapshot[T])) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func hubKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Subscribe returns a subscription to symbol, starting its poller if this is
// the first subscriber.
func (h *Hub[T]) Subscribe(symbol string) (*Subscription[T], error) {
	key := hubKey(symbol)
	sub := &Subscription[T]{
		hub:     h,
		symbol:  key,
		updates: make(chan Snapshot[T], 1),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	entry, ok := h.entries[key]
	if !ok {
		p := NewPoller(h.name, key, h.interval, h.fetch, h.opts...)
		p.OnUpdate(func(s Snapshot[T]) { h.broadcast(key, p, s) })
		entry = &hubEntry[T]{poller: p, subs: make(map[*Subscription[T]]struct{})}
		h.entries[key] = entry
		p.Start(h.ctx)
	}
	entry.subs[sub] = struct{}{}
	h.mu.Unlock()

	if ok {
		if snap := entry.poller.Snapshot(); !snap.LastFetch.IsZero() || snap.Loading {
			sub.deliver(snap)
		}
	}
	return sub, nil
}

// broadcast fans snap out to the subscribers of key. Snapshots from a poller
// that no longer owns the entry, such as the final update of one being
// stopped after its symbol was re-subscribed, are dropped.
func (h *Hub[T]) broadcast(key string, source *Poller[T], snap Snapshot[T]) {
	h.mu.Lock()
	entry, ok := h.entries[key]
	ok = ok && entry.poller == source
	var subs []*Subscription[T]
	if ok {
		subs = make([]*Subscription[T], 0, len(entry.subs))
		for s := range entry.subs {
			subs = append(subs, s)
		}
	}
	listeners := append([]func(Snapshot[T]){}, h.listeners...)
	h.mu.Unlock()

	if !ok {
		return
	}
	for _, s := range subs {
		s.deliver(snap)
	}
	for _, fn := range listeners {
		fn(snap)
	}
}

func (h *Hub[T]) release(sub *Subscription[T]) {
	h.mu.Lock()
	entry, ok := h.entries[sub.symbol]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(entry.subs, sub)
	var stop *Poller[T]
	if len(entry.subs) == 0 {
		delete(h.entries, sub.symbol)
		stop = entry.poller
	}
	h.mu.Unlock()

	if stop != nil {
		stop.Stop()
	}
}

// Peek returns the current snapshot for symbol if it has subscribers.
func (h *Hub[T]) Peek(symbol string) (Snapshot[T], bool) {
	h.mu.Lock()
	entry, ok := h.entries[hubKey(symbol)]
	h.mu.Unlock()
	if !ok {
		return Snapshot[T]{}, false
	}
	return entry.poller.Snapshot(), true
}

// Refresh forces an immediate fetch for symbol. It returns false when the
// symbol has no subscribers or a fetch is already in flight.
func (h *Hub[T]) Refresh(symbol string) bool {
	h.mu.Lock()
	entry, ok := h.entries[hubKey(symbol)]
	h.mu.Unlock()
	if !ok {
		return false
	}
	return entry.poller.Refresh()
}

// Refs returns the number of live subscriptions to symbol.
func (h *Hub[T]) Refs(symbol string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if entry, ok := h.entries[hubKey(symbol)]; ok {
		return len(entry.subs)
	}
	return 0
}

// Symbols returns the subscribed symbols in sorted order.
func (h *Hub[T]) Symbols() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.entries))
	for k := range h.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Close stops every poller and closes every subscription.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	entries := h.entries
	h.entries = make(map[string]*hubEntry[T])
	h.mu.Unlock()

	for _, entry := range entries {
		entry.poller.Stop()
		for sub := range entry.subs {
			sub.markClosed()
		}
	}
}

// Subscription is one consumer's handle on a shared poller.
type Subscription[T any] struct {
	hub     *Hub[T]
	symbol  string
	updates chan Snapshot[T]

	mu     sync.Mutex
	closed bool
}

// Symbol returns the normalized symbol.
func (s *Subscription[T]) Symbol() string { return s.symbol }

// Updates delivers state changes. Only the latest undelivered snapshot is
// kept. The channel is closed when the subscription or hub is closed.
func (s *Subscription[T]) Updates() <-chan Snapshot[T] { return s.updates }

// Snapshot returns the current shared state.
func (s *Subscription[T]) Snapshot() Snapshot[T] {
	snap, _ := s.hub.Peek(s.symbol)
	return snap
}

// Refresh forces an immediate shared fetch; see Poller.Refresh.
func (s *Subscription[T]) Refresh() bool {
	return s.hub.Refresh(s.symbol)
}

// Close releases the subscription. Closing the last subscription of a
// symbol stops its poller and cancels any in-flight fetch.
func (s *Subscription[T]) Close() {
	if !s.markClosed() {
		return
	}
	s.hub.release(s)
}

func (s *Subscription[T]) markClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.updates)
	return true
}

func (s *Subscription[T]) deliver(snap Snapshot[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.updates <- snap:
		return
	default:
	}
	// Drop the stale snapshot in favour of the newer one.
	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}
