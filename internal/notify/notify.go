// Package notify provides change notification for observable state.
//
// The notify package implements an observer pattern that allows components
// to subscribe to changes and receive callbacks when they happen. Delivery
// is synchronous: Notify returns after every observer has run.
package notify

import (
	"sort"
	"sync"
)

// Observer is called when a change occurs.
type Observer[E any] func(event E)

// Subscription represents an active observer subscription.
type Subscription struct {
	id     uint64
	cancel func(id uint64)
	once   sync.Once
}

// Unsubscribe removes this subscription. Safe to call multiple times.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.once.Do(func() {
		s.cancel(s.id)
	})
}

// Notifier manages change subscriptions. It is safe for concurrent use.
type Notifier[E any] struct {
	mu        sync.RWMutex
	observers map[uint64]Observer[E]
	nextID    uint64
}

// New creates a new Notifier.
func New[E any]() *Notifier[E] {
	return &Notifier[E]{
		observers: make(map[uint64]Observer[E]),
	}
}

// Subscribe registers an observer for all changes.
// A nil observer is ignored and yields a subscription that does nothing.
func (n *Notifier[E]) Subscribe(observer Observer[E]) *Subscription {
	if observer == nil {
		return &Subscription{}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = observer

	return &Subscription{
		id:     id,
		cancel: n.unsubscribe,
	}
}

// Notify calls every current observer in subscription order. Observers run
// outside the lock and may subscribe or unsubscribe.
func (n *Notifier[E]) Notify(event E) {
	for _, obs := range n.snapshot() {
		obs(event)
	}
}

func (n *Notifier[E]) snapshot() []Observer[E] {
	n.mu.RLock()
	defer n.mu.RUnlock()

	ids := make([]uint64, 0, len(n.observers))
	for id := range n.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	observers := make([]Observer[E], 0, len(ids))
	for _, id := range ids {
		observers = append(observers, n.observers[id])
	}
	return observers
}

func (n *Notifier[E]) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}
