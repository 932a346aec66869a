// Package session tracks the authenticated principal for a UI view and
// clears principal-scoped state when it changes.
package session

import (
	"context"
	"sync"

	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/store"
)

// Scoped is state that belongs to one principal and must be discarded when
// the principal changes.
type Scoped interface {
	ResetScope(principal models.Principal)
}

// Tracker exposes the current principal and principal-change notifications.
type Tracker struct {
	identity store.Identity

	mu          sync.Mutex
	current     models.Principal
	dependents  []Scoped
	subscribers map[int]func(models.Principal)
	nextID      int
	unsubscribe func()
	events      uint64
}

// NewTracker creates a tracker over identity. Call Start before use.
func NewTracker(identity store.Identity) *Tracker {
	return &Tracker{
		identity:    identity,
		subscribers: make(map[int]func(models.Principal)),
	}
}

// Bind registers a dependent that is reset whenever the principal changes.
func (t *Tracker) Bind(s Scoped) {
	t.mu.Lock()
	t.dependents = append(t.dependents, s)
	t.mu.Unlock()
}

// Start follows identity change events until Close and fetches the current
// principal once. An event that lands while the fetch is running wins over
// the fetched value. A failed fetch leaves the tracker anonymous.
func (t *Tracker) Start(ctx context.Context) error {
	unsubscribe := t.identity.OnChange(func(ev store.IdentityEvent) {
		next := ev.Principal
		if ev.Kind == store.SignedOut {
			next = models.NoPrincipal
		}
		t.apply(ctx, next, nil)
	})

	t.mu.Lock()
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
	t.unsubscribe = unsubscribe
	seen := t.events
	t.mu.Unlock()

	principal, err := t.identity.CurrentPrincipal(ctx)
	if err != nil {
		observability.Logger.WarnContext(ctx, "current principal lookup failed", "error", err)
		principal = models.NoPrincipal
	}
	t.apply(ctx, principal, &seen)

	if err != nil {
		return models.NewRemoteUnavailableError("current principal", err)
	}
	return nil
}

// Current returns the principal or models.NoPrincipal.
func (t *Tracker) Current() models.Principal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Subscribe registers fn for principal changes and returns its cancel func.
func (t *Tracker) Subscribe(fn func(models.Principal)) (cancel func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subscribers[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subscribers, id)
		t.mu.Unlock()
	}
}

// Close stops following identity events.
func (t *Tracker) Close() {
	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// apply records principal and, when it differs from the current one, resets
// every dependent before any subscriber is told about the change. fetchedAt
// is nil for identity events; for a fetch it is the event count observed
// before the fetch began, and the result is dropped if events arrived since.
func (t *Tracker) apply(ctx context.Context, principal models.Principal, fetchedAt *uint64) {
	t.mu.Lock()
	if fetchedAt == nil {
		t.events++
	} else if *fetchedAt != t.events {
		t.mu.Unlock()
		observability.Logger.DebugContext(ctx, "discarding stale principal fetch", "principal", principal.String())
		return
	}
	if principal == t.current {
		t.mu.Unlock()
		return
	}
	prev := t.current
	t.current = principal
	dependents := append([]Scoped(nil), t.dependents...)
	subscribers := make([]func(models.Principal), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		subscribers = append(subscribers, fn)
	}
	t.mu.Unlock()

	observability.Logger.DebugContext(ctx, "principal changed", "from", prev.String(), "to", principal.String())

	for _, d := range dependents {
		d.ResetScope(principal)
	}
	for _, fn := range subscribers {
		fn(principal)
	}
}
