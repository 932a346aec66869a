// Package engagement keeps the viewer's liked set and displayed like counts
// consistent with the remote likes collection using optimistic updates.
package engagement

import (
	"context"
	"sync"

	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

// State is the local projection of one post's engagement.
type State struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"like_count"`
}

// Reconciler owns the per-session like state. It is safe for concurrent use.
type Reconciler struct {
	likes store.Likes

	mu        sync.Mutex
	principal models.Principal
	liked     map[uint]bool
	counts    map[uint]int64
	inFlight  map[uint]uint64
	nextToken uint64

	// scope increments whenever the principal is replaced so settlements
	// issued for an earlier principal are never applied to the current one.
	scope uint64

	wg sync.WaitGroup
}

// NewReconciler creates an anonymous reconciler over likes.
func NewReconciler(likes store.Likes) *Reconciler {
	return &Reconciler{
		likes:    likes,
		liked:    make(map[uint]bool),
		counts:   make(map[uint]int64),
		inFlight: make(map[uint]uint64),
	}
}

// Initialize loads the liked set of principal. An anonymous principal starts
// with nothing liked and toggles disallowed.
func (r *Reconciler) Initialize(ctx context.Context, principal models.Principal) error {
	r.mu.Lock()
	if r.principal != principal {
		r.scope++
		r.inFlight = make(map[uint]uint64)
	}
	r.principal = principal
	r.liked = make(map[uint]bool)
	scope := r.scope
	r.mu.Unlock()

	if principal.Anonymous() {
		return nil
	}

	rows, err := r.likes.ListByPrincipal(ctx, principal)
	if err != nil {
		observability.Logger.ErrorContext(ctx, "failed to load liked set",
			"principal", principal.String(), "error", err)
		return models.NewRemoteUnavailableError("load likes", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scope != scope || r.principal != principal {
		return nil
	}
	for _, row := range rows {
		if row.UserID == principal {
			r.liked[row.ArtworkID] = true
		}
	}
	return nil
}

// Seed records the stored counts of freshly fetched posts. Posts with a
// toggle in flight keep their optimistic count.
func (r *Reconciler) Seed(posts []*models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range posts {
		if _, busy := r.inFlight[p.ID]; busy {
			continue
		}
		r.counts[p.ID] = p.LikeCount
	}
}

// State returns the local state of postID and whether it is known.
func (r *Reconciler) State(postID uint) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count, ok := r.counts[postID]
	return State{Liked: r.liked[postID], Count: count}, ok
}

// Principal returns the principal the liked set belongs to.
func (r *Reconciler) Principal() models.Principal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.principal
}

// Toggle flips the like on postID locally and settles it against the store in
// the background. The returned state is the optimistic one. Only posts whose
// count has been seeded can be toggled.
//
// Cancelling ctx stops the settlement from touching local state but never
// aborts or reverts a write that has been issued.
func (r *Reconciler) Toggle(ctx context.Context, postID uint) (State, error) {
	r.mu.Lock()
	principal := r.principal
	if principal.Anonymous() {
		r.mu.Unlock()
		observability.LikeToggles.WithLabelValues("unauthenticated").Inc()
		return State{}, models.NewUnauthenticatedError("sign in to like posts")
	}
	if _, busy := r.inFlight[postID]; busy {
		r.mu.Unlock()
		observability.LikeToggles.WithLabelValues("in_flight").Inc()
		return State{}, models.NewAlreadyAppliedError(postID)
	}

	count, known := r.counts[postID]
	if !known {
		r.mu.Unlock()
		observability.LikeToggles.WithLabelValues("unknown_post").Inc()
		return State{}, models.NewNotFoundError("artwork", postID)
	}

	wasLiked := r.liked[postID]
	next := State{Liked: !wasLiked}
	if wasLiked {
		next.Count = max(0, count-1)
	} else {
		next.Count = count + 1
	}
	r.liked[postID] = next.Liked
	r.counts[postID] = next.Count

	r.nextToken++
	token := r.nextToken
	r.inFlight[postID] = token
	scope := r.scope
	r.wg.Add(1)
	r.mu.Unlock()

	if next.Liked {
		observability.LikeToggles.WithLabelValues("liked").Inc()
	} else {
		observability.LikeToggles.WithLabelValues("unliked").Inc()
	}

	go r.settle(ctx, principal, postID, next, token, scope)
	return next, nil
}

func (r *Reconciler) settle(ctx context.Context, principal models.Principal, postID uint, want State, token, scope uint64) {
	defer r.wg.Done()

	writeCtx := context.WithoutCancel(ctx)
	span, writeCtx := observability.NewSpan(writeCtx, "engagement.settle",
		attribute.Int("post.id", int(postID)),
		attribute.Bool("like.liked", want.Liked),
	)
	stored, err := r.likes.ApplyLike(writeCtx, principal, postID, want.Liked)
	span.SetError(err)
	span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scope == scope && r.inFlight[postID] == token {
		delete(r.inFlight, postID)
	}

	if err != nil {
		// The optimistic state stays; the next full refresh reseeds counts.
		observability.RemoteWriteFailures.WithLabelValues("likes").Inc()
		observability.Logger.ErrorContext(writeCtx, "like settlement failed",
			"principal", principal.String(), "post_id", postID, "liked", want.Liked, "error", err)
		return
	}
	if ctx.Err() != nil || r.scope != scope {
		return
	}
	if r.liked[postID] != want.Liked {
		return
	}
	if current := r.counts[postID]; current != stored {
		observability.SettledCountDrift.Inc()
		observability.Logger.DebugContext(ctx, "adopting stored like count",
			"post_id", postID, "optimistic", current, "stored", stored)
		r.counts[postID] = stored
	}
}

// Wait blocks until every issued settlement has completed.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// ResetScope discards the liked set and pending toggles of the previous
// principal. Seeded counts are post data and survive. Settlements still
// running complete remotely but no longer affect local state.
func (r *Reconciler) ResetScope(principal models.Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scope++
	r.principal = principal
	r.liked = make(map[uint]bool)
	r.inFlight = make(map[uint]uint64)
}
