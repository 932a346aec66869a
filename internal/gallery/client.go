// Package gallery wires the session tracker, engagement reconciler, feed,
// ownership guard and uploader into the client a UI view talks to.
package gallery

import (
	"context"
	"strings"
	"sync"

	"linesen/internal/engagement"
	"linesen/internal/feed"
	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/ownership"
	"linesen/internal/session"
	"linesen/internal/store"
	"linesen/internal/upload"
)

// Deps are the remote store collaborators of a Client.
type Deps struct {
	Identity    store.Identity
	Artworks    store.Artworks
	Profiles    store.Profiles
	Likes       store.Likes
	Objects     store.Objects
	AssetPrefix string
}

// Client is the engagement and ownership layer for one UI view.
type Client struct {
	profiles   store.Profiles
	tracker    *session.Tracker
	reconciler *engagement.Reconciler
	feed       *feed.Service
	guard      *ownership.Guard
	uploader   *upload.Uploader

	mu          sync.Mutex
	view        context.Context
	cancelView  context.CancelFunc
	unsubscribe func()
}

// New assembles a Client. Call Start before use and Close on teardown.
func New(deps Deps) *Client {
	reconciler := engagement.NewReconciler(deps.Likes)
	tracker := session.NewTracker(deps.Identity)
	tracker.Bind(reconciler)

	return &Client{
		profiles:   deps.Profiles,
		tracker:    tracker,
		reconciler: reconciler,
		feed:       feed.NewService(deps.Artworks, deps.Profiles, deps.Likes, reconciler),
		guard:      ownership.NewGuard(deps.Artworks, deps.Profiles, deps.Objects, deps.AssetPrefix),
		uploader:   upload.NewUploader(deps.Artworks, deps.Objects, deps.AssetPrefix),
	}
}

// Start resolves the current principal, loads its liked set and follows
// identity changes until Close.
func (c *Client) Start(ctx context.Context) error {
	viewCtx, cancel := context.WithCancel(ctx)
	unsubscribe := c.tracker.Subscribe(func(p models.Principal) {
		if err := c.reconciler.Initialize(viewCtx, p); err != nil {
			observability.Logger.WarnContext(viewCtx, "liked set unavailable", "error", err)
		}
	})

	c.mu.Lock()
	c.view = viewCtx
	c.cancelView = cancel
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	return c.tracker.Start(viewCtx)
}

// Principal returns the signed-in principal or models.NoPrincipal.
func (c *Client) Principal() models.Principal {
	return c.tracker.Current()
}

// CanLike reports whether like toggles are enabled.
func (c *Client) CanLike() bool {
	return !c.tracker.Current().Anonymous()
}

// Feed loads the full feed for the current viewer.
func (c *Client) Feed(ctx context.Context) ([]feed.Entry, error) {
	return c.feed.Load(observability.WithPrincipal(ctx, c.Principal().String()))
}

// MyArtworks lists the current principal's artworks.
func (c *Client) MyArtworks(ctx context.Context) ([]feed.Entry, error) {
	p := c.Principal()
	if p.Anonymous() {
		return nil, models.NewUnauthenticatedError("sign in to see your artworks")
	}
	return c.feed.ByOwner(ctx, p)
}

// LikedArtworks lists the artworks the current principal liked.
func (c *Client) LikedArtworks(ctx context.Context) ([]feed.Entry, error) {
	return c.feed.LikedBy(ctx, c.Principal())
}

// ToggleLike flips the viewer's like on postID.
func (c *Client) ToggleLike(ctx context.Context, postID uint) (engagement.State, error) {
	ctx = observability.WithPrincipal(c.bindView(ctx), c.Principal().String())
	return c.reconciler.Toggle(ctx, postID)
}

// bindView derives a context that is also cancelled when the view closes.
func (c *Client) bindView(ctx context.Context) context.Context {
	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	if view == nil {
		return ctx
	}
	ctx, cancel := context.WithCancel(ctx)
	context.AfterFunc(view, cancel)
	return ctx
}

// LikeState returns the viewer's local state for postID.
func (c *Client) LikeState(postID uint) engagement.State {
	st, _ := c.reconciler.State(postID)
	return st
}

// CanMutate reports whether the viewer owns post.
func (c *Client) CanMutate(post *models.Post) bool {
	return ownership.CanMutate(post, c.Principal())
}

// DeletePost deletes an artwork owned by the viewer after confirmation.
func (c *Client) DeletePost(ctx context.Context, postID uint, confirmer ownership.Confirmer) error {
	return c.guard.DeletePost(ctx, c.Principal(), postID, confirmer)
}

// UpdateTitle renames an artwork owned by the viewer.
func (c *Client) UpdateTitle(ctx context.Context, postID uint, title string) error {
	return c.guard.UpdateTitle(ctx, c.Principal(), postID, title)
}

// EditProfile saves the viewer's profile.
func (c *Client) EditProfile(ctx context.Context, username, bio string) (*models.Profile, error) {
	return c.guard.EditProfile(ctx, c.Principal(), username, bio)
}

// Upload publishes a new artwork owned by the viewer.
func (c *Client) Upload(ctx context.Context, req upload.Request) (*models.Post, error) {
	return c.uploader.Upload(ctx, c.Principal(), req)
}

// Handle returns the viewer's display handle: the profile username, or the
// local part of email when no profile exists.
func (c *Client) Handle(ctx context.Context, email string) (string, error) {
	p := c.Principal()
	if p.Anonymous() {
		return "", nil
	}
	profile, err := c.profiles.Get(ctx, p)
	if err != nil {
		return Handle(nil, email), err
	}
	return Handle(profile, email), nil
}

// Handle resolves a display handle from an optional profile and an e-mail.
func Handle(profile *models.Profile, email string) string {
	if profile != nil && profile.Username != "" {
		return profile.Username
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Wait blocks until every pending like settlement has finished.
func (c *Client) Wait() {
	c.reconciler.Wait()
}

// Close tears the view down: identity events are no longer followed and
// pending responses are not processed. Issued writes still complete.
func (c *Client) Close() {
	c.tracker.Close()

	c.mu.Lock()
	cancel, unsubscribe := c.cancelView, c.unsubscribe
	c.cancelView, c.unsubscribe = nil, nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
}
