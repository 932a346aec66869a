// Package store declares the remote store contract the consistency layer
// consumes: identity, the three relational collections and the object store.
package store

import (
	"context"

	"linesen/internal/models"
)

// EventKind classifies identity change notifications.
type EventKind string

const (
	SignedIn       EventKind = "SIGNED_IN"
	SignedOut      EventKind = "SIGNED_OUT"
	TokenRefreshed EventKind = "TOKEN_REFRESHED"
)

// IdentityEvent is delivered to OnChange listeners.
type IdentityEvent struct {
	Kind      EventKind
	Principal models.Principal
}

// Identity yields the current authenticated principal and change notifications.
type Identity interface {
	CurrentPrincipal(ctx context.Context) (models.Principal, error)
	// OnChange registers fn and returns the function that unregisters it.
	OnChange(fn func(IdentityEvent)) (unsubscribe func())
}

// Artworks is the `artworks` collection.
type Artworks interface {
	// List returns every artwork newest first (id descending).
	List(ctx context.Context) ([]*models.Post, error)
	ListByOwner(ctx context.Context, owner models.Principal) ([]*models.Post, error)
	Get(ctx context.Context, id uint) (*models.Post, error)
	Insert(ctx context.Context, post *models.Post) error
	// UpdateTitle and Delete only touch rows owned by owner and report
	// models.ErrNotFound when no such row exists.
	UpdateTitle(ctx context.Context, id uint, owner models.Principal, title string) error
	Delete(ctx context.Context, id uint, owner models.Principal) error
}

// Profiles is the `profiles` collection.
type Profiles interface {
	List(ctx context.Context) ([]*models.Profile, error)
	// Get returns (nil, nil) when the principal has no profile.
	Get(ctx context.Context, principal models.Principal) (*models.Profile, error)
	// Upsert inserts or replaces the profile keyed by its principal and
	// reports models.ErrNameTaken on a username uniqueness violation.
	Upsert(ctx context.Context, profile *models.Profile) error
}

// Likes is the `likes` collection together with the denormalized counter.
type Likes interface {
	ListByPrincipal(ctx context.Context, principal models.Principal) ([]models.Like, error)
	// LikedArtworks returns the artworks principal likes, newest first.
	LikedArtworks(ctx context.Context, principal models.Principal) ([]*models.Post, error)
	// ApplyLike inserts (liked=true) or deletes (liked=false) the like row for
	// (principal, artworkID) and recomputes the artwork's like_count from the
	// like rows in the same transaction. It returns the stored count.
	ApplyLike(ctx context.Context, principal models.Principal, artworkID uint, liked bool) (int64, error)
}

// Objects is the binary asset store.
type Objects interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(path string) string
	Remove(ctx context.Context, paths ...string) error
}
