// Package ownership restricts edits and deletes to the principal that owns
// the resource.
package ownership

import (
	"context"
	"errors"
	"strings"

	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/storage"
	"linesen/internal/store"
)

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, post *models.Post) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, post *models.Post) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, post *models.Post) (bool, error) {
	return f(ctx, post)
}

// AlwaysConfirm confirms every action. Meant for non-interactive callers.
var AlwaysConfirm = ConfirmFunc(func(context.Context, *models.Post) (bool, error) { return true, nil })

// CanMutate reports whether principal may edit or delete post.
func CanMutate(post *models.Post, principal models.Principal) bool {
	return post != nil && !principal.Anonymous() && post.Owner == principal
}

// Guard performs owner-checked mutations against the remote store.
type Guard struct {
	artworks    store.Artworks
	profiles    store.Profiles
	objects     store.Objects
	assetPrefix string
}

// NewGuard creates a Guard. assetPrefix is the object-store folder that holds
// artwork images.
func NewGuard(artworks store.Artworks, profiles store.Profiles, objects store.Objects, assetPrefix string) *Guard {
	return &Guard{
		artworks:    artworks,
		profiles:    profiles,
		objects:     objects,
		assetPrefix: assetPrefix,
	}
}

// DeletePost deletes the artwork row and then its stored image. A failed
// image removal after a successful row delete yields models.ErrPartialDelete.
func (g *Guard) DeletePost(ctx context.Context, principal models.Principal, postID uint, confirmer Confirmer) error {
	post, err := g.owned(ctx, principal, postID)
	if err != nil {
		return err
	}

	ok, err := confirmer.Confirm(ctx, post)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotConfirmedError("delete")
	}

	if err := g.artworks.Delete(ctx, post.ID, principal); err != nil {
		observability.RemoteWriteFailures.WithLabelValues("artworks").Inc()
		return remote("delete artwork", err)
	}

	key, ok := storage.AssetKey(g.assetPrefix, post.ImageURL)
	if !ok {
		observability.Logger.WarnContext(ctx, "artwork has no asset to remove",
			"post_id", post.ID, "image_url", post.ImageURL)
		return nil
	}
	if err := g.objects.Remove(ctx, key); err != nil {
		observability.PartialDeletes.Inc()
		observability.Logger.ErrorContext(ctx, "asset removal failed after delete",
			"post_id", post.ID, "asset", key, "error", err)
		return models.NewPartialDeleteError(key, err)
	}
	return nil
}

// UpdateTitle renames an artwork owned by principal.
func (g *Guard) UpdateTitle(ctx context.Context, principal models.Principal, postID uint, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.NewValidationError("title is required")
	}
	post, err := g.owned(ctx, principal, postID)
	if err != nil {
		return err
	}
	if err := g.artworks.UpdateTitle(ctx, post.ID, principal, title); err != nil {
		observability.RemoteWriteFailures.WithLabelValues("artworks").Inc()
		return remote("update title", err)
	}
	return nil
}

// EditProfile upserts the profile of principal. The username is normalized
// to lowercase with whitespace replaced by underscores.
func (g *Guard) EditProfile(ctx context.Context, principal models.Principal, username, bio string) (*models.Profile, error) {
	if principal.Anonymous() {
		return nil, models.NewUnauthenticatedError("sign in to edit your profile")
	}
	username = models.NormalizeUsername(username)
	if username == "" {
		return nil, models.NewValidationError("username is required")
	}

	profile := &models.Profile{ID: principal, Username: username, Bio: strings.TrimSpace(bio)}
	if err := g.profiles.Upsert(ctx, profile); err != nil {
		if !errors.Is(err, models.ErrNameTaken) {
			observability.RemoteWriteFailures.WithLabelValues("profiles").Inc()
		}
		return nil, remote("save profile", err)
	}
	return profile, nil
}

func (g *Guard) owned(ctx context.Context, principal models.Principal, postID uint) (*models.Post, error) {
	if principal.Anonymous() {
		return nil, models.NewUnauthenticatedError("sign in to manage your artworks")
	}
	post, err := g.artworks.Get(ctx, postID)
	if err != nil {
		return nil, remote("load artwork", err)
	}
	if !CanMutate(post, principal) {
		return nil, models.NewUnauthorizedError("only the owner can modify this artwork")
	}
	return post, nil
}

// remote keeps taxonomy errors and wraps anything else as a store failure.
func remote(op string, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewRemoteUnavailableError(op, err)
}
