package feed

import (
	"context"

	"linesen/internal/engagement"
	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/store"

	"golang.org/x/sync/errgroup"
)

// Service loads assembled feeds from the remote store.
type Service struct {
	artworks   store.Artworks
	profiles   store.Profiles
	likes      store.Likes
	reconciler *engagement.Reconciler
}

// NewService creates a feed service. reconciler may be nil for read-only views.
func NewService(artworks store.Artworks, profiles store.Profiles, likes store.Likes, reconciler *engagement.Reconciler) *Service {
	return &Service{
		artworks:   artworks,
		profiles:   profiles,
		likes:      likes,
		reconciler: reconciler,
	}
}

// Load returns the full feed. On a read failure it returns an empty feed
// together with the logged error.
func (s *Service) Load(ctx context.Context) ([]Entry, error) {
	return s.load(ctx, "feed", s.artworks.List)
}

// ByOwner returns the artworks of owner, newest first.
func (s *Service) ByOwner(ctx context.Context, owner models.Principal) ([]Entry, error) {
	return s.load(ctx, "owner", func(ctx context.Context) ([]*models.Post, error) {
		return s.artworks.ListByOwner(ctx, owner)
	})
}

// LikedBy returns the artworks principal has liked, newest first.
func (s *Service) LikedBy(ctx context.Context, principal models.Principal) ([]Entry, error) {
	if principal.Anonymous() {
		return []Entry{}, nil
	}
	return s.load(ctx, "liked", func(ctx context.Context) ([]*models.Post, error) {
		return s.likes.LikedArtworks(ctx, principal)
	})
}

func (s *Service) load(ctx context.Context, view string, fetch func(context.Context) ([]*models.Post, error)) ([]Entry, error) {
	ctx = observability.WithView(ctx, view)

	var (
		posts    []*models.Post
		profiles []*models.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = fetch(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		profiles, err = s.profiles.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		observability.Logger.ErrorContext(ctx, "failed to load feed", "error", err)
		return []Entry{}, models.NewRemoteUnavailableError("load "+view, err)
	}

	entries := Assemble(posts, profiles)
	if s.reconciler == nil {
		return entries, nil
	}

	s.reconciler.Seed(posts)
	for i := range entries {
		if st, ok := s.reconciler.State(entries[i].ID); ok {
			entries[i].Liked = st.Liked
			entries[i].LikeCount = st.Count
		}
	}
	return entries, nil
}
