package ownership

import (
	"context"
	"errors"
	"testing"

	"linesen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artworksStub struct {
	getFn         func(ctx context.Context, id uint) (*models.Post, error)
	updateTitleFn func(ctx context.Context, id uint, owner models.Principal, title string) error
	deleteFn      func(ctx context.Context, id uint, owner models.Principal) error
}

func (s *artworksStub) List(context.Context) ([]*models.Post, error) { return nil, nil }
func (s *artworksStub) ListByOwner(context.Context, models.Principal) ([]*models.Post, error) {
	return nil, nil
}
func (s *artworksStub) Insert(context.Context, *models.Post) error { return nil }

func (s *artworksStub) Get(ctx context.Context, id uint) (*models.Post, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, models.NewNotFoundError("artwork", id)
}

func (s *artworksStub) UpdateTitle(ctx context.Context, id uint, owner models.Principal, title string) error {
	if s.updateTitleFn != nil {
		return s.updateTitleFn(ctx, id, owner, title)
	}
	return nil
}

func (s *artworksStub) Delete(ctx context.Context, id uint, owner models.Principal) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id, owner)
	}
	return nil
}

type profilesStub struct {
	upsertFn func(ctx context.Context, profile *models.Profile) error
}

func (s *profilesStub) List(context.Context) ([]*models.Profile, error) { return nil, nil }
func (s *profilesStub) Get(context.Context, models.Principal) (*models.Profile, error) {
	return nil, nil
}

func (s *profilesStub) Upsert(ctx context.Context, profile *models.Profile) error {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, profile)
	}
	return nil
}

type objectsStub struct {
	removed  []string
	removeFn func(ctx context.Context, paths ...string) error
}

func (s *objectsStub) Upload(context.Context, string, []byte, string) error { return nil }
func (s *objectsStub) PublicURL(path string) string { return "https://cdn.local/" + path }

func (s *objectsStub) Remove(ctx context.Context, paths ...string) error {
	s.removed = append(s.removed, paths...)
	if s.removeFn != nil {
		return s.removeFn(ctx, paths...)
	}
	return nil
}

func ownedBy(owner models.Principal) *artworksStub {
	return &artworksStub{
		getFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, Owner: owner, ImageURL: "https://cdn.local/gallery/vault/a1.png"}, nil
		},
	}
}

func TestCanMutate(t *testing.T) {
	t.Parallel()
	post := &models.Post{ID: 1, Owner: "A"}
	tests := []struct {
		name      string
		post      *models.Post
		principal models.Principal
		want      bool
	}{
		{"owner", post, "A", true},
		{"anonymous", post, models.NoPrincipal, false},
		{"other principal", post, "B", false},
		{"nil post", nil, "A", false},
		{"ownerless post anonymous", &models.Post{ID: 2}, models.NoPrincipal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMutate(tt.post, tt.principal))
		})
	}
}

func TestGuard_DeletePost(t *testing.T) {
	t.Run("removes row then asset", func(t *testing.T) {
		var order []string
		artworks := ownedBy("A")
		artworks.deleteFn = func(_ context.Context, id uint, owner models.Principal) error {
			assert.Equal(t, models.Principal("A"), owner)
			order = append(order, "row")
			return nil
		}
		objects := &objectsStub{removeFn: func(context.Context, ...string) error {
			order = append(order, "asset")
			return nil
		}}
		g := NewGuard(artworks, &profilesStub{}, objects, "vault")

		require.NoError(t, g.DeletePost(context.Background(), "A", 1, AlwaysConfirm))
		assert.Equal(t, []string{"row", "asset"}, order)
		assert.Equal(t, []string{"vault/a1.png"}, objects.removed)
	})

	t.Run("anonymous", func(t *testing.T) {
		g := NewGuard(ownedBy("A"), &profilesStub{}, &objectsStub{}, "vault")
		err := g.DeletePost(context.Background(), models.NoPrincipal, 1, AlwaysConfirm)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("not owner", func(t *testing.T) {
		deleted := false
		artworks := ownedBy("A")
		artworks.deleteFn = func(context.Context, uint, models.Principal) error {
			deleted = true
			return nil
		}
		g := NewGuard(artworks, &profilesStub{}, &objectsStub{}, "vault")
		err := g.DeletePost(context.Background(), "B", 1, AlwaysConfirm)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
		assert.False(t, deleted)
	})

	t.Run("declined", func(t *testing.T) {
		objects := &objectsStub{}
		g := NewGuard(ownedBy("A"), &profilesStub{}, objects, "vault")
		decline := ConfirmFunc(func(context.Context, *models.Post) (bool, error) { return false, nil })
		err := g.DeletePost(context.Background(), "A", 1, decline)
		assert.ErrorIs(t, err, models.ErrNotConfirmed)
		assert.Empty(t, objects.removed)
	})

	t.Run("row failure is not partial", func(t *testing.T) {
		artworks := ownedBy("A")
		artworks.deleteFn = func(context.Context, uint, models.Principal) error {
			return errors.New("connection refused")
		}
		objects := &objectsStub{}
		g := NewGuard(artworks, &profilesStub{}, objects, "vault")
		err := g.DeletePost(context.Background(), "A", 1, AlwaysConfirm)
		assert.ErrorIs(t, err, models.ErrRemoteUnavailable)
		assert.NotErrorIs(t, err, models.ErrPartialDelete)
		assert.Empty(t, objects.removed)
	})

	t.Run("asset failure is partial", func(t *testing.T) {
		objects := &objectsStub{removeFn: func(context.Context, ...string) error {
			return errors.New("bucket unreachable")
		}}
		g := NewGuard(ownedBy("A"), &profilesStub{}, objects, "vault")
		err := g.DeletePost(context.Background(), "A", 1, AlwaysConfirm)
		assert.ErrorIs(t, err, models.ErrPartialDelete)
		assert.Contains(t, err.Error(), "vault/a1.png")
	})

	t.Run("missing artwork", func(t *testing.T) {
		g := NewGuard(&artworksStub{}, &profilesStub{}, &objectsStub{}, "vault")
		err := g.DeletePost(context.Background(), "A", 99, AlwaysConfirm)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestGuard_UpdateTitle(t *testing.T) {
	var got string
	artworks := ownedBy("A")
	artworks.updateTitleFn = func(_ context.Context, _ uint, _ models.Principal, title string) error {
		got = title
		return nil
	}
	g := NewGuard(artworks, &profilesStub{}, &objectsStub{}, "vault")

	require.NoError(t, g.UpdateTitle(context.Background(), "A", 1, "  Dusk  "))
	assert.Equal(t, "Dusk", got)

	assert.ErrorIs(t, g.UpdateTitle(context.Background(), "B", 1, "Dawn"), models.ErrUnauthorized)
	assert.ErrorIs(t, g.UpdateTitle(context.Background(), "A", 1, "   "), models.ErrValidation)
}

func TestGuard_EditProfile(t *testing.T) {
	t.Run("normalizes username", func(t *testing.T) {
		var saved *models.Profile
		profiles := &profilesStub{upsertFn: func(_ context.Context, p *models.Profile) error {
			saved = p
			return nil
		}}
		g := NewGuard(&artworksStub{}, profiles, &objectsStub{}, "vault")

		p, err := g.EditProfile(context.Background(), "A", "Ann Smith", " painter ")
		require.NoError(t, err)
		assert.Equal(t, "ann_smith", p.Username)
		assert.Equal(t, "painter", p.Bio)
		assert.Equal(t, models.Principal("A"), saved.ID)
	})

	t.Run("name taken", func(t *testing.T) {
		profiles := &profilesStub{upsertFn: func(_ context.Context, p *models.Profile) error {
			return models.NewNameTakenError(p.Username, errors.New("23505"))
		}}
		g := NewGuard(&artworksStub{}, profiles, &objectsStub{}, "vault")
		_, err := g.EditProfile(context.Background(), "A", "ann", "")
		assert.ErrorIs(t, err, models.ErrNameTaken)
	})

	t.Run("anonymous", func(t *testing.T) {
		g := NewGuard(&artworksStub{}, &profilesStub{}, &objectsStub{}, "vault")
		_, err := g.EditProfile(context.Background(), models.NoPrincipal, "ann", "")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("blank username", func(t *testing.T) {
		g := NewGuard(&artworksStub{}, &profilesStub{}, &objectsStub{}, "vault")
		_, err := g.EditProfile(context.Background(), "A", "   ", "")
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("store failure", func(t *testing.T) {
		profiles := &profilesStub{upsertFn: func(context.Context, *models.Profile) error {
			return errors.New("timeout")
		}}
		g := NewGuard(&artworksStub{}, profiles, &objectsStub{}, "vault")
		_, err := g.EditProfile(context.Background(), "A", "ann", "")
		assert.ErrorIs(t, err, models.ErrRemoteUnavailable)
	})
}
