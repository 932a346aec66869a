package upload

import (
	"context"
	"errors"
	"testing"

	"linesen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artworksStub struct {
	insertFn func(ctx context.Context, post *models.Post) error
}

func (s *artworksStub) List(context.Context) ([]*models.Post, error) { return nil, nil }
func (s *artworksStub) ListByOwner(context.Context, models.Principal) ([]*models.Post, error) {
	return nil, nil
}
func (s *artworksStub) Get(context.Context, uint) (*models.Post, error) { return nil, nil }
func (s *artworksStub) UpdateTitle(context.Context, uint, models.Principal, string) error {
	return nil
}
func (s *artworksStub) Delete(context.Context, uint, models.Principal) error { return nil }

func (s *artworksStub) Insert(ctx context.Context, post *models.Post) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, post)
	}
	post.ID = 1
	return nil
}

type objectsStub struct {
	uploaded  map[string]string
	removed   []string
	uploadErr error
}

func (s *objectsStub) Upload(_ context.Context, path string, _ []byte, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if s.uploaded == nil {
		s.uploaded = map[string]string{}
	}
	s.uploaded[path] = contentType
	return nil
}

func (s *objectsStub) PublicURL(path string) string { return "https://cdn.local/gallery/" + path }

func (s *objectsStub) Remove(_ context.Context, paths ...string) error {
	s.removed = append(s.removed, paths...)
	return nil
}

func newTestUploader(artworks *artworksStub, objects *objectsStub) *Uploader {
	u := NewUploader(artworks, objects, "vault")
	u.newName = func() string { return "fixed" }
	return u
}

var png = []byte("\x89PNG\r\n\x1a\n0000")

func TestUploader_Upload(t *testing.T) {
	objects := &objectsStub{}
	var inserted *models.Post
	artworks := &artworksStub{insertFn: func(_ context.Context, p *models.Post) error {
		p.ID = 7
		inserted = p
		return nil
	}}
	u := newTestUploader(artworks, objects)

	post, err := u.Upload(context.Background(), "A", Request{
		Title: " Night ", Artist: "ann", Filename: "Photo.PNG", Data: png,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), post.ID)
	assert.Same(t, inserted, post)
	assert.Equal(t, models.Principal("A"), post.Owner)
	assert.Equal(t, "Night", post.Title)
	assert.Equal(t, "https://cdn.local/gallery/vault/fixed.png", post.ImageURL)
	assert.True(t, post.ProtectionStatus)
	assert.Equal(t, "image/png", objects.uploaded["vault/fixed.png"])
}

func TestUploader_DetectsContentTypeWithoutExtension(t *testing.T) {
	objects := &objectsStub{}
	u := newTestUploader(&artworksStub{}, objects)

	_, err := u.Upload(context.Background(), "A", Request{Title: "x", Filename: "blob", Data: png})
	require.NoError(t, err)
	assert.Equal(t, "image/png", objects.uploaded["vault/fixed"])
}

func TestUploader_Validation(t *testing.T) {
	tests := []struct {
		name      string
		principal models.Principal
		req       Request
		want      error
	}{
		{"anonymous", models.NoPrincipal, Request{Title: "x", Data: png}, models.ErrUnauthenticated},
		{"missing file", "A", Request{Title: "x"}, models.ErrValidation},
		{"blank title", "A", Request{Title: "  ", Data: png}, models.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := &objectsStub{}
			u := newTestUploader(&artworksStub{}, objects)
			_, err := u.Upload(context.Background(), tt.principal, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, objects.uploaded)
		})
	}
}

func TestUploader_StorageFailure(t *testing.T) {
	inserted := false
	artworks := &artworksStub{insertFn: func(context.Context, *models.Post) error {
		inserted = true
		return nil
	}}
	u := newTestUploader(artworks, &objectsStub{uploadErr: errors.New("bucket offline")})

	_, err := u.Upload(context.Background(), "A", Request{Title: "x", Filename: "a.jpg", Data: png})
	assert.ErrorIs(t, err, models.ErrRemoteUnavailable)
	assert.False(t, inserted)
}

func TestUploader_InsertFailureRemovesAsset(t *testing.T) {
	objects := &objectsStub{}
	artworks := &artworksStub{insertFn: func(context.Context, *models.Post) error {
		return errors.New("insert failed")
	}}
	u := newTestUploader(artworks, objects)

	_, err := u.Upload(context.Background(), "A", Request{Title: "x", Filename: "a.jpg", Data: png})
	assert.ErrorIs(t, err, models.ErrRemoteUnavailable)
	assert.Equal(t, []string{"vault/fixed.jpg"}, objects.removed)
}
