// Package upload stores a new artwork image and registers it in the feed.
package upload

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/store"

	"github.com/google/uuid"
)

// Request is the submitted upload form.
type Request struct {
	Title       string
	Artist      string
	Filename    string
	ContentType string
	Data        []byte
}

// Uploader writes the asset first and then the artwork row.
type Uploader struct {
	artworks store.Artworks
	objects  store.Objects
	prefix   string
	newName  func() string
}

// NewUploader creates an Uploader storing assets under prefix.
func NewUploader(artworks store.Artworks, objects store.Objects, prefix string) *Uploader {
	return &Uploader{
		artworks: artworks,
		objects:  objects,
		prefix:   prefix,
		newName:  uuid.NewString,
	}
}

// Upload publishes req as an artwork owned by principal.
func (u *Uploader) Upload(ctx context.Context, principal models.Principal, req Request) (*models.Post, error) {
	if principal.Anonymous() {
		return nil, models.NewUnauthenticatedError("sign in to upload artworks")
	}
	if len(req.Data) == 0 {
		return nil, models.NewValidationError("an image file is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, models.NewValidationError("title is required")
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	key := path.Join(u.prefix, u.newName()+ext)
	contentType := req.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = http.DetectContentType(req.Data)
	}

	if err := u.objects.Upload(ctx, key, req.Data, contentType); err != nil {
		observability.RemoteWriteFailures.WithLabelValues("objects").Inc()
		return nil, models.NewRemoteUnavailableError("upload image", err)
	}

	post := &models.Post{
		Owner:            principal,
		Title:            title,
		Artist:           strings.TrimSpace(req.Artist),
		ImageURL:         u.objects.PublicURL(key),
		ProtectionStatus: true,
	}
	if err := u.artworks.Insert(ctx, post); err != nil {
		observability.RemoteWriteFailures.WithLabelValues("artworks").Inc()
		if rmErr := u.objects.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			observability.Logger.ErrorContext(ctx, "failed to clean up orphaned upload",
				"asset", key, "error", rmErr)
		}
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, models.NewRemoteUnavailableError("save artwork", err)
	}

	observability.Logger.InfoContext(ctx, "artwork uploaded",
		"principal", principal.String(), "post_id", post.ID, "asset", key)
	return post, nil
}
