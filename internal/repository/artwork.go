package repository

import (
	"context"

	"linesen/internal/cache"
	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/store"

	"gorm.io/gorm"
)

// artworkRepository implements store.Artworks
type artworkRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewArtworkRepository creates a new artworks collection
func NewArtworkRepository(db *gorm.DB) store.Artworks {
	return &artworkRepository{db: db, log: observability.NewRepoLogger("artworks")}
}

func (r *artworkRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, cache.ArtworksListKey, &posts, cache.ListTTL, func() error {
		return r.db.WithContext(ctx).Order("id DESC").Find(&posts).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "list")
		return nil, remoteError("list artworks", err)
	}
	return posts, nil
}

func (r *artworkRepository) ListByOwner(ctx context.Context, owner models.Principal) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		r.log.LogError(ctx, err, "list_by_owner")
		return nil, remoteError("list artworks by owner", err)
	}
	return posts, nil
}

func (r *artworkRepository) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, remoteError("get artwork", err)
	}
	return &post, nil
}

func (r *artworkRepository) Insert(ctx context.Context, post *models.Post) error {
	span, ctx := observability.StoreSpan(ctx, "insert", "artworks")
	defer span.End()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		span.SetError(err)
		r.log.LogError(ctx, err, "insert")
		return remoteError("insert artwork", err)
	}
	cache.InvalidateArtworks(ctx)
	r.log.LogWrite(ctx, "insert", map[string]any{"artwork_id": post.ID})
	return nil
}

func (r *artworkRepository) UpdateTitle(ctx context.Context, id uint, owner models.Principal, title string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND user_id = ?", id, owner).
		Update("title", title)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update_title")
		return remoteError("update artwork title", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("artwork", id)
	}
	cache.InvalidateArtworks(ctx)
	return nil
}

// Delete removes the artwork owned by owner together with its like rows.
func (r *artworkRepository) Delete(ctx context.Context, id uint, owner models.Principal) error {
	span, ctx := observability.StoreSpan(ctx, "delete", "artworks")
	defer span.End()

	var likers []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, owner).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("artwork", id)
		}
		if err := tx.Model(&models.Like{}).Where("artwork_id = ?", id).Pluck("user_id", &likers).Error; err != nil {
			return err
		}
		return tx.Where("artwork_id = ?", id).Delete(&models.Like{}).Error
	})
	if err != nil {
		span.SetError(err)
		r.log.LogError(ctx, err, "delete")
		return remoteError("delete artwork", err)
	}

	cache.InvalidateArtworks(ctx)
	for _, p := range likers {
		cache.InvalidatePrincipalLikes(ctx, p)
	}
	r.log.LogWrite(ctx, "delete", map[string]any{"artwork_id": id, "likes_removed": len(likers)})
	return nil
}
