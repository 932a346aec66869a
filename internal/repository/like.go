package repository

import (
	"context"

	"linesen/internal/cache"
	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type likeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewLikeRepository creates a new likes collection
func NewLikeRepository(db *gorm.DB) store.Likes {
	return &likeRepository{db: db, log: observability.NewRepoLogger("likes")}
}

func (r *likeRepository) ListByPrincipal(ctx context.Context, principal models.Principal) ([]models.Like, error) {
	var likes []models.Like
	key := cache.PrincipalLikesKey(string(principal))
	err := cache.Aside(ctx, key, &likes, cache.LikesTTL, func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ?", principal).
			Find(&likes).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "list_by_principal")
		return nil, remoteError("list likes", err)
	}
	return likes, nil
}

func (r *likeRepository) LikedArtworks(ctx context.Context, principal models.Principal) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Joins("JOIN likes ON likes.artwork_id = artworks.id").
		Where("likes.user_id = ?", principal).
		Order("artworks.id DESC").
		Find(&posts).Error
	if err != nil {
		r.log.LogError(ctx, err, "liked_artworks")
		return nil, remoteError("list liked artworks", err)
	}
	return posts, nil
}

// ApplyLike writes the like row and derives like_count from the like rows in
// one transaction. The artwork row is locked first so concurrent likers on
// the same artwork serialize instead of overwriting each other's count.
func (r *likeRepository) ApplyLike(ctx context.Context, principal models.Principal, artworkID uint, liked bool) (int64, error) {
	span, ctx := observability.StoreSpan(ctx, "apply_like", "likes")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&post, artworkID).Error; err != nil {
			return err
		}

		if liked {
			like := models.Like{UserID: principal, ArtworkID: artworkID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("user_id = ? AND artwork_id = ?", principal, artworkID).
				Delete(&models.Like{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Like{}).Where("artwork_id = ?", artworkID).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", artworkID).Update("like_count", count).Error
	})
	if err != nil {
		span.SetError(err)
		r.log.LogError(ctx, err, "apply_like")
		return 0, remoteError("apply like", err)
	}

	cache.InvalidatePrincipalLikes(ctx, string(principal))
	cache.InvalidateArtworks(ctx)
	r.log.LogWrite(ctx, "apply_like", map[string]any{
		"artwork_id": artworkID,
		"liked":      liked,
		"like_count": count,
	})
	return count, nil
}
