package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ArtworksListKey         = "artworks:list"
	PrincipalLikesKeyPrefix = "likes:principal:%s"
)

const (
	ListTTL  = 2 * time.Minute
	LikesTTL = 10 * time.Minute
)

// PrincipalLikesKey is the key of a principal's cached like rows.
func PrincipalLikesKey(principal string) string {
	return fmt.Sprintf(PrincipalLikesKeyPrefix, principal)
}

// Invalidate deletes keys and bumps their generations so fills started
// before the call are discarded.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	_, _ = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
}

func InvalidateArtworks(ctx context.Context) {
	Invalidate(ctx, ArtworksListKey)
}

func InvalidatePrincipalLikes(ctx context.Context, principal string) {
	Invalidate(ctx, PrincipalLikesKey(principal))
}
