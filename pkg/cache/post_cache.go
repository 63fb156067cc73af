package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/anonto42/nano-blog/backend/internal/models"
)

const (
	postListPrefix     = "posts:list:"
	postListGeneration = "posts:list:gen"
)

// PostListCache caches listing results in Redis. Invalidation bumps a
// generation counter that is part of every key, so stale entries are never
// read again and simply expire.
type PostListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPostListCache(rdb *redis.Client, ttl time.Duration) *PostListCache {
	return &PostListCache{rdb: rdb, ttl: ttl}
}

// GetPosts looks key up under the current generation and returns that
// generation. A fill after a miss must be written under it, so a result
// computed across an invalidation lands under a retired generation.
func (c *PostListCache) GetPosts(ctx context.Context, key string) ([]models.Post, string, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, "", false, err
	}
	data, err := c.rdb.Get(ctx, entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}

	var posts []models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, gen, false, err
	}
	return posts, gen, true, nil
}

func (c *PostListCache) SetPosts(ctx context.Context, generation, key string, posts []models.Post) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, entryKey(generation, key), data, c.ttl).Err()
}

func (c *PostListCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, postListGeneration).Err()
}

func (c *PostListCache) generation(ctx context.Context) (string, error) {
	gen, err := c.rdb.Get(ctx, postListGeneration).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func entryKey(generation, filterKey string) string {
	return postListPrefix + generation + ":" + filterKey
}
