// Package cache keeps ranked story lists in Redis so repeated board reads
// skip SQLite. Any Redis failure falls back to the backing service.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
)

type backend interface {
	ListStories(ctx context.Context, boardID int, q ranking.Query) ([]*models.Story, error)
}

// StoryCache wraps a story lister with a per-board Redis snapshot of the
// unfiltered list. Filters are applied to the snapshot in memory.
type StoryCache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewStoryCache creates a caching wrapper using the provided Redis client and TTL.
// A nil client disables caching.
func NewStoryCache(base backend, client *redis.Client, ttl time.Duration) *StoryCache {
	if base == nil {
		panic("cache.NewStoryCache: base is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &StoryCache{base: base, redis: client, ttl: ttl}
}

// ListStories serves the board's stories from the snapshot when present
func (c *StoryCache) ListStories(ctx context.Context, boardID int, q ranking.Query) ([]*models.Story, error) {
	stories, ok := c.load(ctx, boardID)
	if !ok {
		// Read the generation before the fetch so an eviction racing with
		// it keeps the fetched list out of redis
		gen, genOK := c.generation(ctx, boardID)
		var err error
		stories, err = c.base.ListStories(ctx, boardID, ranking.Query{})
		if err != nil {
			return nil, err
		}
		if genOK {
			c.store(ctx, boardID, gen, stories)
		}
	}

	if q.IsZero() && (q.Sort == "" || q.Sort == ranking.SortRank) {
		return stories, nil
	}
	out := ranking.Filter(stories, q)
	if out == nil {
		out = []*models.Story{}
	}
	return out, nil
}

// Evict drops the snapshot of a board and bumps its generation, so fetches
// already in flight cannot store what they read. Called after every write.
func (c *StoryCache) Evict(ctx context.Context, boardID int) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(boardID))
		pipe.Del(ctx, storiesCacheKey(boardID))
		return nil
	})
	if err != nil {
		slog.Warn("failed to evict story cache", "board_id", boardID, "error", err)
	}
}

// generation returns the board's eviction counter, "0" before the first
// eviction
func (c *StoryCache) generation(ctx context.Context, boardID int) (string, bool) {
	if c.redis == nil {
		return "", false
	}
	gen, err := c.redis.Get(ctx, generationKey(boardID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		return "", false
	}
	return gen, true
}

func (c *StoryCache) load(ctx context.Context, boardID int) ([]*models.Story, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, storiesCacheKey(boardID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, storiesCacheKey(boardID)).Err()
		}
		return nil, false
	}
	var stories []*models.Story
	if err := sonic.Unmarshal(data, &stories); err != nil {
		_ = c.redis.Del(ctx, storiesCacheKey(boardID)).Err()
		return nil, false
	}
	return stories, true
}

// storeIfCurrent writes the snapshot only while the generation still
// matches the one read before the fetch
var storeIfCurrent = redis.NewScript(`
local gen = redis.call("GET", KEYS[2])
if not gen then
	gen = "0"
end
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *StoryCache) store(ctx context.Context, boardID int, gen string, stories []*models.Story) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(stories)
	if err != nil {
		return
	}
	keys := []string{storiesCacheKey(boardID), generationKey(boardID)}
	ttl := max(c.ttl.Milliseconds(), 1)
	if err := storeIfCurrent.Run(ctx, c.redis, keys, gen, data, ttl).Err(); err != nil {
		slog.Debug("failed to store story cache", "board_id", boardID, "error", err)
	}
}

func storiesCacheKey(boardID int) string {
	return "stories:" + strconv.Itoa(boardID)
}

func generationKey(boardID int) string {
	return "stories:" + strconv.Itoa(boardID) + ":gen"
}
