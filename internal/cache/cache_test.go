package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/storyboard/internal/models"
	"github.com/thenoetrevino/storyboard/internal/ranking"
)

type stubBackend struct {
	calls   int
	stories []*models.Story
	err     error
	// during runs inside the fetch, after the list was read
	during func()
}

func (s *stubBackend) ListStories(_ context.Context, _ int, q ranking.Query) ([]*models.Story, error) {
	s.calls++
	stories := s.stories
	if s.during != nil {
		s.during()
		s.during = nil
	}
	if s.err != nil {
		return nil, s.err
	}
	if !q.IsZero() {
		return nil, errors.New("cache must fetch the unfiltered list")
	}
	return stories, nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func fixtures() []*models.Story {
	bv := 80
	return []*models.Story{
		{ID: 1, BoardID: 7, Title: "Search", Status: models.StatusIdea, Tags: []string{"backend"}, BusinessValue: &bv},
		{ID: 2, BoardID: 7, Title: "Dark mode", Status: models.StatusReady, Tags: []string{"frontend"}},
	}
}

func TestStoryCache_MissThenHit(t *testing.T) {
	mr, client := newRedis(t)
	base := &stubBackend{stories: fixtures()}
	c := NewStoryCache(base, client, time.Minute)
	ctx := context.Background()

	first, err := c.ListStories(ctx, 7, ranking.Query{})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, base.calls)

	ttl := mr.TTL(storiesCacheKey(7))
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected TTL %v", ttl)

	second, err := c.ListStories(ctx, 7, ranking.Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, base.calls, "second read is served from redis")
	assert.Equal(t, first[0].Title, second[0].Title)
	assert.Equal(t, 80, *second[0].BusinessValue)
}

func TestStoryCache_FiltersSnapshot(t *testing.T) {
	_, client := newRedis(t)
	base := &stubBackend{stories: fixtures()}
	c := NewStoryCache(base, client, time.Minute)
	ctx := context.Background()

	got, err := c.ListStories(ctx, 7, ranking.Query{Tags: []string{"frontend"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)

	none, err := c.ListStories(ctx, 7, ranking.Query{Text: "nope"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
	assert.Equal(t, 1, base.calls)
}

func TestStoryCache_Evict(t *testing.T) {
	mr, client := newRedis(t)
	base := &stubBackend{stories: fixtures()}
	c := NewStoryCache(base, client, time.Minute)
	ctx := context.Background()

	_, err := c.ListStories(ctx, 7, ranking.Query{})
	require.NoError(t, err)
	require.True(t, mr.Exists(storiesCacheKey(7)))

	c.Evict(ctx, 7)
	assert.False(t, mr.Exists(storiesCacheKey(7)))

	_, err = c.ListStories(ctx, 7, ranking.Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, base.calls)
}

func TestStoryCache_EvictDuringFetchIsNotOverwritten(t *testing.T) {
	mr, client := newRedis(t)
	old := fixtures()
	base := &stubBackend{stories: old}
	c := NewStoryCache(base, client, time.Hour)
	ctx := context.Background()

	// A write lands while the miss is reading sqlite
	base.during = func() {
		renamed := fixtures()
		renamed[0].Title = "Search v2"
		base.stories = renamed
		c.Evict(ctx, 7)
	}
	got, err := c.ListStories(ctx, 7, ranking.Query{})
	require.NoError(t, err)
	assert.Equal(t, "Search", got[0].Title, "the in-flight read returns what it fetched")
	assert.False(t, mr.Exists(storiesCacheKey(7)), "but does not cache it")

	got, err = c.ListStories(ctx, 7, ranking.Query{})
	require.NoError(t, err)
	assert.Equal(t, "Search v2", got[0].Title)
	assert.Equal(t, 2, base.calls)
	assert.True(t, mr.Exists(storiesCacheKey(7)), "a fetch with no eviction caches again")
}

func TestStoryCache_FallsBackWhenRedisIsDown(t *testing.T) {
	mr, client := newRedis(t)
	base := &stubBackend{stories: fixtures()}
	c := NewStoryCache(base, client, time.Minute)
	mr.Close()

	got, err := c.ListStories(context.Background(), 7, ranking.Query{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	c.Evict(context.Background(), 7)
}

func TestStoryCache_CorruptEntryIsDropped(t *testing.T) {
	mr, client := newRedis(t)
	base := &stubBackend{stories: fixtures()}
	c := NewStoryCache(base, client, time.Minute)
	require.NoError(t, mr.Set(storiesCacheKey(7), "{not json"))

	got, err := c.ListStories(context.Background(), 7, ranking.Query{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, base.calls)
}

func TestStoryCache_NilClientAndErrors(t *testing.T) {
	base := &stubBackend{err: errors.New("boom")}
	c := NewStoryCache(base, nil, time.Minute)

	_, err := c.ListStories(context.Background(), 7, ranking.Query{})
	assert.EqualError(t, err, "boom")
	c.Evict(context.Background(), 7)
}

func TestDeduper(t *testing.T) {
	mr, client := newRedis(t)
	d := NewDeduper(client, time.Hour)
	ctx := context.Background()

	added, err := d.Add(ctx, "board:1", "abc")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = d.Add(ctx, "board:1", "abc")
	require.NoError(t, err)
	assert.False(t, added)

	added, err = d.Add(ctx, "board:2", "abc")
	require.NoError(t, err)
	assert.True(t, added, "keys are scoped")

	require.NoError(t, d.Remove(ctx, "board:1", "abc"))
	assert.False(t, mr.Exists("idem:board:1:abc"))
}
