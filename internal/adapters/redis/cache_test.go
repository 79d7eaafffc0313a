package redisad

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"rentals/internal/domain"
)

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_RoundTrip(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	var got domain.Review
	ok, err := c.Get(ctx, "reviews:p1", &got)
	require.NoError(t, err)
	require.False(t, ok)

	in := domain.Review{ReviewID: "rv1", PropertyID: "p1", ReviewerUserID: "u2", Rating: 4.5}
	require.NoError(t, c.Set(ctx, "reviews:p1", in, 60))
	require.Equal(t, time.Minute, mr.TTL("reviews:p1"))

	ok, err = c.Get(ctx, "reviews:p1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, in, got)

	require.NoError(t, c.Del(ctx, "reviews:p1"))
	require.False(t, mr.Exists("reviews:p1"))
}

func TestCache_Expiry(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "property:p1", map[string]string{"a": "b"}, 1))
	mr.FastForward(2 * time.Second)

	var dst map[string]string
	ok, err := c.Get(ctx, "property:p1", &dst)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocker_SingleHolder(t *testing.T) {
	c, mr := newCache(t)
	l := c.Locker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "rentals:load:lock", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "rentals:load:lock", time.Minute)
	require.ErrorIs(t, err, domain.ErrLoadInProgress)

	require.NoError(t, release(ctx))
	require.False(t, mr.Exists("rentals:load:lock"))

	again, err := l.Acquire(ctx, "rentals:load:lock", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocker_ExpiredLeaseDoesNotReleaseNewHolder(t *testing.T) {
	c, mr := newCache(t)
	l := c.Locker()
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	require.True(t, mr.Exists("k"), "stale release must not delete the new holder's key")
}
