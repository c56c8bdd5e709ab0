package idempotency

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ayo6706/mobile-money-ledger/internal/testutil/memstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferRequest(scope, key, hash string) Request {
	return Request{Scope: scope, Key: key, Hash: hash, Method: "POST", Path: "/api/transfer"}
}

func newCachedStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, memstore.NewKeys(), ttl), mr, client
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, memstore.NewKeys(), time.Hour)
	req := transferRequest("acct-1", "k1", "h1")

	_, err := store.Lookup(ctx, req)
	assert.ErrorIs(t, err, ErrNotFound)

	reserved, err := store.Reserve(ctx, req)
	require.NoError(t, err)
	assert.True(t, reserved)

	reserved, err = store.Reserve(ctx, req)
	require.NoError(t, err)
	assert.False(t, reserved)

	_, err = store.Lookup(ctx, req)
	assert.ErrorIs(t, err, ErrInProgress)

	_, err = store.Finalize(ctx, req, 200, []byte(`{"success":true}`), "application/json")
	require.NoError(t, err)

	rec, err := store.Lookup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Status)
	assert.Equal(t, ServedByDatabase, rec.ServedBy)
	assert.JSONEq(t, `{"success":true}`, string(rec.Body))

	_, err = store.Lookup(ctx, transferRequest("acct-1", "k1", "other"))
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestStoreScopesKeysPerCaller(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, memstore.NewKeys(), time.Hour)

	reserved, err := store.Reserve(ctx, transferRequest("acct-1", "same", "h"))
	require.NoError(t, err)
	require.True(t, reserved)

	reserved, err = store.Reserve(ctx, transferRequest("acct-2", "same", "h"))
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestStoreRelease(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, memstore.NewKeys(), time.Hour)
	req := transferRequest("acct-1", "k2", "h")

	reserved, err := store.Reserve(ctx, req)
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, store.Release(ctx, req))
	_, err = store.Lookup(ctx, req)
	assert.ErrorIs(t, err, ErrNotFound)

	reserved, err = store.Reserve(ctx, req)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestWaitForCompletion(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, memstore.NewKeys(), time.Hour)
	req := transferRequest("acct-1", "k3", "h")

	_, err := store.Reserve(ctx, req)
	require.NoError(t, err)

	go func() {
		time.Sleep(80 * time.Millisecond)
		_, _ = store.Finalize(context.Background(), req, 201, []byte("{}"), "application/json")
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	rec, err := store.WaitForCompletion(waitCtx, req)
	require.NoError(t, err)
	assert.Equal(t, 201, rec.Status)
}

func TestWaitForCompletionReportsRelease(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, memstore.NewKeys(), time.Hour)
	req := transferRequest("acct-1", "k4", "h")

	_, err := store.Reserve(ctx, req)
	require.NoError(t, err)

	go func() {
		time.Sleep(80 * time.Millisecond)
		_ = store.Release(context.Background(), req)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err = store.WaitForCompletion(waitCtx, req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinalizeWritesCache(t *testing.T) {
	ctx := context.Background()
	store, mr, client := newCachedStore(t, time.Minute)
	req := transferRequest("acct-1", "k1", "h1")

	_, err := store.Reserve(ctx, req)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cacheKey(req.storageKey())), "in-progress reservations stay out of the cache")

	_, err = store.Finalize(ctx, req, 200, []byte(`{"success":true}`), "application/json")
	require.NoError(t, err)

	raw, err := client.Get(ctx, "idempotency:acct-1:k1").Bytes()
	require.NoError(t, err)
	var cached Record
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, "h1", cached.RequestHash)
	assert.Equal(t, 200, cached.Status)
	assert.Equal(t, "application/json", cached.ContentType)
	assert.Equal(t, time.Minute, mr.TTL("idempotency:acct-1:k1"))
}

func TestLookupServesFromCache(t *testing.T) {
	ctx := context.Background()
	store, _, client := newCachedStore(t, time.Minute)
	req := transferRequest("acct-1", "k1", "h1")

	_, err := store.Reserve(ctx, req)
	require.NoError(t, err)
	_, err = store.Finalize(ctx, req, 201, []byte(`{"id":7}`), "application/json")
	require.NoError(t, err)

	// A store with an empty key table can only answer from Redis.
	cacheOnly := NewStore(client, memstore.NewKeys(), time.Minute)
	rec, err := cacheOnly.Lookup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ServedByCache, rec.ServedBy)
	assert.Equal(t, 201, rec.Status)
	assert.JSONEq(t, `{"id":7}`, string(rec.Body))
}

func TestLookupCacheHashMismatch(t *testing.T) {
	ctx := context.Background()
	store, _, client := newCachedStore(t, time.Minute)
	req := transferRequest("acct-1", "k1", "h1")

	_, err := store.Reserve(ctx, req)
	require.NoError(t, err)
	_, err = store.Finalize(ctx, req, 200, []byte(`{}`), "application/json")
	require.NoError(t, err)

	cacheOnly := NewStore(client, memstore.NewKeys(), time.Minute)
	_, err = cacheOnly.Lookup(ctx, transferRequest("acct-1", "k1", "different-body"))
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestLookupFallsBackAfterCacheExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newCachedStore(t, time.Minute)
	req := transferRequest("acct-1", "k1", "h1")

	_, err := store.Reserve(ctx, req)
	require.NoError(t, err)
	_, err = store.Finalize(ctx, req, 200, []byte(`{}`), "application/json")
	require.NoError(t, err)

	rec, err := store.Lookup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ServedByCache, rec.ServedBy)

	mr.FastForward(2 * time.Minute)
	require.False(t, mr.Exists(cacheKey(req.storageKey())))

	rec, err = store.Lookup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ServedByDatabase, rec.ServedBy)
	assert.True(t, mr.Exists(cacheKey(req.storageKey())), "database hit repopulates the cache")

	rec, err = store.Lookup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ServedByCache, rec.ServedBy)
}

func TestLookupIgnoresMalformedCacheEntry(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newCachedStore(t, time.Minute)
	req := transferRequest("acct-1", "k1", "h1")

	_, err := store.Reserve(ctx, req)
	require.NoError(t, err)
	_, err = store.Finalize(ctx, req, 200, []byte(`{}`), "application/json")
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(req.storageKey()), "not json"))

	rec, err := store.Lookup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ServedByDatabase, rec.ServedBy)
}

func TestLookupSurvivesRedisOutage(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newCachedStore(t, time.Minute)
	req := transferRequest("acct-1", "k1", "h1")

	_, err := store.Reserve(ctx, req)
	require.NoError(t, err)
	mr.Close()

	_, err = store.Finalize(ctx, req, 200, []byte(`{}`), "application/json")
	require.NoError(t, err)
	rec, err := store.Lookup(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ServedByDatabase, rec.ServedBy)
}
