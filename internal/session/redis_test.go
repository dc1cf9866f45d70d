package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestLoad_NotFound(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	values, err := store.Load(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Nil(t, values)
}

func TestSaveThenLoad(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	values := map[string]json.RawMessage{
		"cart":    json.RawMessage(`{"7":{"product_id":7,"quantity":2,"price":"19.99"}}`),
		"user_id": json.RawMessage(`"u-123"`),
	}

	require.NoError(t, store.Save(ctx, "sid-1", values))

	loaded, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, values, loaded)
}

func TestLoad_CorruptRecord(t *testing.T) {
	store, mr, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, mr.Set(sessionKey("sid-2"), `{"cart": {broken`))

	values, err := store.Load(context.Background(), "sid-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Nil(t, values)
}

func TestDelete(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	values := map[string]json.RawMessage{"cart": json.RawMessage(`{}`)}
	require.NoError(t, store.Save(ctx, "sid-3", values))

	require.NoError(t, store.Delete(ctx, "sid-3"))

	_, err := store.Load(ctx, "sid-3")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLoad_StoreDownDegradesToEmpty(t *testing.T) {
	store, mr, cleanup := setupTestStore(t)
	defer cleanup()

	mr.Close()

	// every attempt fails; once the breaker trips the error still surfaces
	// as a missing session, never as a request failure
	for i := 0; i < 10; i++ {
		_, err := store.Load(context.Background(), "sid-4")
		require.Error(t, err)
	}
	_, err := store.Load(context.Background(), "sid-4")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_GetSetDelete(t *testing.T) {
	s := New("sid", nil)

	assert.False(t, s.Modified())

	require.NoError(t, s.Set("user_id", "u-1"))
	assert.True(t, s.Modified())

	var userID string
	require.True(t, s.Get("user_id", &userID))
	assert.Equal(t, "u-1", userID)

	var missing string
	assert.False(t, s.Get("nope", &missing))

	s.Delete("user_id")
	assert.False(t, s.Get("user_id", &userID))
}

func TestSession_GetCorruptValue(t *testing.T) {
	s := New("sid", map[string]json.RawMessage{
		"cart": json.RawMessage(`not json`),
	})

	var cart map[string]any
	assert.False(t, s.Get("cart", &cart))
}
