package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runOTPStoreSuite(t *testing.T, store OTPStore, expire func(d time.Duration)) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "+911111111111", OTPRecord{Code: "482910"}, time.Minute))

		rec, found, err := store.Get(ctx, "+911111111111")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "482910", rec.Code)
		assert.Zero(t, rec.Attempts)
	})

	t.Run("missing phone", func(t *testing.T) {
		_, found, err := store.Get(ctx, "+910000000000")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("update keeps the code, bumps attempts", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "+912222222222", OTPRecord{Code: "123456"}, time.Minute))
		require.NoError(t, store.Update(ctx, "+912222222222", OTPRecord{Code: "123456", Attempts: 2}))

		rec, found, err := store.Get(ctx, "+912222222222")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 2, rec.Attempts)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "+913333333333", OTPRecord{Code: "999999"}, time.Minute))
		require.NoError(t, store.Delete(ctx, "+913333333333"))

		_, found, err := store.Get(ctx, "+913333333333")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "+914444444444", OTPRecord{Code: "555555"}, 50*time.Millisecond))
		expire(time.Second)

		_, found, err := store.Get(ctx, "+914444444444")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestMemoryOTPStore(t *testing.T) {
	store := NewMemoryOTPStore()
	t.Cleanup(store.Close)
	runOTPStoreSuite(t, store, func(d time.Duration) { time.Sleep(100 * time.Millisecond) })
}

func TestRedisOTPStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisOTPStoreWithClient(client)
	runOTPStoreSuite(t, store, mr.FastForward)

	t.Run("update does not extend the ttl", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, store.Put(ctx, "+915555555555", OTPRecord{Code: "111111"}, time.Minute))
		require.NoError(t, store.Update(ctx, "+915555555555", OTPRecord{Code: "111111", Attempts: 1}))

		mr.FastForward(2 * time.Minute)
		_, found, err := store.Get(ctx, "+915555555555")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
