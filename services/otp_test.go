package services

import (
	"context"
	"testing"
	"time"

	"milkrun-backend/cache"
	"milkrun-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	phone   string
	message string
}

func (s *captureSender) Send(_ context.Context, phone, message string) error {
	s.phone = phone
	s.message = message
	return nil
}

func newTestOTPService(t *testing.T) (*OTPService, *captureSender) {
	t.Helper()
	store := cache.NewMemoryOTPStore()
	t.Cleanup(store.Close)
	sender := &captureSender{}
	svc := &OTPService{
		Store:  store,
		Sender: sender,
		Cfg:    config.Config{OTPTTL: 5 * time.Minute, OTPMaxAttempts: 3},
		Log:    testLogger(),
	}
	return svc, sender
}

func TestOTPRequestAndVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path consumes the code", func(t *testing.T) {
		svc, sender := newTestOTPService(t)
		require.NoError(t, svc.Request(ctx, "+911234567890"))
		assert.Equal(t, "+911234567890", sender.phone)

		rec, found, err := svc.Store.Get(ctx, "+911234567890")
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, rec.Code, 6)
		assert.Contains(t, sender.message, rec.Code)

		require.NoError(t, svc.Verify(ctx, "+911234567890", rec.Code))

		// Consumed: a second verify fails.
		assert.ErrorIs(t, svc.Verify(ctx, "+911234567890", rec.Code), ErrOTPExpired)
	})

	t.Run("wrong code three times invalidates it", func(t *testing.T) {
		svc, _ := newTestOTPService(t)
		require.NoError(t, svc.Request(ctx, "+911234567891"))
		rec, _, _ := svc.Store.Get(ctx, "+911234567891")

		assert.ErrorIs(t, svc.Verify(ctx, "+911234567891", "000000"), ErrOTPMismatch)
		assert.ErrorIs(t, svc.Verify(ctx, "+911234567891", "000000"), ErrOTPMismatch)
		assert.ErrorIs(t, svc.Verify(ctx, "+911234567891", "000000"), ErrOTPAttemptsExceeded)

		// Even the right code no longer works.
		assert.ErrorIs(t, svc.Verify(ctx, "+911234567891", rec.Code), ErrOTPExpired)
	})

	t.Run("re-request replaces the pending code", func(t *testing.T) {
		svc, _ := newTestOTPService(t)
		require.NoError(t, svc.Request(ctx, "+911234567892"))
		assert.ErrorIs(t, svc.Verify(ctx, "+911234567892", "000000"), ErrOTPMismatch)

		require.NoError(t, svc.Request(ctx, "+911234567892"))
		rec, found, err := svc.Store.Get(ctx, "+911234567892")
		require.NoError(t, err)
		require.True(t, found)
		assert.Zero(t, rec.Attempts)
	})

	t.Run("unknown phone", func(t *testing.T) {
		svc, _ := newTestOTPService(t)
		assert.ErrorIs(t, svc.Verify(ctx, "+910000000000", "123456"), ErrOTPExpired)
	})
}
