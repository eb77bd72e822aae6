package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"milkrun-backend/cache"
	"milkrun-backend/config"

	"go.uber.org/zap"
)

// OTPService issues and verifies one-time codes for phone login. Codes live
// in an injectable TTL store so multi-instance deployments can share state
// through redis.
type OTPService struct {
	Store  cache.OTPStore
	Sender SMSSender
	Cfg    config.Config
	Log    *zap.Logger
}

// Request generates a 6-digit code, stores it with the configured TTL, and
// sends it to the phone. Requesting again replaces any pending code and
// resets the attempt counter.
func (s *OTPService) Request(ctx context.Context, phone string) error {
	code, err := randomCode()
	if err != nil {
		return err
	}
	if err := s.Store.Put(ctx, phone, cache.OTPRecord{Code: code}, s.Cfg.OTPTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return s.Sender.Send(ctx, phone, "Your milkrun verification code is "+code)
}

// Verify checks the submitted code. Three wrong attempts invalidate the
// stored code; the caller must request a fresh one. A successful match
// consumes the code.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	rec, found, err := s.Store.Get(ctx, phone)
	if err != nil {
		return err
	}
	if !found {
		return ErrOTPExpired
	}

	if rec.Code != code {
		rec.Attempts++
		if rec.Attempts >= s.Cfg.OTPMaxAttempts {
			if err := s.Store.Delete(ctx, phone); err != nil {
				s.Log.Error("otp invalidation failed", zap.String("phone", phone), zap.Error(err))
			}
			return ErrOTPAttemptsExceeded
		}
		if err := s.Store.Update(ctx, phone, rec); err != nil {
			return err
		}
		return ErrOTPMismatch
	}

	return s.Store.Delete(ctx, phone)
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
