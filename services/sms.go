package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// SMSSender delivers one text message.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// NewSMSSender returns the gateway sender when SMS_GATEWAY_URL is set and
// the log fallback otherwise. The fallback prints the message (including
// OTP codes) to the log; that is deliberate development-mode behavior and
// must never be configured in production.
func NewSMSSender(log *zap.Logger) SMSSender {
	url := os.Getenv("SMS_GATEWAY_URL")
	if url == "" {
		log.Warn("SMS_GATEWAY_URL not set, OTP codes will be logged (dev mode)")
		return &logSender{log: log}
	}
	return &gatewaySender{
		url:    url,
		apiKey: os.Getenv("SMS_GATEWAY_API_KEY"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type gatewaySender struct {
	url    string
	apiKey string
	client *http.Client
}

func (s *gatewaySender) Send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"to":      phone,
		"message": message,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway: unexpected status %d", resp.StatusCode)
	}
	return nil
}

type logSender struct {
	log *zap.Logger
}

func (s *logSender) Send(_ context.Context, phone, message string) error {
	s.log.Info("sms (dev mode)", zap.String("phone", phone), zap.String("message", message))
	return nil
}
