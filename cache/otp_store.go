package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRecord is one pending verification code.
type OTPRecord struct {
	Code     string `json:"code"`
	Attempts int    `json:"attempts"`
}

// OTPStore is a TTL key-value store for pending OTPs, keyed by phone number.
// Implementations must expire records on their own; callers never sweep.
type OTPStore interface {
	Put(ctx context.Context, phone string, rec OTPRecord, ttl time.Duration) error
	// Get returns (record, found). Expired records count as not found.
	Get(ctx context.Context, phone string) (OTPRecord, bool, error)
	// Update rewrites a record without extending its TTL.
	Update(ctx context.Context, phone string, rec OTPRecord) error
	Delete(ctx context.Context, phone string) error
}

// RedisOTPStore is the production store; suitable for multi-instance
// deployments since OTP state survives a single process restart.
type RedisOTPStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisOTPStore(addr, password string, db int) (*RedisOTPStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisOTPStore{client: client, keyPrefix: "otp:"}, nil
}

// NewRedisOTPStoreWithClient wraps an existing client; useful for tests.
func NewRedisOTPStoreWithClient(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client, keyPrefix: "otp:"}
}

func (s *RedisOTPStore) Put(ctx context.Context, phone string, rec OTPRecord, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keyPrefix+phone, payload, ttl).Err()
}

func (s *RedisOTPStore) Get(ctx context.Context, phone string) (OTPRecord, bool, error) {
	var rec OTPRecord
	payload, err := s.client.Get(ctx, s.keyPrefix+phone).Bytes()
	if err == redis.Nil {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	if err := json.Unmarshal(payload, &rec); err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

func (s *RedisOTPStore) Update(ctx context.Context, phone string, rec OTPRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// KeepTTL preserves the original expiry; an attempt bump must not
	// extend the code's lifetime.
	return s.client.Set(ctx, s.keyPrefix+phone, payload, redis.KeepTTL).Err()
}

func (s *RedisOTPStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, s.keyPrefix+phone).Err()
}

// MemoryOTPStore backs development and tests. State is process-local and
// does not survive restarts; a background sweep prunes expired records every
// 10 minutes (Get also checks expiry, so the sweep is purely for memory).
type MemoryOTPStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	done    chan struct{}
	once    sync.Once
}

type memoryRecord struct {
	rec       OTPRecord
	expiresAt time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	s := &MemoryOTPStore{
		records: make(map[string]memoryRecord),
		done:    make(chan struct{}),
	}
	go s.sweep(10 * time.Minute)
	return s
}

func (s *MemoryOTPStore) Put(_ context.Context, phone string, rec OTPRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[phone] = memoryRecord{rec: rec, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, phone string) (OTPRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[phone]
	if !ok || time.Now().After(m.expiresAt) {
		delete(s.records, phone)
		return OTPRecord{}, false, nil
	}
	return m.rec, true, nil
}

func (s *MemoryOTPStore) Update(_ context.Context, phone string, rec OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[phone]
	if !ok {
		return nil
	}
	m.rec = rec
	s.records[phone] = m
	return nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, phone)
	return nil
}

// Close stops the sweep goroutine.
func (s *MemoryOTPStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryOTPStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for phone, m := range s.records {
				if now.After(m.expiresAt) {
					delete(s.records, phone)
				}
			}
			s.mu.Unlock()
		}
	}
}
