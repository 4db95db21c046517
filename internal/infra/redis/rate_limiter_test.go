//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClient is an in-memory RedisClient good enough for limiter and cache
// tests; expirations are tracked but only pruned on read.
type fakeClient struct {
	mu      sync.Mutex
	values  map[string]string
	counts  map[string]int64
	expires map[string]time.Time
	incrErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		values:  make(map[string]string),
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
	}
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case string:
		f.values[key] = v
	case []byte:
		f.values[key] = string(v)
	}
	if expiration > 0 {
		f.expires[key] = time.Now().Add(expiration)
	}
	return nil
}

func (f *fakeClient) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if exp, ok := f.expires[key]; ok && time.Now().After(exp) {
		delete(f.values, key)
		delete(f.expires, key)
	}
	v, ok := f.values[key]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return v, nil
}

func (f *fakeClient) Incr(ctx context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires[key] = time.Now().Add(expiration)
	return nil
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
		delete(f.counts, k)
		delete(f.expires, k)
	}
	return nil
}

func (f *fakeClient) Close() error { return nil }

func TestRateLimiterAllow(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	rl := NewRateLimiter(client)

	key := WebhookSourceKey("10.0.0.1")
	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request %d within limit rejected", i)
		}
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow over limit: %v", err)
	}
	if ok {
		t.Fatal("request over limit accepted")
	}

	// Different source keeps its own window.
	ok, _ = rl.Allow(ctx, WebhookSourceKey("10.0.0.2"), 3, time.Minute)
	if !ok {
		t.Fatal("independent source throttled")
	}
}

func TestRateLimiterRedisDown(t *testing.T) {
	client := newFakeClient()
	client.incrErr = errors.New("connection refused")
	rl := NewRateLimiter(client)
	if _, err := rl.Allow(context.Background(), "k", 3, time.Minute); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
