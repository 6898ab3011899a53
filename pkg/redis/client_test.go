package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/homestead-backend/pkg/config"
)

func TestWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i := 1; i <= 3; i++ {
		allowed, count, err := client.WindowAllow(ctx, "receipt_scan", "house-a", 2, time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != int64(i) || allowed != (i <= 2) {
			t.Fatalf("hit %d: allowed=%v count=%d", i, allowed, count)
		}
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected a single expire for the window, got %d", len(mock.expireCalls))
	}
	if mock.expireCalls[0].ttl != time.Hour {
		t.Fatalf("unexpected window ttl %v", mock.expireCalls[0].ttl)
	}

	allowed, _, err := client.WindowAllow(ctx, "receipt_scan", "house-b", 2, time.Hour)
	if err != nil || !allowed {
		t.Fatalf("other subjects have their own window, allowed=%v err=%v", allowed, err)
	}
}

func TestWindowKeyRollsOver(t *testing.T) {
	base := time.Date(2026, 3, 4, 10, 59, 0, 0, time.UTC)
	a := windowKey("receipt_scan", "house", time.Hour, base)
	b := windowKey("receipt_scan", "house", time.Hour, base.Add(30*time.Second))
	c := windowKey("receipt_scan", "house", time.Hour, base.Add(2*time.Minute))
	if a != b {
		t.Fatalf("same window should share a key: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("next window should use a new key: %s", c)
	}
	if !strings.HasPrefix(a, "hs:throttle:receipt_scan:house:") {
		t.Fatalf("unexpected key %s", a)
	}
}

func TestConfirmationClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	k := ConfirmationKey("household", "user", "abc")

	claimed, existing, err := client.ClaimConfirmation(ctx, k, "pending", time.Minute)
	if err != nil || !claimed || existing != "" {
		t.Fatalf("expected first claim, claimed=%v existing=%q err=%v", claimed, existing, err)
	}

	claimed, existing, err = client.ClaimConfirmation(ctx, k, "pending", time.Minute)
	if err != nil || claimed || existing != "pending" {
		t.Fatalf("expected second claim to see placeholder, claimed=%v existing=%q err=%v", claimed, existing, err)
	}

	if err := client.SaveConfirmation(ctx, k, "done", time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, existing, _ = client.ClaimConfirmation(ctx, k, "pending", time.Minute)
	if existing != "done" {
		t.Fatalf("expected saved record, got %q", existing)
	}

	if err := client.ReleaseConfirmation(ctx, k); err != nil {
		t.Fatalf("release: %v", err)
	}
	claimed, _, _ = client.ClaimConfirmation(ctx, k, "pending", time.Minute)
	if !claimed {
		t.Fatal("expected claim after release")
	}
}

func TestConfirmationKeyIsScopedAndBounded(t *testing.T) {
	long := strings.Repeat("k", 4096)
	a := ConfirmationKey("house-a", "user", long)
	b := ConfirmationKey("house-b", "user", long)
	if a == b {
		t.Fatal("households must not share confirmation keys")
	}
	if len(a) > 80 {
		t.Fatalf("key not bounded: %d chars", len(a))
	}
	if !strings.HasPrefix(a, "hs:confirm:house-a:user:") {
		t.Fatalf("unexpected key %s", a)
	}
}

func TestUninitializedClient(t *testing.T) {
	var nilClient *Client
	if err := nilClient.Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	client := &Client{}
	if _, _, err := client.WindowAllow(context.Background(), "b", "s", 1, time.Second); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close should be a no-op, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://:secret@cache.internal:6380/2",
		PoolSize:    15,
		DialTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache.internal:6380" || opts.DB != 2 || opts.Password != "secret" {
		t.Fatalf("url not applied: %+v", opts)
	}
	if opts.PoolSize != 15 || opts.DialTimeout != 3*time.Second {
		t.Fatalf("pool settings not applied: pool=%d dial=%v", opts.PoolSize, opts.DialTimeout)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
