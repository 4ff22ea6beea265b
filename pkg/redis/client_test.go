package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestJSONCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	type snapshot struct {
		TotalItems int    `json:"total_items"`
		TotalValue string `json:"total_value"`
	}

	var miss snapshot
	found, err := client.GetJSON(ctx, client.CacheKey("dashboard"), &miss)
	if err != nil {
		t.Fatalf("unexpected error on miss: %v", err)
	}
	if found {
		t.Fatal("expected cache miss")
	}

	want := snapshot{TotalItems: 4, TotalValue: "120.50"}
	if err := client.SetJSON(ctx, client.CacheKey("dashboard"), want, time.Minute); err != nil {
		t.Fatalf("set json: %v", err)
	}
	var got snapshot
	found, err = client.GetJSON(ctx, client.CacheKey("dashboard"), &got)
	if err != nil || !found {
		t.Fatalf("expected cache hit, found=%v err=%v", found, err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if err := client.Del(ctx, client.CacheKey("dashboard")); err != nil {
		t.Fatalf("del: %v", err)
	}
	found, _ = client.GetJSON(ctx, client.CacheKey("dashboard"), &got)
	if found {
		t.Fatal("expected miss after delete")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "inv:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.AccessSessionKey("abc"); got != "inv:session:access:abc" {
		t.Fatalf("unexpected session key %s", got)
	}
	if got := client.CacheKey("reports", "dashboard"); got != "inv:cache:reports:dashboard" {
		t.Fatalf("unexpected cache key %s", got)
	}
	if got := client.LockKey("alert_sweep"); got != "inv:lock:alert_sweep" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.CacheKey("reports", ""); got != "inv:cache:reports" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

type mockCmdable struct {
	data  map[string]string
	incr  map[string]int64
	ttls  map[string]time.Duration
	evals int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval emulates the two scripts the client sends.
func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	m.evals++
	if len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, fmt.Errorf("unexpected arguments"))
	}
	key := keys[0]
	switch script {
	case incrWithTTLScript:
		m.incr[key]++
		if m.incr[key] == 1 {
			ms, ok := args[0].(int64)
			if !ok {
				return redis.NewCmdResult(nil, fmt.Errorf("ttl must be milliseconds"))
			}
			m.ttls[key] = time.Duration(ms) * time.Millisecond
		}
		return redis.NewCmdResult(m.incr[key], nil)
	case delIfEqualScript:
		if v, ok := m.data[key]; ok && v == fmt.Sprint(args[0]) {
			delete(m.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
}

func TestIncrWithTTLSetsExpiryOnFirstHitOnly(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, "inv:rl:ip:login:1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}
	if mock.evals != 3 {
		t.Fatalf("expected one round trip per hit, got %d", mock.evals)
	}
	if ttl := mock.ttls["inv:rl:ip:login:1.2.3.4"]; ttl != time.Minute {
		t.Fatalf("expected window of one minute, got %s", ttl)
	}
}

func TestUninitializedClientReturnsError(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	if _, err := client.IncrWithTTL(ctx, "k", time.Second); err == nil {
		t.Fatal("expected error from incr")
	}
	if _, err := client.Get(ctx, "k"); err == nil {
		t.Fatal("expected error from get")
	}
	if err := client.Ping(ctx); err == nil {
		t.Fatal("expected error from ping")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without connection: %v", err)
	}
}

func TestDelIfEqualOnlyRemovesMatchingValue(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	ctx := context.Background()
	mock.data["inv:lock:cron"] = "owner-a"

	deleted, err := client.DelIfEqual(ctx, "inv:lock:cron", "owner-b")
	if err != nil || deleted {
		t.Fatalf("expected no delete for other owner, got deleted=%v err=%v", deleted, err)
	}
	deleted, err = client.DelIfEqual(ctx, "inv:lock:cron", "owner-a")
	if err != nil || !deleted {
		t.Fatalf("expected delete for owner, got deleted=%v err=%v", deleted, err)
	}
	if _, ok := mock.data["inv:lock:cron"]; ok {
		t.Fatal("expected key removed")
	}
}
