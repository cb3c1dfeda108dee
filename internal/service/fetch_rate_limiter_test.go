package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     interface{}
	err        error
	lastCtxErr error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	m.lastCtxErr = ctx.Err()
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestRedisFetchRateLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisFetchRateLimiter
		if !l.Allow("s1:10.0.0.1") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisFetchRateLimiter{client: &mockRedisEvaler{result: int64(1)}, window: time.Minute, max: 3, prefix: "results:rl:"}
		if l.Allow("   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: int64(2)}
		l := &redisFetchRateLimiter{client: mock, window: 2 * time.Minute, max: 3, prefix: "results:rl:"}
		if !l.Allow(" S1:10.0.0.1 ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "results:rl:s1:10.0.0.1" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisFetchAllowScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisFetchRateLimiter{client: &mockRedisEvaler{result: int64(4)}, window: time.Minute, max: 3, prefix: "results:rl:"}
		if l.Allow("s1:10.0.0.1") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisFetchRateLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, window: time.Minute, max: 3, prefix: "results:rl:"}
		if !l.Allow("s1:10.0.0.1") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}

func TestMemoryFetchRateLimiter(t *testing.T) {
	l := NewMemoryFetchRateLimiter(time.Minute, 2)
	if !l.Allow("k") || !l.Allow("k") {
		t.Fatalf("expected first two attempts allowed")
	}
	if l.Allow("k") {
		t.Fatalf("expected third attempt denied")
	}
	if !l.Allow("other") {
		t.Fatalf("expected independent keys")
	}
}
