package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisLockClient struct {
	mockRedisEvaler
	held   map[string]interface{}
	setErr error
}

func (m *mockRedisLockClient) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	if _, ok := m.held[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	m.held[key] = value
	cmd.SetVal(true)
	return cmd
}

func TestMemorySessionLocker(t *testing.T) {
	l := NewMemorySessionLocker(time.Minute)
	release, err := l.Acquire(context.Background(), "s1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := l.Acquire(context.Background(), "s1"); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("expected ErrSessionLocked, got %v", err)
	}
	if _, err := l.Acquire(context.Background(), "s2"); err != nil {
		t.Fatalf("expected independent sessions, got %v", err)
	}
	release()
	if _, err := l.Acquire(context.Background(), "s1"); err != nil {
		t.Fatalf("expected lock free after release, got %v", err)
	}
}

func TestMemorySessionLocker_Expires(t *testing.T) {
	l := NewMemorySessionLocker(10 * time.Millisecond)
	if _, err := l.Acquire(context.Background(), "s1"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := l.Acquire(context.Background(), "s1"); err != nil {
		t.Fatalf("expected expired lock to be reacquired, got %v", err)
	}
}

func TestRedisSessionLocker(t *testing.T) {
	client := &mockRedisLockClient{held: make(map[string]interface{}), mockRedisEvaler: mockRedisEvaler{result: int64(1)}}
	l := &redisSessionLocker{client: client, ttl: time.Minute, prefix: "scoring:lock:"}

	release, err := l.Acquire(context.Background(), " s1 ")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	owner, ok := client.held["scoring:lock:s1"]
	if !ok {
		t.Fatalf("expected key scoring:lock:s1, got %+v", client.held)
	}
	if _, err := l.Acquire(context.Background(), "s1"); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("expected ErrSessionLocked, got %v", err)
	}

	release()
	if client.lastScript != redisUnlockScript {
		t.Fatalf("expected unlock script on release")
	}
	if len(client.lastArgs) != 1 || client.lastArgs[0] != owner {
		t.Fatalf("expected release to compare owner %v, got %+v", owner, client.lastArgs)
	}
}

func TestRedisSessionLocker_ReleaseAfterCancel(t *testing.T) {
	client := &mockRedisLockClient{held: make(map[string]interface{}), mockRedisEvaler: mockRedisEvaler{result: int64(1)}}
	l := &redisSessionLocker{client: client, ttl: time.Minute, prefix: "scoring:lock:"}

	ctx, cancel := context.WithCancel(context.Background())
	release, err := l.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	cancel()
	release()

	if client.lastScript != redisUnlockScript {
		t.Fatalf("expected unlock script on release")
	}
	if client.lastCtxErr != nil {
		t.Fatalf("expected release to run on a live context, got %v", client.lastCtxErr)
	}
}

func TestRedisSessionLocker_ErrorIsNotLocked(t *testing.T) {
	client := &mockRedisLockClient{held: make(map[string]interface{}), setErr: errors.New("redis down")}
	l := &redisSessionLocker{client: client, ttl: time.Minute, prefix: "scoring:lock:"}
	_, err := l.Acquire(context.Background(), "s1")
	if err == nil || errors.Is(err, ErrSessionLocked) {
		t.Fatalf("expected a plain redis error, got %v", err)
	}
}
