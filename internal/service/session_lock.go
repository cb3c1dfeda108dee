package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionLocked indica que otro proceso esta recalculando la misma sesion.
var ErrSessionLocked = errors.New("session is locked")

// SessionLocker evita dos recalculos concurrentes de una misma sesion.
// Acquire devuelve la funcion que libera el lock.
type SessionLocker interface {
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}

type memorySessionLocker struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
}

func NewMemorySessionLocker(ttl time.Duration) SessionLocker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &memorySessionLocker{ttl: ttl, items: make(map[string]time.Time)}
}

func (l *memorySessionLocker) Acquire(_ context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	if exp, ok := l.items[sessionID]; ok && now.Before(exp) {
		return nil, ErrSessionLocked
	}
	l.items[sessionID] = now.Add(l.ttl)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.items, sessionID)
	}, nil
}

const redisUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLockClient interface {
	redisEvaler
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type redisSessionLocker struct {
	client redisLockClient
	ttl    time.Duration
	prefix string
}

// NewRedisSessionLocker usa SET NX PX con un valor unico por duenio; la
// liberacion solo borra la clave si el valor sigue siendo el propio.
func NewRedisSessionLocker(client *redis.Client, ttl time.Duration) SessionLocker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisSessionLocker{client: client, ttl: ttl, prefix: "scoring:lock:"}
}

func (l *redisSessionLocker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	key := l.prefix + strings.TrimSpace(sessionID)
	owner := uuid.NewString()

	callCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	ok, err := l.client.SetNX(callCtx, key, owner, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionLocked
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		_ = l.client.Eval(ctx, redisUnlockScript, []string{key}, owner).Err()
	}, nil
}
