package sweeplock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"support-center/internal/pkg/errs"
)

const lockKey = "support-center:reminder-sweep:lock"

var errLockRelease = errs.New("failed to release sweep lock")

// RedisLock keeps concurrent reminder sweeps from overlapping across
// replicas. Acquire is SET NX with a TTL, so a crashed holder frees the
// lock on expiry.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
	token  string
}

func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

// TryAcquire reports whether this instance now holds the sweep lock.
func (l *RedisLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey, l.token, l.ttl).Result()
	if err != nil {
		return false, errs.Wrap(err, "failed to acquire sweep lock")
	}
	return ok, nil
}

// Release deletes the lock only if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	const script = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0`
	if err := l.client.Eval(ctx, script, []string{lockKey}, l.token).Err(); err != nil {
		return errs.Mark(err, errLockRelease)
	}
	return nil
}
