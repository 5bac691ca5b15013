package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("dentist schedule lock not acquired")
)

// Locker guards a dentist's day while a booking is checked for conflicts
// and written, so two confirmations for the same dentist cannot interleave.
type Locker interface {
	WithDentistDayLock(ctx context.Context, dentistID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error
}

type redisDayLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDayLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisDayLocker{
		client: client,
		ttl:    ttl,
	}
}

// DentistDayKey is the lock key for one dentist on one calendar date.
func DentistDayKey(dentistID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("lock:dentist:%s:%s", dentistID.String(), day.Format("2006-01-02"))
}

func (l *redisDayLocker) WithDentistDayLock(ctx context.Context, dentistID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error {
	key := DentistDayKey(dentistID, day)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire dentist lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release dentist lock: %w", err)
	}
	return nil
}
