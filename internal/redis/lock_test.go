package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lockDay = time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)

func newTestLocker(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisDayLocker(client, ttl)
}

func TestDentistDayKey(t *testing.T) {
	id := uuid.MustParse("6f1c2b1e-8d7a-4c1e-9b55-0c7c4e1b2a10")

	assert.Equal(t, "lock:dentist:6f1c2b1e-8d7a-4c1e-9b55-0c7c4e1b2a10:2024-06-10", DentistDayKey(id, lockDay))

	other := DentistDayKey(id, lockDay.AddDate(0, 0, 1))
	assert.NotEqual(t, DentistDayKey(id, lockDay), other)
}

func TestWithDentistDayLockHoldsKeyDuringCall(t *testing.T) {
	mr, locker := newTestLocker(t, 10*time.Second)
	dentist := uuid.New()
	key := DentistDayKey(dentist, lockDay)

	called := false
	err := locker.WithDentistDayLock(context.Background(), dentist, lockDay, func(ctx context.Context) error {
		called = true
		assert.True(t, mr.Exists(key))
		assert.Equal(t, 10*time.Second, mr.TTL(key))

		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, mr.Exists(key), "lock must be released")
}

func TestWithDentistDayLockContention(t *testing.T) {
	mr, locker := newTestLocker(t, 10*time.Second)
	dentist := uuid.New()
	key := DentistDayKey(dentist, lockDay)
	require.NoError(t, mr.Set(key, "someone-else"))

	called := false
	err := locker.WithDentistDayLock(context.Background(), dentist, lockDay, func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, called)

	held, getErr := mr.Get(key)
	require.NoError(t, getErr)
	assert.Equal(t, "someone-else", held)
}

func TestWithDentistDayLockOtherDaysAreIndependent(t *testing.T) {
	mr, locker := newTestLocker(t, 10*time.Second)
	dentist := uuid.New()
	require.NoError(t, mr.Set(DentistDayKey(dentist, lockDay), "someone-else"))

	err := locker.WithDentistDayLock(context.Background(), dentist, lockDay.AddDate(0, 0, 1), func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	err = locker.WithDentistDayLock(context.Background(), uuid.New(), lockDay, func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestReleaseLeavesForeignTokenAlone(t *testing.T) {
	mr, locker := newTestLocker(t, 10*time.Second)
	dentist := uuid.New()
	key := DentistDayKey(dentist, lockDay)

	err := locker.WithDentistDayLock(context.Background(), dentist, lockDay, func(context.Context) error {
		// Our lock expired and another caller took the key.
		return mr.Set(key, "next-holder")
	})
	require.NoError(t, err)

	held, getErr := mr.Get(key)
	require.NoError(t, getErr)
	assert.Equal(t, "next-holder", held)
}

func TestWithDentistDayLockReturnsCallError(t *testing.T) {
	mr, locker := newTestLocker(t, 10*time.Second)
	dentist := uuid.New()
	boom := errors.New("insert failed")

	err := locker.WithDentistDayLock(context.Background(), dentist, lockDay, func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(DentistDayKey(dentist, lockDay)), "lock must be released on error")
}
