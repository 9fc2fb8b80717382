package keylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_SerializesSameKey(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "emp-1:2024-03-11")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, 0, locker.size())
}

func TestMemoryLocker_DifferentKeysDoNotBlock(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctxB, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	unlockB, err := locker.Lock(ctxB, "b")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "k")
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	unlock()
	unlock() // second call is a no-op
	assert.Equal(t, 0, locker.size())
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	locker := NewRedisLocker(rdb, "lock:", 30*time.Second)
	locker.newToken = func() string { return "token-1" }

	mock.ExpectSetNX("lock:emp-1:2024-03-11", "token-1", 30*time.Second).SetVal(false)
	mock.ExpectSetNX("lock:emp-1:2024-03-11", "token-1", 30*time.Second).SetVal(true)
	mock.ExpectEval(unlockScript, []string{"lock:emp-1:2024-03-11"}, "token-1").SetVal(int64(1))

	unlock, err := locker.Lock(context.Background(), "emp-1:2024-03-11")
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_GivesUpWhenContextDone(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	locker := NewRedisLocker(rdb, "lock:", 30*time.Second)
	locker.newToken = func() string { return "token-2" }
	locker.retryDelay = 50 * time.Millisecond

	mock.ExpectSetNX("lock:busy", "token-2", 30*time.Second).SetVal(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := locker.Lock(ctx, "busy")
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}
