package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestKeyedLockerSerializesSameKey(t *testing.T) {
	defer goleak.VerifyNone(t)

	locks := NewKeyedLocker()
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(context.Background(), "conv")
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
	assert.Equal(t, 0, locks.Len())
}

func TestKeyedLockerIndependentKeys(t *testing.T) {
	defer goleak.VerifyNone(t)

	locks := NewKeyedLocker()
	unlockA, err := locks.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlockB, err := locks.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedLockerHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	locks := NewKeyedLocker()
	unlock, err := locks.Lock(context.Background(), "conv")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.Lock(ctx, "conv")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, locks.Len())

	unlock()
	assert.Equal(t, 0, locks.Len())
}

func TestKeyedLockerUnlockTwice(t *testing.T) {
	locks := NewKeyedLocker()

	unlock, err := locks.Lock(context.Background(), "conv")
	require.NoError(t, err)
	unlock()
	unlock()

	unlock, err = locks.Lock(context.Background(), "conv")
	require.NoError(t, err)
	unlock()
	assert.Equal(t, 0, locks.Len())
}
