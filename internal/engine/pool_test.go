// internal/engine/pool_test.go
package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestNewPool_Validation(t *testing.T) {
	_, err := NewPool(0, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewPool(1, nil)
	assert.Error(t, err)
}

func TestSubmit_ReturnsValue(t *testing.T) {
	defer goleak.VerifyNone(t)

	p, err := NewPool(1, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	f, err := Submit(context.Background(), p, "answer", func(ctx context.Context) (string, error) {
		return "42", nil
	})
	require.NoError(t, err)

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestSubmit_PropagatesErrorAndPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	p, err := NewPool(2, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	boom := errors.New("boom")
	f1, err := Submit(context.Background(), p, "fails", func(ctx context.Context) (int, error) { return 0, boom })
	require.NoError(t, err)
	_, err = f1.Await(context.Background())
	assert.ErrorIs(t, err, boom)

	f2, err := Submit(context.Background(), p, "panics", func(ctx context.Context) (int, error) { panic("kaboom") })
	require.NoError(t, err)
	_, err = f2.Await(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestSubmit_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	p, err := NewPool(1, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	release := make(chan struct{})
	var running int32
	first, err := Submit(context.Background(), p, "first", func(ctx context.Context) (int, error) {
		atomic.AddInt32(&running, 1)
		<-release
		return 1, nil
	})
	require.NoError(t, err)

	// The only slot is busy, so a second submission waits until its context expires.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = Submit(ctx, p, "second", func(ctx context.Context) (int, error) { return 2, nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := first.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&running))
}

func TestFuture_AwaitHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	p, err := NewPool(1, zaptest.NewLogger(t))
	require.NoError(t, err)

	release := make(chan struct{})
	f, err := Submit(context.Background(), p, "slow", func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-f.Done()
	p.Close()
}

func TestPool_CloseRejectsNewJobs(t *testing.T) {
	p, err := NewPool(1, zaptest.NewLogger(t))
	require.NoError(t, err)
	p.Close()

	_, err = Submit(context.Background(), p, "late", func(ctx context.Context) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}
