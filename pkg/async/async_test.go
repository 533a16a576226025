package async_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyplan/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	future := async.Async(ctx, 42, func(_ context.Context, n int) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return fmt.Sprintf("Number: %d", n), nil
	})

	res, err := future.Await()
	require.NoError(t, err)
	assert.Equal(t, "Number: 42", res)
	assert.True(t, future.IsComplete())
}

func TestAsync_PreCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	future := async.Async(ctx, 1, func(context.Context, int) (int, error) {
		called = true
		return 1, nil
	})

	_, err := future.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestAsync_ErrorPropagation(t *testing.T) {
	t.Parallel()
	want := errors.New("transport down")

	future := async.Async(context.Background(), "sms", func(context.Context, string) (bool, error) {
		return false, want
	})

	_, err := future.Await()
	assert.ErrorIs(t, err, want)
}

func TestAsync_RecoversPanic(t *testing.T) {
	t.Parallel()

	future := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
		panic("boom")
	})

	_, err := future.Await()
	require.Error(t, err)
	assert.ErrorIs(t, err, async.ErrPanic)
	assert.Contains(t, err.Error(), "boom")
}

func TestIsComplete(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})

	future := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
		<-release
		return 1, nil
	})

	assert.False(t, future.IsComplete())
	close(release)
	_, _ = future.Await()
	assert.True(t, future.IsComplete())
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	slow := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})
	_, err := slow.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)

	fast := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
		return 7, nil
	})
	v, err := fast.AwaitWithTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestWaitAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	double := func(_ context.Context, n int) (int, error) { return n * 2, nil }

	results, err := async.WaitAll(
		async.Async(ctx, 1, double),
		async.Async(ctx, 2, double),
		async.Async(ctx, 3, double),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, results)

	failing := errors.New("failed")
	_, err = async.WaitAll(
		async.Async(ctx, 1, double),
		async.Async(ctx, 2, func(context.Context, int) (int, error) { return 0, failing }),
	)
	assert.ErrorIs(t, err, failing)
}

func TestSettle_PreservesArgumentOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	failing := errors.New("sms gateway rejected message")

	// The first future finishes last; results must still follow argument order.
	futures := []*async.Future[string]{
		async.Async(ctx, "inapp", func(_ context.Context, ch string) (string, error) {
			time.Sleep(30 * time.Millisecond)
			return ch, nil
		}),
		async.Async(ctx, "sms", func(context.Context, string) (string, error) {
			return "", failing
		}),
		async.Async(ctx, "push", func(_ context.Context, ch string) (string, error) {
			return ch, nil
		}),
	}

	results := async.Settle(futures...)
	require.Len(t, results, 3)

	assert.True(t, results[0].OK())
	assert.Equal(t, "inapp", results[0].Value)
	assert.False(t, results[1].OK())
	assert.ErrorIs(t, results[1].Err, failing)
	assert.True(t, results[2].OK())
	assert.Equal(t, "push", results[2].Value)
}

func TestSettle_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, async.Settle[int]())
}
