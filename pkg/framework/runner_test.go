package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunnerFirstStopCancelsOthers(t *testing.T) {
	errBoom := errors.New("boom")
	r := NewRunner().Go(
		NamedRun("blocker", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		RunFunc(func(context.Context) error { return errBoom }),
	)
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, errBoom))
	require.Equal(t, "boom", err.Error())
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	cancel()
	require.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errA, errB := errors.New("a"), errors.New("b")
	err := errs.Add(errA, nil, errB).Aggregate()
	require.Equal(t, "Multiple errors:\na\nb", err.Error())
	require.True(t, errors.Is(err, errB))
}

func TestRunWithContextCloser(t *testing.T) {
	closed := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, closerFunc(func() error {
		close(closed)
		return nil
	}), func() error {
		<-closed
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)

	var calls int
	err = RunWithContextCloser(context.Background(), closerFunc(func() error {
		calls++
		return nil
	}), func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}
