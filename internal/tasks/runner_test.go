package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/immxrtalbeast/axenix_meet/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/require"
)

func TestRunner_WaitsForAllTasks(t *testing.T) {
	req := require.New(t)
	r := New(slogdiscard.NewDiscardLogger(), 0)
	var done atomic.Int32

	for i := 0; i < 10; i++ {
		r.Go("test", func(context.Context) error {
			time.Sleep(time.Millisecond)
			done.Add(1)
			return nil
		})
	}
	r.Wait()

	req.Equal(int32(10), done.Load())
}

func TestRunner_SurvivesPanicsAndErrors(t *testing.T) {
	req := require.New(t)
	r := New(slogdiscard.NewDiscardLogger(), 0)
	var done atomic.Int32

	r.Go("panics", func(context.Context) error { panic("boom") })
	r.Go("fails", func(context.Context) error { return errors.New("store down") })
	r.Go("ok", func(context.Context) error {
		done.Add(1)
		return nil
	})

	req.NotPanics(r.Wait)
	req.Equal(int32(1), done.Load())
}

func TestRunner_AppliesTimeout(t *testing.T) {
	req := require.New(t)
	r := New(slogdiscard.NewDiscardLogger(), 10*time.Millisecond)
	var deadlineSet atomic.Bool

	r.Go("deadline", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		deadlineSet.Store(ok)
		<-ctx.Done()
		return ctx.Err()
	})
	r.Wait()

	req.True(deadlineSet.Load())
}
