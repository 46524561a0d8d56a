package async

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_Success(t *testing.T) {
	task := Go(func() error { return nil })

	require.NoError(t, task.Wait())
	assert.NoError(t, task.Err())
}

func TestGo_FailureExposed(t *testing.T) {
	boom := fmt.Errorf("boom")
	task := Go(func() error { return boom })

	assert.Equal(t, boom, task.Wait())
	assert.Equal(t, boom, task.Err())
}

func TestOnComplete_FiresExactlyOnceAfterWork(t *testing.T) {
	workDone := make(chan struct{})

	var workFinished atomic.Bool
	var calls atomic.Int32
	var sawFinished atomic.Bool

	task := Go(func() error {
		<-workDone
		workFinished.Store(true)
		return nil
	})
	task.OnComplete(func(err error) {
		calls.Add(1)
		sawFinished.Store(workFinished.Load())
	})

	// Callback must not fire before the work finishes.
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	close(workDone)
	require.NoError(t, task.Wait())

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, sawFinished.Load(), "callback fired before the work finished")
}

func TestOnComplete_FiresOnFailurePath(t *testing.T) {
	var got error
	done := make(chan struct{})

	task := Go(func() error { return fmt.Errorf("upload failed") })
	task.OnComplete(func(err error) {
		got = err
		close(done)
	})

	<-done
	require.Error(t, got)
	assert.Error(t, task.Err())
}

func TestOnComplete_AfterCompletionInvokedImmediately(t *testing.T) {
	task := Go(func() error { return nil })
	require.NoError(t, task.Wait())

	var calls int
	task.OnComplete(func(err error) { calls++ })

	assert.Equal(t, 1, calls)
}

func TestDone_ClosedAfterFinish(t *testing.T) {
	task := Go(func() error { return nil })

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
}
