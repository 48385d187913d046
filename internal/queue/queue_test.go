package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/judgehub/judgehub/internal/queue"
	"github.com/judgehub/judgehub/internal/store"
)

func TestQueue_PushPop_FIFO(t *testing.T) {
	t.Parallel()

	q := queue.New()
	q.Push(queue.FireAndForget(1))
	q.Push(queue.FireAndForget(2))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	m1, err := q.Pop(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, m1.JobID)

	m2, err := q.Pop(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, m2.JobID)
}

func TestQueue_Pop_SuspendsUntilPush(t *testing.T) {
	t.Parallel()

	q := queue.New()
	done := make(chan queue.Message, 1)

	go func() {
		msg, err := q.Pop(context.Background())
		require.NoError(t, err)
		done <- msg
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push(queue.FireAndForget(7))

	select {
	case msg := <-done:
		require.EqualValues(t, 7, msg.JobID)
	case <-time.After(time.Second):
		t.Fatal("pop did not unblock after push")
	}
}

func TestQueue_Pop_CanceledByContext(t *testing.T) {
	t.Parallel()

	q := queue.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Pop(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueue_Cancel_RemovesMatchingMessage(t *testing.T) {
	t.Parallel()

	q := queue.New()
	q.Push(queue.FireAndForget(1))
	q.Push(queue.FireAndForget(2))

	require.True(t, q.Cancel(1))
	require.False(t, q.Cancel(1)) // already removed
	require.Equal(t, 1, q.Len())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := q.Pop(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, msg.JobID)
}

func TestQueue_Cancel_ClosesBlockingResponder(t *testing.T) {
	t.Parallel()

	q := queue.New()
	msg, rx := queue.NewBlocking(5)
	q.Push(msg)

	require.True(t, q.Cancel(5))

	select {
	case job, ok := <-rx:
		require.False(t, ok)
		require.Zero(t, job)
	case <-time.After(time.Second):
		t.Fatal("responder channel was not closed")
	}
}

func TestQueue_Blocking_DeliversRecord(t *testing.T) {
	t.Parallel()

	q := queue.New()
	msg, rx := queue.NewBlocking(9)
	q.Push(msg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	popped, err := q.Pop(ctx)
	require.NoError(t, err)
	require.NotNil(t, popped.Responder)

	popped.Responder <- store.Job{ID: 9, Result: store.ResultAccepted}

	select {
	case job := <-rx:
		require.Equal(t, store.ResultAccepted, job.Result)
	case <-time.After(time.Second):
		t.Fatal("did not receive delivered record")
	}
}
