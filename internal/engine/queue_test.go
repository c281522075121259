package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueue_FIFO(t *testing.T) {
	q := newJobQueue()
	for _, id := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(id))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestJobQueue_CloseRejectsAndWakes(t *testing.T) {
	q := newJobQueue()

	woke := make(chan struct{})
	go func() {
		<-q.Wait()
		close(woke)
	}()

	q.Close()
	q.Close() // idempotent

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}
	assert.False(t, q.Enqueue("late"))
	assert.True(t, q.Closed())
}

func TestJobQueue_ConcurrentEnqueue(t *testing.T) {
	q := newJobQueue()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue("job")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, q.Len())
}
