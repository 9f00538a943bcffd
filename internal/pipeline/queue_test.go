package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 1000; i++ {
		require.True(t, q.Send(i))
	}
	assert.Equal(t, 1000, q.Len())

	for i := 0; i < 1000; i++ {
		v, ok := q.TryReceive()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.TryReceive()
	assert.False(t, ok)
}

func TestQueueReceiveBlocksUntilSend(t *testing.T) {
	q := NewQueue[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan string, 1)
	go func() {
		v, err := q.Receive(ctx)
		if err == nil {
			got <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Send("batch")

	select {
	case v := <-got:
		assert.Equal(t, "batch", v)
	case <-ctx.Done():
		t.Fatal("receive never returned")
	}
}

func TestQueueReceiveCancelled(t *testing.T) {
	q := NewQueue[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueueCloseDrains(t *testing.T) {
	q := NewQueue[int]()
	q.Send(1)
	q.Close()

	assert.False(t, q.Send(2), "send after close is refused")

	v, err := q.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = q.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue[int]()
	const producers, each = 8, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Send(p*each + i)
			}
		}(p)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seen := make(map[int]bool)
	lastPerProducer := make(map[int]int)
	for len(seen) < producers*each {
		v, err := q.Receive(ctx)
		require.NoError(t, err)
		seen[v] = true

		p := v / each
		if last, ok := lastPerProducer[p]; ok {
			assert.Greater(t, v, last, "per-producer order preserved")
		}
		lastPerProducer[p] = v
	}
	wg.Wait()
}
