package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	require := require.New(t)

	q := New()
	for i := 0; i < 100; i++ {
		require.True(q.Push(fmt.Sprintf("msg-%d", i)))
	}
	require.Equal(100, q.Len())
	require.Equal(100, q.HighWater())

	for i := 0; i < 100; i++ {
		msg, ok := q.Next()
		require.True(ok)
		require.Equal(fmt.Sprintf("msg-%d", i), msg)
	}
	require.Equal(0, q.Len())
}

func TestQueueClose(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	q := New()
	require.True(q.Push("before"))
	q.Close()
	q.Close() // idempotent

	assert.False(q.Push("after"))

	// Items queued before the close still drain.
	msg, ok := q.Next()
	require.True(ok)
	assert.Equal("before", msg)

	_, ok = q.Next()
	assert.False(ok)
}

func TestQueueCloseWakesConsumer(t *testing.T) {
	q := New()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok := q.Next()
		assert.False(t, ok)
	}()
	q.Close()
	<-done
}

func TestQueueManyProducers(t *testing.T) {
	require := require.New(t)

	q := New()
	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(fmt.Sprintf("p%d-%d", p, i))
			}
		}(p)
	}
	wg.Wait()
	q.Close()

	// Per-producer order is preserved even though the interleaving is not.
	next := make(map[string]int)
	total := 0
	for {
		msg, ok := q.Next()
		if !ok {
			break
		}
		total++
		var p, i int
		_, err := fmt.Sscanf(msg, "p%d-%d", &p, &i)
		require.NoError(err)
		key := fmt.Sprintf("p%d", p)
		require.Equal(next[key], i, "producer %d out of order", p)
		next[key] = i + 1
	}
	require.Equal(producers*perProducer, total)
}
