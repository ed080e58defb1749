package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[string]()
	ch := bus.Subscribe()
	bus.Publish("hello")
	assert.Equal(t, "hello", <-ch)
	bus.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestTypedBusPublishDropsWhenFull(t *testing.T) {
	bus := NewTypedBuffered[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	bus.Close()
	var got []int
	for v := range ch {
		got = append(got, v)
	}
	assert.Equal(t, []int{1}, got)
}

func TestTypedBusSendDeliversEverything(t *testing.T) {
	bus := NewTypedBuffered[int](0)
	ch := bus.Subscribe()

	var (
		wg  sync.WaitGroup
		got []int
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for v := range ch {
			got = append(got, v)
		}
	}()
	for i := 0; i < 100; i++ {
		require.NoError(t, bus.Send(context.Background(), i))
	}
	bus.Close()
	wg.Wait()
	require.Len(t, got, 100)
	assert.Equal(t, 99, got[99])
}

func TestTypedBusSendHonoursContext(t *testing.T) {
	bus := NewTypedBuffered[int](0)
	_ = bus.Subscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Send(ctx, 1), context.DeadlineExceeded)
	bus.Close()
	assert.NoError(t, bus.Send(context.Background(), 2))
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	_, ok1 := <-ch1
	_, ok2 := <-ch2
	assert.False(t, ok1)
	assert.False(t, ok2)
	_, ok := <-bus.Subscribe()
	assert.False(t, ok, "subscribing to a closed bus yields a closed channel")
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	assert.NotPanics(t, func() { bus.Unsubscribe(ch) })
}
