package gameserver_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/holdout/internal/gameserver"
)

func TestTickLoop_PanicsOnNonPositiveInterval(t *testing.T) {
	assert.Panics(t, func() { gameserver.NewTickLoop(0) })
}

func TestTickLoop_FireRunsInRegistrationOrder(t *testing.T) {
	loop := gameserver.NewTickLoop(time.Second)
	var order []string
	loop.Register("a", func(time.Time) { order = append(order, "a") })
	loop.Register("b", func(time.Time) { order = append(order, "b") })
	loop.Register("a", func(time.Time) { order = append(order, "a2") })

	loop.Fire(time.Now())
	assert.Equal(t, []string{"a2", "b"}, order)

	loop.Unregister("a2")
	loop.Unregister("a")
	order = nil
	loop.Fire(time.Now())
	assert.Equal(t, []string{"b"}, order)
}

func TestTickLoop_TickCallbackInvoked(t *testing.T) {
	loop := gameserver.NewTickLoop(10 * time.Millisecond)
	var count atomic.Int64
	loop.Register("session", func(time.Time) { count.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Start(ctx) }()

	require.Eventually(t, func() bool { return count.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestTickLoop_StopEndsStart(t *testing.T) {
	loop := gameserver.NewTickLoop(10 * time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- loop.Start(context.Background()) }()
	loop.Stop()
	loop.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tick loop did not stop")
	}
}
