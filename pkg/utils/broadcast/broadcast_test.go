package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func receive[T any](t *testing.T, ch <-chan T) (T, bool) {
	t.Helper()
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for value")
	}
	var zero T
	return zero, false
}

func TestFanOut(t *testing.T) {
	src := make(chan int)
	b := NewServer("test", src)
	defer b.Close()

	s1 := b.Subscribe()
	s2 := b.Subscribe()
	src <- 1

	v, ok := receive(t, s1)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = receive(t, s2)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSlowSubscriberGetsLatest(t *testing.T) {
	src := make(chan int)
	b := NewServer("test", src)
	defer b.Close()

	s := b.Subscribe()
	for i := 1; i <= 6; i++ {
		src <- i
	}
	// serve handles one request at a time, the last value is delivered
	// once another subscription was accepted
	b.Subscribe()
	v, _ := receive(t, s)
	assert.Equal(t, 6, v)
}

func TestCancelSubscription(t *testing.T) {
	src := make(chan int)
	b := NewServer("test", src)
	defer b.Close()

	s := b.Subscribe()
	b.CancelSubscription(s)
	_, ok := receive(t, s)
	assert.False(t, ok, "channel should be closed")
}

func TestSourceClosed(t *testing.T) {
	src := make(chan int)
	b := NewServer("test", src)
	s := b.Subscribe()
	close(src)

	_, ok := receive(t, s)
	assert.False(t, ok)
	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("server not done")
	}
	late := b.Subscribe()
	_, ok = receive(t, late)
	assert.False(t, ok)
	b.Close()
}
