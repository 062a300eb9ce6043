package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestDebouncer() (*Debouncer, *FakeClock) {
	clock := NewFakeClock(time.Unix(0, 0))
	return New(clock, DefaultDelay), clock
}

func TestDebounceFiresAfterQuietPeriod(t *testing.T) {
	d, clock := newTestDebouncer()
	var got string

	d.Debounce(func() { got = "a" })
	clock.Advance(299 * time.Millisecond)
	assert.Empty(t, got)
	assert.True(t, d.Pending())

	clock.Advance(time.Millisecond)
	assert.Equal(t, "a", got)
	assert.False(t, d.Pending())
}

func TestDebounceKeepsOnlyLatestCall(t *testing.T) {
	d, clock := newTestDebouncer()
	var calls []string

	for _, term := range []string{"w", "wi", "wid", "widget"} {
		d.Debounce(func() { calls = append(calls, term) })
		clock.Advance(100 * time.Millisecond)
	}
	clock.Advance(DefaultDelay)

	assert.Equal(t, []string{"widget"}, calls)
	assert.Zero(t, clock.Pending())
}

func TestCancelDropsPendingCall(t *testing.T) {
	d, clock := newTestDebouncer()
	var fired atomic.Bool

	d.Debounce(func() { fired.Store(true) })
	assert.True(t, d.Cancel())
	clock.Advance(time.Second)

	assert.False(t, fired.Load())
	assert.False(t, d.Cancel())
}

func TestFlushRunsImmediately(t *testing.T) {
	d, clock := newTestDebouncer()
	calls := 0

	d.Debounce(func() { calls++ })
	assert.True(t, d.Flush())
	clock.Advance(time.Second)

	assert.Equal(t, 1, calls)
	assert.False(t, d.Flush())
}

func TestNewDefaults(t *testing.T) {
	d := New(nil, 0)
	assert.Equal(t, DefaultDelay, d.Delay())
	assert.IsType(t, RealClock{}, d.clock)
}

func TestRealClockFires(t *testing.T) {
	d := New(RealClock{}, 10*time.Millisecond)
	done := make(chan struct{})

	d.Debounce(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
}
