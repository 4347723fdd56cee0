package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer(t *testing.T) {
	t.Run("runs once after the delay", func(t *testing.T) {
		clock := newFakeClock(testNow)
		d := NewDebouncer(50*time.Millisecond, clock)
		calls := 0

		assert.True(t, d.Trigger(func() { calls++ }))
		assert.True(t, d.Pending())
		clock.Advance(49 * time.Millisecond)
		assert.Equal(t, 0, calls)
		clock.Advance(time.Millisecond)
		assert.Equal(t, 1, calls)
		assert.False(t, d.Pending())
	})

	t.Run("a new trigger supersedes the pending one", func(t *testing.T) {
		clock := newFakeClock(testNow)
		d := NewDebouncer(50*time.Millisecond, clock)
		var got []string

		d.Trigger(func() { got = append(got, "first") })
		clock.Advance(30 * time.Millisecond)
		d.Trigger(func() { got = append(got, "second") })
		clock.Advance(30 * time.Millisecond)
		assert.Empty(t, got)
		clock.Advance(20 * time.Millisecond)
		assert.Equal(t, []string{"second"}, got)
	})

	t.Run("cancel and stop", func(t *testing.T) {
		clock := newFakeClock(testNow)
		d := NewDebouncer(50*time.Millisecond, clock)
		calls := 0

		d.Trigger(func() { calls++ })
		d.Cancel()
		clock.Advance(time.Second)
		assert.Equal(t, 0, calls)

		d.Trigger(func() { calls++ })
		d.Stop()
		clock.Advance(time.Second)
		assert.Equal(t, 0, calls)
		assert.False(t, d.Trigger(func() { calls++ }))
	})
}
