package game

import (
	"testing"
	"time"
)

func TestClockStepIsDeterministic(t *testing.T) {
	var got []int64
	c := NewClock(100*time.Millisecond, func(gameTimeMs int64) { got = append(got, gameTimeMs) })

	c.Step()
	c.Step()
	c.Step()

	want := []int64{100, 200, 300}
	if len(got) != len(want) {
		t.Fatalf("advance called %d times, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tick %d gameTime = %d, want %d", i, got[i], want[i])
		}
	}
	if c.CurrentGameTime() != 300 {
		t.Errorf("CurrentGameTime = %d, want 300", c.CurrentGameTime())
	}
}

func TestClockResetZeroesGameTime(t *testing.T) {
	c := NewClock(100*time.Millisecond, func(int64) {})
	c.Step()
	c.Step()
	c.Reset()
	if c.CurrentGameTime() != 0 {
		t.Errorf("CurrentGameTime after reset = %d, want 0", c.CurrentGameTime())
	}
}

func TestClockStartStopIdempotent(t *testing.T) {
	c := NewClock(100*time.Millisecond, func(int64) {})

	c.Stop() // stop-before-start is a no-op
	if c.IsRunning() {
		t.Fatal("clock reports running before Start")
	}

	c.Start()
	if !c.IsRunning() {
		t.Fatal("clock reports not running after Start")
	}
	c.Start() // second Start is a no-op, must not panic or double-spawn
	c.Stop()
	if c.IsRunning() {
		t.Fatal("clock reports running after Stop")
	}
	c.Stop() // idempotent
}
