package lifecycle

import (
	"testing"
	"time"
)

func TestPhaseProgression(t *testing.T) {
	c := New(0, 80*time.Millisecond)
	if c.Phase() != Idle {
		t.Errorf("Phase = %v before Start, want idle", c.Phase())
	}
	c.Start()
	if c.Phase() != Running {
		t.Errorf("Phase = %v, want running (no warmup)", c.Phase())
	}
	time.Sleep(100 * time.Millisecond)
	if c.Phase() != Cooldown {
		t.Errorf("Phase = %v after deadline, want cooldown", c.Phase())
	}
	c.Complete()
	if c.Phase() != Complete {
		t.Errorf("Phase = %v, want complete", c.Phase())
	}
}

func TestWarmupPhase(t *testing.T) {
	c := New(60*time.Millisecond, 200*time.Millisecond)
	c.Start()
	if c.Phase() != Warmup {
		t.Errorf("Phase = %v, want warmup", c.Phase())
	}
	if p := c.Progress(); p != 0 {
		t.Errorf("Progress = %v during warmup, want 0", p)
	}
	time.Sleep(80 * time.Millisecond)
	if c.Phase() != Running {
		t.Errorf("Phase = %v after warmup, want running", c.Phase())
	}
}

func TestProgressClamped(t *testing.T) {
	c := New(0, 30*time.Millisecond)
	c.Start()
	time.Sleep(60 * time.Millisecond)
	if p := c.Progress(); p != 1 {
		t.Errorf("Progress = %v past the deadline, want 1", p)
	}
}

func TestDeadline(t *testing.T) {
	c := New(time.Second, 2*time.Second)
	c.Start()
	want := 3 * time.Second
	got := time.Until(c.Deadline())
	if got < want-100*time.Millisecond || got > want {
		t.Errorf("Deadline in %v, want about %v", got, want)
	}
}

func TestPhaseStrings(t *testing.T) {
	cases := map[Phase]string{
		Idle: "idle", Warmup: "warmup", Running: "running",
		Cooldown: "cooldown", Complete: "complete",
	}
	for p, want := range cases {
		if p.String() != want {
			t.Errorf("%d.String() = %q, want %q", p, p.String(), want)
		}
	}
}
