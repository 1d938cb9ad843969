package retry

import (
	"testing"
	"time"
)

func TestBackoffMonotonicAndBounded(t *testing.T) {
	cases := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{1, 50 * time.Millisecond, 73 * time.Millisecond},
		{2, 100 * time.Millisecond, 123 * time.Millisecond},
		{10, 300 * time.Millisecond, 323 * time.Millisecond},
	}
	for _, c := range cases {
		got := Backoff(c.attempt)
		if got < c.min || got > c.max {
			t.Errorf("Backoff(%d) = %v, want in [%v, %v]", c.attempt, got, c.min, c.max)
		}
	}
}

func TestBackoffDeterministic(t *testing.T) {
	a := Backoff(3)
	b := Backoff(3)
	if a != b {
		t.Fatalf("expected deterministic backoff, got %v and %v", a, b)
	}
}
