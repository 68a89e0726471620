package realtime

import (
	"testing"
	"time"
)

// -----------------------------------------------------------------------------

func TestBackoffDelayDoublesToCap(t *testing.T) {
	base := time.Second
	max := 15 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 15 * time.Second}, // 16s clamped
		{6, 15 * time.Second},
		{50, 15 * time.Second},
	}
	for _, tt := range tests {
		if got := BackoffDelay(tt.attempt, base, max); got != tt.want {
			t.Errorf("BackoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

// -----------------------------------------------------------------------------

func TestBackoffDelayClampsAttempt(t *testing.T) {
	base := 2 * time.Second
	max := 30 * time.Second

	if got := BackoffDelay(0, base, max); got != base {
		t.Errorf("BackoffDelay(0) = %v, want %v", got, base)
	}
	if got := BackoffDelay(-3, base, max); got != base {
		t.Errorf("BackoffDelay(-3) = %v, want %v", got, base)
	}
}

// -----------------------------------------------------------------------------

func TestBackoffDelayBaseAboveMax(t *testing.T) {
	if got := BackoffDelay(1, 20*time.Second, 15*time.Second); got != 15*time.Second {
		t.Errorf("BackoffDelay = %v, want max", got)
	}
}
