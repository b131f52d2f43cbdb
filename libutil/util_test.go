package libutil

import "testing"

func TestClampILowerBoundWins(t *testing.T) {
	if got := ClampI(5, 1, 0); got != 1 {
		t.Errorf("ClampI(5, 1, 0) = %d, want 1", got)
	}
	if got := ClampI(5, 1, 3); got != 3 {
		t.Errorf("ClampI(5, 1, 3) = %d, want 3", got)
	}
	if got := ClampI(-5, 1, 3); got != 1 {
		t.Errorf("ClampI(-5, 1, 3) = %d, want 1", got)
	}
}

func TestLerp(t *testing.T) {
	if got := Lerp(2, 4, 0.5); got != 3 {
		t.Errorf("Lerp(2, 4, 0.5) = %v, want 3", got)
	}
	if got := Clamp(1.5, 0, 1); got != 1 {
		t.Errorf("Clamp(1.5, 0, 1) = %v, want 1", got)
	}
}
