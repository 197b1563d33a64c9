package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5,0,10) = %d", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp(-1,0,10) = %d", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp(11,0,10) = %d", got)
	}
	// Swapped bounds are tolerated.
	if got := Clamp(5, 10, 0); got != 5 {
		t.Errorf("Clamp(5,10,0) = %d", got)
	}
	if got := Clamp(2.5, 0.0, 1.0); got != 1.0 {
		t.Errorf("Clamp(2.5,0,1) = %v", got)
	}
}
