package mcp4xxx

import (
	"math"
	"testing"
)

// 10 kΩ 7-bit part (129 taps), 75 Ω wiper.
func testLadder() Ladder {
	return Ladder{MaxPos: 128, TotalOhms: 10e3, WiperOhms: 75}
}

func TestLadderResistances(t *testing.T) {
	l := testLadder()

	if got := l.StepOhms(); got != 78.125 {
		t.Fatalf("StepOhms = %v, want 78.125", got)
	}
	if got := l.RWB(0); got != 75 {
		t.Fatalf("RWB(0) = %v, want 75 (wiper resistance floor)", got)
	}
	if got := l.RWB(128); got != 10075 {
		t.Fatalf("RWB(128) = %v, want 10075", got)
	}
	if got := l.RWB(27); got != 75+78.125*27 {
		t.Fatalf("RWB(27) = %v, want %v", got, 75+78.125*27)
	}
	// RWA mirrors RWB: together they always span the full ladder.
	for _, pos := range []int{0, 1, 27, 64, 128} {
		sum := l.RWB(pos) + l.RWA(pos)
		want := l.TotalOhms + 2*l.WiperOhms
		if math.Abs(sum-want) > 1e-9 {
			t.Fatalf("RWB+RWA at %d = %v, want %v", pos, sum, want)
		}
	}
}

func TestLadderRoundTrips(t *testing.T) {
	l := testLadder()
	for pos := 0; pos <= l.MaxPos; pos++ {
		if got, clamped := l.PosFromFraction(l.Fraction(pos)); got != pos || clamped {
			t.Fatalf("fraction round trip at %d: got %d clamped=%v", pos, got, clamped)
		}
		if got, clamped := l.PosFromRWB(l.RWB(pos)); got != pos || clamped {
			t.Fatalf("RWB round trip at %d: got %d clamped=%v", pos, got, clamped)
		}
		if got, clamped := l.PosFromRWA(l.RWA(pos)); got != pos || clamped {
			t.Fatalf("RWA round trip at %d: got %d clamped=%v", pos, got, clamped)
		}
	}
}

func TestLadderClamping(t *testing.T) {
	l := testLadder()

	cases := []struct {
		name    string
		v       float64
		mode    ValueMode
		pos     int
		clamped bool
	}{
		{"raw in range", 100, Raw, 100, false},
		{"raw above", 200, Raw, 128, true},
		{"raw below", -3, Raw, 0, true},
		{"fraction above", 1.5, Fraction, 128, true},
		{"fraction below", -0.1, Fraction, 0, true},
		{"ohms below wiper floor", 0, Ohms, 0, true},
		{"ohms above full scale", 20e3, Ohms, 128, true},
	}
	for _, c := range cases {
		pos, clamped := l.PosFromValue(c.v, c.mode)
		if pos != c.pos || clamped != c.clamped {
			t.Errorf("%s: got (%d, %v), want (%d, %v)", c.name, pos, clamped, c.pos, c.clamped)
		}
	}
}

func TestLadderRoundsHalfToEven(t *testing.T) {
	l := testLadder()
	for _, c := range []struct {
		in   float64
		want int
	}{
		{0.5, 0},
		{1.5, 2},
		{2.5, 2},
		{3.5, 4},
	} {
		if pos, _ := l.PosFromValue(c.in, Raw); pos != c.want {
			t.Errorf("quantise(%v) = %d, want %d", c.in, pos, c.want)
		}
	}
}

// Ideal-wiper 10 kΩ 7-bit part: resistance is exactly step * position.
func TestLadderIdealWiper(t *testing.T) {
	l := Ladder{MaxPos: 128, TotalOhms: 10e3}

	if got := l.RWB(27); got != 2109.375 {
		t.Fatalf("RWB(27) = %v, want 2109.375", got)
	}
	pos, clamped := l.PosFromValue(200, Raw)
	if pos != 128 || !clamped {
		t.Fatalf("clamped raw 200 = (%d, %v), want (128, true)", pos, clamped)
	}
	pos, clamped = l.PosFromValue(27, Raw)
	if pos != 27 || clamped {
		t.Fatalf("raw 27 = (%d, %v)", pos, clamped)
	}
}

// 10 kΩ 7-bit part in a divider: 5 V supply through a 200 Ω limiter,
// 10 kΩ load on the wiper.
func dividerLadder(rheostat bool) Ladder {
	return Ladder{
		MaxPos: 128, TotalOhms: 10e3, WiperOhms: 75,
		Rheostat: rheostat, RLim: 200, RLoad: 10e3, VoltageIn: 5,
	}
}

func almost(a, b float64) bool {
	diff := math.Abs(a - b)
	return diff <= 1e-9 || diff <= 1e-9*math.Abs(b)
}

func TestVoltageOutUnpowered(t *testing.T) {
	for _, rheostat := range []bool{false, true} {
		l := dividerLadder(rheostat)
		l.VoltageIn = 0
		for pos := 0; pos <= l.MaxPos; pos += 16 {
			if got := l.VoltageOut(pos); got != 0 {
				t.Fatalf("rheostat=%v: unpowered VoltageOut(%d) = %v", rheostat, pos, got)
			}
		}
		l = dividerLadder(rheostat)
		l.RLoad = 0
		for pos := 0; pos <= l.MaxPos; pos += 16 {
			if got := l.VoltageOut(pos); got != 0 {
				t.Fatalf("rheostat=%v: unloaded VoltageOut(%d) = %v", rheostat, pos, got)
			}
		}
	}
}

// With a negligible load the potentiometer output tracks the travel
// fraction and the rheostat output follows the plain series divider.
func TestVoltageOutAgainstCircuitModel(t *testing.T) {
	l := dividerLadder(false)
	l.RLim = 0
	l.RLoad = 1e100 // effectively open, wiper unloaded
	for pos := 0; pos <= l.MaxPos; pos++ {
		want := l.VoltageIn * l.Fraction(pos)
		if got := l.VoltageOut(pos); !almost(got, want) {
			t.Fatalf("pot VoltageOut(%d) = %v, want %v", pos, got, want)
		}
	}

	r := dividerLadder(true)
	for pos := 0; pos <= r.MaxPos; pos++ {
		want := r.VoltageIn * r.RLoad / (r.RLoad + r.RLim + r.RWB(pos))
		if got := r.VoltageOut(pos); !almost(got, want) {
			t.Fatalf("rheostat VoltageOut(%d) = %v, want %v", pos, got, want)
		}
	}
}

func TestVoltageRoundTrips(t *testing.T) {
	for _, rheostat := range []bool{false, true} {
		l := dividerLadder(rheostat)
		for pos := 0; pos <= l.MaxPos; pos++ {
			v := l.VoltageOut(pos)
			got, clamped := l.PosFromVoltageOut(v)
			if got != pos || clamped {
				t.Fatalf("rheostat=%v: round trip at %d: got %d clamped=%v (v=%v)",
					rheostat, pos, got, clamped, v)
			}
		}
	}
}

func TestPosFromVoltageOutEdges(t *testing.T) {
	l := dividerLadder(false)

	if pos, clamped := l.PosFromVoltageOut(0); pos != 0 || clamped {
		t.Fatalf("zero volts = (%d, %v)", pos, clamped)
	}
	// Output of the wrong polarity cannot be reached.
	if pos, clamped := l.PosFromVoltageOut(-1); pos != 0 || !clamped {
		t.Fatalf("wrong sign = (%d, %v)", pos, clamped)
	}
	// More than the supply can deliver clamps to full scale.
	if pos, clamped := l.PosFromVoltageOut(100); pos != l.MaxPos || !clamped {
		t.Fatalf("overrange = (%d, %v)", pos, clamped)
	}

	unwired := Ladder{MaxPos: 128, TotalOhms: 10e3, WiperOhms: 75}
	if pos, clamped := unwired.PosFromVoltageOut(1); pos != 0 || clamped {
		t.Fatalf("unwired = (%d, %v)", pos, clamped)
	}
}

func TestVoltsValueMode(t *testing.T) {
	l := dividerLadder(true)
	if got := l.Value(64, Volts); got != l.VoltageOut(64) {
		t.Fatalf("Value volts = %v, want %v", got, l.VoltageOut(64))
	}
	pos, clamped := l.PosFromValue(l.VoltageOut(32), Volts)
	if pos != 32 || clamped {
		t.Fatalf("PosFromValue volts = (%d, %v), want (32, false)", pos, clamped)
	}
}

func TestLadderValueModes(t *testing.T) {
	l := testLadder()
	if got := l.Value(64, Raw); got != 64 {
		t.Errorf("Value raw = %v", got)
	}
	if got := l.Value(64, Fraction); got != 0.5 {
		t.Errorf("Value fraction = %v", got)
	}
	if got := l.Value(64, Ohms); got != l.RWB(64) {
		t.Errorf("Value ohms = %v, want %v", got, l.RWB(64))
	}
}
