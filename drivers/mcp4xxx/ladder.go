package mcp4xxx

import (
	"math"

	"digipot-go/x/mathx"
)

// ValueMode selects the unit a wiper value is expressed in.
type ValueMode uint8

const (
	Raw      ValueMode = iota // integer position 0..MaxPos
	Fraction                  // 0..1 of full travel
	Ohms                      // resistance W-B in ohms
	Volts                     // wiper output voltage, needs circuit params
)

// Ladder is the pure resistor-ladder model of one wiper: position,
// fraction and resistance conversions for a chip with MaxPos+1 taps,
// TotalOhms end-to-end and WiperOhms in series at every tap. No I/O.
//
// The optional circuit parameters describe the surrounding divider:
// VoltageIn feeds terminal A (terminal B for rheostat wiring) through a
// series limiter RLim, and the wiper drives a resistive load RLoad to
// ground. With them set, VoltageOut and PosFromVoltageOut convert between
// wiper position and output voltage. All default to zero (unconnected).
type Ladder struct {
	MaxPos    int
	TotalOhms float64
	WiperOhms float64

	Rheostat  bool // terminal A floating, supply enters through B
	RLim      float64
	RLoad     float64
	VoltageIn float64
}

// StepOhms is the resistance of one discrete step.
func (l Ladder) StepOhms() float64 { return l.TotalOhms / float64(l.MaxPos) }

// RWB is the resistance between the wiper and terminal B at pos.
func (l Ladder) RWB(pos int) float64 {
	pos = clampPos(pos, l.MaxPos)
	return l.WiperOhms + l.StepOhms()*float64(pos)
}

// RWA is the resistance between the wiper and terminal A at pos.
func (l Ladder) RWA(pos int) float64 {
	pos = clampPos(pos, l.MaxPos)
	return l.WiperOhms + l.StepOhms()*float64(l.MaxPos-pos)
}

// Fraction is pos expressed as 0..1 of full travel (0 = terminal B).
func (l Ladder) Fraction(pos int) float64 {
	return float64(clampPos(pos, l.MaxPos)) / float64(l.MaxPos)
}

// PosFromFraction quantises a 0..1 travel fraction onto the ladder.
// The clamped result reports whether the input fell outside the range.
func (l Ladder) PosFromFraction(f float64) (int, bool) {
	return l.quantise(f * float64(l.MaxPos))
}

// PosFromRWB quantises a W-B resistance onto the ladder.
func (l Ladder) PosFromRWB(ohms float64) (int, bool) {
	return l.quantise((ohms - l.WiperOhms) / l.StepOhms())
}

// PosFromRWA quantises a W-A resistance onto the ladder.
func (l Ladder) PosFromRWA(ohms float64) (int, bool) {
	return l.quantise(float64(l.MaxPos) - (ohms-l.WiperOhms)/l.StepOhms())
}

// VoltageOut is the loaded divider output at pos. Zero input voltage or a
// zero (disconnected) load always gives zero.
func (l Ladder) VoltageOut(pos int) float64 {
	if l.VoltageIn == 0 || l.RLoad == 0 {
		return 0
	}
	if l.Rheostat {
		// Supply through RLim and the W-B segment into the load.
		return l.VoltageIn * l.RLoad / (l.RLoad + l.RLim + l.RWB(pos))
	}
	p := l.Fraction(pos)
	rwb := l.TotalOhms * p
	rwa := l.TotalOhms * (1 - p)
	rl := l.WiperOhms + l.RLoad
	rbot := rwb * rl / (rwb + rl)
	vbot := l.VoltageIn * rbot / (rbot + l.RLim + rwa)
	return vbot / rl * l.RLoad
}

// PosFromVoltageOut quantises the position producing a given output
// voltage. Requests of the wrong sign, or with no load or supply
// configured, resolve to position zero.
func (l Ladder) PosFromVoltageOut(v float64) (int, bool) {
	if v == 0 || l.RLoad == 0 || l.VoltageIn == 0 {
		return 0, false
	}
	if (v > 0) != (l.VoltageIn > 0) {
		return 0, true
	}
	if l.Rheostat {
		rTotal := l.VoltageIn * l.RLoad / v
		return l.PosFromRWB(rTotal - l.RLoad - l.RLim)
	}
	// Solve the loaded divider for the W-B segment resistance:
	// x² + (K·rl − L)·x − L·rl = 0, K = VoltageIn/vbot, L = TotalOhms+RLim.
	rl := l.WiperOhms + l.RLoad
	vbot := v * rl / l.RLoad
	lim := l.TotalOhms + l.RLim
	b := l.VoltageIn/vbot*rl - lim
	d := b*b + 4*lim*rl
	rwb := (-b + math.Sqrt(d)) / 2
	return l.quantise(rwb / l.TotalOhms * float64(l.MaxPos))
}

// Value converts a cached position into the requested unit.
func (l Ladder) Value(pos int, mode ValueMode) float64 {
	switch mode {
	case Fraction:
		return l.Fraction(pos)
	case Ohms:
		return l.RWB(pos)
	case Volts:
		return l.VoltageOut(pos)
	default:
		return float64(clampPos(pos, l.MaxPos))
	}
}

// PosFromValue converts a value in the requested unit into a position.
func (l Ladder) PosFromValue(v float64, mode ValueMode) (int, bool) {
	switch mode {
	case Fraction:
		return l.PosFromFraction(v)
	case Ohms:
		return l.PosFromRWB(v)
	case Volts:
		return l.PosFromVoltageOut(v)
	default:
		return l.quantise(v)
	}
}

// quantise is the single place non-integer input becomes a code.
// Rounding is half-to-even so the mapping is deterministic and unbiased.
func (l Ladder) quantise(x float64) (int, bool) {
	pos := int(math.RoundToEven(x))
	if pos < 0 {
		return 0, true
	}
	if pos > l.MaxPos {
		return l.MaxPos, true
	}
	return pos, false
}

func clampPos(pos, max int) int { return mathx.Clamp(pos, 0, max) }
