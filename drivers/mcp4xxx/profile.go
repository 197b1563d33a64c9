package mcp4xxx

// Profile is the immutable record of one chip model's physical and
// protocol constants. Variation across the family is data, not types:
// supporting a new model means adding one table entry.
type Profile struct {
	Model       string
	MaxPosition int  // highest wiper code; taps = MaxPosition+1
	Channels    int  // wiper count
	Volatile    bool // false = EEPROM-backed wiper memory
	Rheostat    bool // terminal A not bonded out
	WiperOhms   float64
}

// The whole family shares the 75 Ω typical wiper resistance.
const wiperOhms = 75

// Available end-to-end resistance grades (ohms).
var resistanceGrades = [...]float64{5e3, 10e3, 50e3, 100e3}

// DefaultTotalOhms is assumed when a config leaves the grade unset.
const DefaultTotalOhms = 10e3

func validGrade(r float64) bool {
	for _, g := range resistanceGrades {
		if r == g {
			return true
		}
	}
	return false
}

func p(model string, maxPos, channels int, volatile, rheostat bool) Profile {
	return Profile{
		Model:       model,
		MaxPosition: maxPos,
		Channels:    channels,
		Volatile:    volatile,
		Rheostat:    rheostat,
		WiperOhms:   wiperOhms,
	}
}

var profiles = map[string]Profile{
	// Single channel potentiometers.
	"mcp4131": p("mcp4131", 128, 1, true, false),
	"mcp4141": p("mcp4141", 128, 1, false, false),
	"mcp4151": p("mcp4151", 256, 1, true, false),
	"mcp4161": p("mcp4161", 256, 1, false, false),
	// Single channel rheostats.
	"mcp4132": p("mcp4132", 128, 1, true, true),
	"mcp4142": p("mcp4142", 128, 1, false, true),
	"mcp4152": p("mcp4152", 256, 1, true, true),
	"mcp4162": p("mcp4162", 256, 1, false, true),
	// Dual channel potentiometers.
	"mcp4231": p("mcp4231", 128, 2, true, false),
	"mcp4241": p("mcp4241", 128, 2, false, false),
	"mcp4251": p("mcp4251", 256, 2, true, false),
	"mcp4261": p("mcp4261", 256, 2, false, false),
	// Dual channel rheostats.
	"mcp4232": p("mcp4232", 128, 2, true, true),
	"mcp4242": p("mcp4242", 128, 2, false, true),
	"mcp4252": p("mcp4252", 256, 2, true, true),
	"mcp4262": p("mcp4262", 256, 2, false, true),
}

// LookupProfile resolves a chip model identifier ("mcp4231") to its profile.
func LookupProfile(model string) (Profile, error) {
	pr, ok := profiles[model]
	if !ok {
		return Profile{}, ErrUnknownModel
	}
	return pr, nil
}

// wiperRegister maps a channel index to its volatile wiper sub-address.
func wiperRegister(channel int) byte {
	if channel == 1 {
		return regWiper1
	}
	return regWiper0
}

// nvWiperRegister maps a channel index to its non-volatile wiper sub-address.
func nvWiperRegister(channel int) byte {
	if channel == 1 {
		return regNVWiper1
	}
	return regNVWiper0
}
