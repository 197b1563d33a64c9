package types

// ---- Common HAL state (retained) ----

type HALState struct {
	Level  string `json:"level"`  // e.g. "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	TSms   int64  `json:"ts_ms"`
}

// Link is the link/state reported for a capability.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

type CapabilityStatus struct {
	Link  Link   `json:"link"`
	TSms  int64  `json:"ts_ms"`
	Error string `json:"error,omitempty"` // machine-readable short code
}

// ---- Capability kinds ----

type Kind string

const (
	KindWiper Kind = "wiper" // one digital potentiometer channel
)

// Info envelope each device/cap exposes (retained).
type Info struct {
	SchemaVersion int    `json:"schema_version"`
	Driver        string `json:"driver"`
	Detail        any    `json:"detail,omitempty"`
}

// ---- Wiper capability payloads ----

// ValueMode selects the unit a wiper value is expressed in.
type ValueMode uint8

const (
	ModeRaw      ValueMode = iota // integer position 0..MaxPosition
	ModeFraction                  // 0..1 of full travel
	ModeOhms                      // resistance W-B in ohms
)

// WiperInfo is published under hal/cap/.../info as Info.Detail.
type WiperInfo struct {
	Model       string  `json:"model"` // e.g. "mcp4231"
	Bus         string  `json:"bus"`   // e.g. "spi0"
	Channel     int     `json:"channel"`
	MaxPosition int     `json:"max_position"`
	TotalOhms   float64 `json:"total_ohms"`
	WiperOhms   float64 `json:"wiper_ohms"`
	Rheostat    bool    `json:"rheostat,omitempty"`
	Volatile    bool    `json:"volatile"`
}

// WiperValue is published under hal/cap/.../value (retained).
type WiperValue struct {
	Position int     `json:"position"` // raw code
	Fraction float64 `json:"fraction"` // position / max_position
	Ohms     float64 `json:"ohms"`     // R_WB incl. wiper resistance
	Clamped  bool    `json:"clamped,omitempty"`
}

// Control payloads.

// WiperSet requests a wiper move. Value is interpreted per Mode.
// When Clamp is false an out-of-range value is rejected instead of coerced.
type WiperSet struct {
	Mode  ValueMode `json:"mode"`
	Value float64   `json:"value"`
	Clamp bool      `json:"clamp,omitempty"`
}

// WiperLock toggles the host-side write protect for one channel.
type WiperLock struct {
	Locked bool `json:"locked"`
}

// DeviceLock toggles the device-wide write protect (verb on any channel).
type DeviceLock struct {
	Locked bool `json:"locked"`
}

// WiperShutdown disconnects terminals via TCON for one channel.
type WiperShutdown struct {
	Shutdown bool `json:"shutdown"`
}

// Generic replies.
type OKReply struct {
	OK bool `json:"ok"`
}
type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// ---- Public HAL configuration ----

type HALConfig struct {
	Devices []HALDevice `json:"devices"`
}

type HALDevice struct {
	ID     string `json:"id"`     // logical device id, e.g. "pot0"
	Type   string `json:"type"`   // e.g. "mcp4xxx"
	Params any    `json:"params"` // device-specific params (JSON-like)
}
