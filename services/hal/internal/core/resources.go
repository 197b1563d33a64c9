package core

import (
	"tinygo.org/x/drivers"
)

// ---- Resource identifiers ----

type ResourceID string // e.g. "spi0", "gpio17"

// ---- Transactional buses ----

// SPI transfers are serialised per device by the drivers themselves; the
// registry only enforces exclusive claims so two devices never share a bus
// without coordination.
type SPIOwner = drivers.SPI

// ---- GPIO handles (chip-select lines etc.) ----

type GPIOHandle interface {
	Number() int
	ConfigureOutput(initial bool) error
	Set(bool)
	Get() bool
}

// ---- Capability addressing ----

type CapAddr struct {
	Domain string // e.g. "pot"
	Kind   string // e.g. "wiper"
	Name   string // e.g. "pot0_w0"
}

// ---- Device → HAL telemetry (single shape) ----
// By default, an Event is a value-like update the HAL publishes retained to
// .../value. If IsEvent is true it goes to .../event (non-retained). Err,
// when non-empty, instead publishes a retained .../status=degraded.

type Event struct {
	Addr     CapAddr
	Payload  any
	TSms     int64
	Err      string // short code: "transport_error", "write_protected", ...
	IsEvent  bool
	EventTag string // optional event subtopic tag
}

// ---- Event emission (devices → HAL) ----

type EventEmitter interface {
	// Emit tries to enqueue an Event for HAL publication.
	// It must be non-blocking; false indicates a drop under pressure.
	Emit(ev Event) bool
}

// ---- Unified registry interface ----

type ResourceRegistry interface {
	// Transactional buses
	ClaimSPI(devID string, id ResourceID) (SPIOwner, error)
	ReleaseSPI(devID string, id ResourceID)

	// GPIO
	ClaimGPIO(devID string, pin int) (GPIOHandle, error)
	ReleaseGPIO(devID string, pin int)
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg ResourceRegistry
	Pub EventEmitter // provided by the HAL; devices emit values through it
}
