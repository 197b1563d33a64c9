// Package hal runs the hardware abstraction layer: it builds devices from
// the retained config/hal document and bridges their capabilities onto the
// message bus.
package hal

import (
	"context"

	"digipot-go/bus"
	"digipot-go/services/hal/internal/core"

	// Device builders register themselves at init time.
	_ "digipot-go/services/hal/devices/mcp4xxx"
)

// ResourceRegistry hands out exclusive bus and pin claims to devices.
type ResourceRegistry = core.ResourceRegistry

// Run blocks until ctx is cancelled, serving controls and publishing
// capability state on conn.
func Run(ctx context.Context, conn *bus.Connection, reg ResourceRegistry) {
	core.NewHAL(conn, core.Resources{Reg: reg}).Run(ctx)
}
