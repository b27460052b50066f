// Package hal exposes DShot ESCs as bus capabilities. Devices are declared
// by a retained types.HALConfig on config/hal and controlled through
// hal/cap/<domain>/<kind>/<name>/control/<verb>.
package hal

import (
	"context"

	"dshot-go/bus"
	"dshot-go/drivers/dshot/engine"
	"dshot-go/services/hal/internal/core"

	// Device builders register themselves.
	_ "dshot-go/services/hal/devices/dshot_esc"
	_ "dshot-go/services/hal/devices/dshot_x4"
)

// Run starts the HAL on the platform's engines and blocks until ctx ends.
func Run(ctx context.Context, conn *bus.Connection) {
	RunWithEngines(ctx, conn, engine.NewManager(platformHardware()))
}

// RunWithEngines runs the HAL on a caller-supplied manager, e.g. one backed
// by engine.Sim.
func RunWithEngines(ctx context.Context, conn *bus.Connection, m *engine.Manager) {
	core.NewHAL(conn, core.Resources{Engines: m}).Run(ctx)
}
