//go:build !(rp2040 || rp2350)

package hal

import "dshot-go/drivers/dshot/engine"

func platformHardware() engine.Hardware {
	println("[hal] no PIO on this target, using simulated engines")
	return engine.NewSim()
}
