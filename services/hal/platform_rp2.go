//go:build rp2040 || rp2350

package hal

import "dshot-go/drivers/dshot/engine"

func platformHardware() engine.Hardware { return engine.NewRP2() }
