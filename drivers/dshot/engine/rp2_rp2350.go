//go:build rp2350

package engine

import pio "github.com/tinygo-org/pio/rp2-pio"

const rp2PinCount = 48

func rp2Blocks() []*pio.PIO { return []*pio.PIO{pio.PIO0, pio.PIO1, pio.PIO2} }
