//go:build rp2040

package engine

import pio "github.com/tinygo-org/pio/rp2-pio"

const rp2PinCount = 30

func rp2Blocks() []*pio.PIO { return []*pio.PIO{pio.PIO0, pio.PIO1} }
