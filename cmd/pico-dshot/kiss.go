//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"

	"dshot-go/drivers/esctelem"
	"dshot-go/x/conv"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// KISS serial telemetry from the ESC's telemetry wire on GP5 (UART1 RX).
const kissRX = machine.GPIO5

func startKISS(ctx context.Context) {
	r, err := esctelem.OpenUART(uartx.UART1, machine.NoPin, kissRX)
	if err != nil {
		println("[kiss] uart:", err.Error())
		return
	}
	go func() {
		var buf [20]byte
		for {
			f, err := r.Next(ctx)
			if err != nil {
				println("[kiss] stopped:", err.Error())
				return
			}
			print("[kiss] temp_C=", string(conv.Utoa(buf[:], uint64(f.TempC))))
			print(" mV=", string(conv.Utoa(buf[:], uint64(f.Voltage()))))
			print(" mA=", string(conv.Utoa(buf[:], uint64(f.Current()))))
			print(" mAh=", string(conv.Utoa(buf[:], uint64(f.ConsumedMAh))))
			print(" erpm=", string(conv.Utoa(buf[:], uint64(f.Erpm()))))
			print(" skipped=", string(conv.Utoa(buf[:], uint64(r.Skipped()))))
			println()
		}
	}()
}
