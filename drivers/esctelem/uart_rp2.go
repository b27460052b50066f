//go:build rp2040 || rp2350

package esctelem

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// OpenUART configures u for telemetry on rx and returns a Reader over it.
// Only the receive pin is used; tx may be machine.NoPin.
func OpenUART(u *uartx.UART, tx, rx machine.Pin) (*Reader, error) {
	if err := u.Configure(uartx.UARTConfig{BaudRate: Baud, TX: tx, RX: rx}); err != nil {
		return nil, err
	}
	return NewReader(u), nil
}
