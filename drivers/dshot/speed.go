package dshot

import "dshot-go/x/mathx"

const (
	MinSpeed = 150
	MaxSpeed = 4800

	// Every program bit period is 40 PIO cycles at DShot300, so DShot300
	// runs the state machine at 12 MHz.
	cyclesPerKbit = 12_000_000 / 300
)

// ValidSpeed reports whether speed (in kbit/s) is within the supported range.
func ValidSpeed(speed uint32) bool {
	return mathx.Between(speed, MinSpeed, MaxSpeed)
}

// StandardSpeed reports whether speed is one of the published DShot rates.
// DShot150 has no bidirectional variant.
func StandardSpeed(speed uint32, bidir bool) bool {
	switch speed {
	case 300, 600, 1200, 2400:
		return true
	case 150:
		return !bidir
	}
	return false
}

// ClockDivider returns the 8.8 fixed-point divider that runs a state machine
// at the program clock for speed, given the system clock sysHz.
func ClockDivider(sysHz, speed uint32) (whole uint16, frac uint8) {
	target := uint64(cyclesPerKbit) * uint64(speed)
	if target == 0 {
		return 1, 0
	}
	div := uint64(sysHz) * 256 / target
	whole = uint16(mathx.Min(div>>8, 0xFFFF))
	if whole == 0 {
		return 1, 0
	}
	return whole, uint8(div & 0xFF)
}
