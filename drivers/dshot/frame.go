// Package dshot drives DShot ESCs from RP2 PIO state machines and decodes the
// bidirectional eRPM/EDT telemetry they send back.
package dshot

import "dshot-go/x/mathx"

// ChecksumMode selects how the 4-bit frame checksum is finalised.
type ChecksumMode uint8

const (
	// ChecksumNormal is plain DShot.
	ChecksumNormal ChecksumMode = iota
	// ChecksumInverted is used by bidirectional DShot: the ESC only answers
	// frames whose checksum nibble is inverted.
	ChecksumInverted
)

func (m ChecksumMode) String() string {
	if m == ChecksumInverted {
		return "inverted"
	}
	return "normal"
}

const (
	// MaxThrottle is the highest accepted throttle value; larger values clamp.
	MaxThrottle = 2000
	// throttleOffset skips the 48 command codes (0 stays "motor stop").
	throttleOffset = 47
	// MaxRaw11 is the largest 11-bit payload.
	MaxRaw11 = 0x7FF
)

// AppendChecksum appends the inverted checksum used on bidirectional links.
// payload holds 11 data bits and the telemetry request bit; the result is
// the 16-bit frame.
func AppendChecksum(payload uint16) uint16 {
	return AppendChecksumMode(payload, ChecksumInverted)
}

// AppendChecksumMode appends the checksum nibble according to mode.
func AppendChecksumMode(payload uint16, mode ChecksumMode) uint16 {
	payload &= 0x0FFF
	c := payload ^ payload>>4 ^ payload>>8
	if mode == ChecksumInverted {
		c = ^c
	}
	return payload<<4 | c&0x0F
}

// ChecksumValid reports whether frame carries a correct checksum for mode.
func ChecksumValid(frame uint16, mode ChecksumMode) bool {
	return AppendChecksumMode(frame>>4, mode) == frame
}

// EncodeThrottle maps a throttle in [0, 2000] onto the 12-bit payload with
// the telemetry request bit clear. Zero means motor stop.
func EncodeThrottle(v uint16) uint16 {
	v = mathx.Min(v, MaxThrottle)
	if v != 0 {
		v += throttleOffset
	}
	return v << 1
}

// EncodeRaw11 builds a 12-bit payload with the telemetry request bit set.
// Values above 2047 are truncated to 11 bits.
func EncodeRaw11(v uint16) uint16 {
	return (v&MaxRaw11)<<1 | 1
}

// EncodeCommand builds the payload for a special command. Commands always
// carry the telemetry request bit.
func EncodeCommand(c Command) uint16 {
	return EncodeRaw11(uint16(c))
}
