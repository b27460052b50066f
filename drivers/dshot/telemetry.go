package dshot

// TelemetryType classifies the outcome of a telemetry read. The ordering is
// significant: every value greater than NoPacket is an extended telemetry
// (EDT) sensor frame.
type TelemetryType uint8

const (
	ERPM TelemetryType = iota
	OtherValue
	ChecksumError
	NoPacket
	Voltage
	Current
	Temperature
	Status
	Stress
	DebugFrame1
	DebugFrame2
)

var telemetryTypeNames = [...]string{
	ERPM:          "erpm",
	OtherValue:    "other_value",
	ChecksumError: "checksum_error",
	NoPacket:      "no_packet",
	Voltage:       "voltage",
	Current:       "current",
	Temperature:   "temperature",
	Status:        "status",
	Stress:        "stress",
	DebugFrame1:   "debug1",
	DebugFrame2:   "debug2",
}

func (t TelemetryType) String() string {
	if int(t) < len(telemetryTypeNames) {
		return telemetryTypeNames[t]
	}
	return "unknown"
}

// IsSensor reports whether t is an EDT sensor frame.
func (t TelemetryType) IsSensor() bool { return t > NoPacket }

const iv = 0xFF

// gcrDecode maps a 5-bit GCR group to its nibble; iv marks illegal codes.
var gcrDecode = [32]uint8{
	iv, iv, iv, iv, iv, iv, iv, iv, iv, 9, 10, 11, iv, 13, 14, 15,
	iv, iv, 2, 3, iv, 5, 6, 7, iv, 0, 8, 1, iv, 4, 12, iv,
}

var gcrEncode = [16]uint8{
	0x19, 0x1B, 0x12, 0x13, 0x1D, 0x15, 0x16, 0x17,
	0x1A, 0x09, 0x0A, 0x0B, 0x1E, 0x0D, 0x0E, 0x0F,
}

// typeByNibble maps the top nibble of a 12-bit telemetry value to its type.
// Even nibbles other than zero carry EDT frames; the rest are eRPM periods.
var typeByNibble = [16]TelemetryType{
	ERPM, ERPM, Temperature, ERPM,
	Voltage, ERPM, Current, ERPM,
	DebugFrame1, ERPM, DebugFrame2, ERPM,
	Stress, ERPM, Status, ERPM,
}

// ErpmNone is the raw eRPM value an ESC reports when the motor is stopped.
const ErpmNone = 0xFFF

// DecodeTelemetryRaw decodes one 20-bit line sample into its 12-bit value.
// The value is only meaningful when the returned type is not ChecksumError.
func DecodeTelemetryRaw(sample uint32) (TelemetryType, uint32) {
	sample ^= sample >> 1
	var data uint32
	for i := 0; i < 4; i++ {
		n := gcrDecode[(sample>>(5*i))&0x1F]
		if n == iv {
			return ChecksumError, 0
		}
		data |= uint32(n) << (4 * i)
	}
	c := data>>8 ^ data
	c ^= c >> 4
	if c&0x0F != 0x0F {
		return ChecksumError, 0
	}
	return typeByNibble[data>>12], data >> 4
}

// DecodeErpm converts a raw 12-bit eRPM period (eeem mmmm mmmm, in µs) to
// electrical RPM. ErpmNone decodes to zero. A zero period cannot be
// converted and reports false.
func DecodeErpm(raw uint32) (uint32, bool) {
	raw &= 0xFFF
	if raw == ErpmNone {
		return 0, true
	}
	period := (raw & 0x1FF) << (raw >> 9)
	if period == 0 {
		return 0, false
	}
	return (60_000_000 + 50*period) / period, true
}

// DecodeTelemetryValue converts a raw value of type t to its final value:
// electrical RPM for ERPM, the low data byte for everything else.
func DecodeTelemetryValue(raw uint32, t TelemetryType) (uint32, bool) {
	if t == ERPM {
		return DecodeErpm(raw)
	}
	return raw & 0xFF, true
}

// EncodeTelemetry builds the 20-bit line sample an ESC would transmit for
// the 12-bit value v. DecodeTelemetryRaw(EncodeTelemetry(v)) yields v.
func EncodeTelemetry(v uint16) uint32 {
	v &= 0xFFF
	n3, n2, n1 := v>>8&0xF, v>>4&0xF, v&0xF
	data := uint32(v)<<4 | uint32(^(n3^n2^n1)&0xF)

	var g uint32
	for i := 0; i < 4; i++ {
		g |= uint32(gcrEncode[(data>>(4*i))&0xF]) << (5 * i)
	}
	// Undo the x ^= x>>1 applied on reception.
	g ^= g >> 1
	g ^= g >> 2
	g ^= g >> 4
	g ^= g >> 8
	g ^= g >> 16
	return g
}

// EncodeErpm returns the raw 12-bit period an ESC reports for erpm.
// Zero encodes as ErpmNone.
func EncodeErpm(erpm uint32) uint16 {
	if erpm == 0 {
		return ErpmNone
	}
	period := 60_000_000 / erpm
	var exp uint32
	for period > 0x1FF && exp < 7 {
		period >>= 1
		exp++
	}
	if period > 0x1FF {
		period = 0x1FF
	}
	return uint16(exp<<9 | period)
}

// EncodeEDT returns the raw 12-bit value of an extended telemetry frame.
// It reports false for types that are not sensor frames.
func EncodeEDT(t TelemetryType, v uint8) (uint16, bool) {
	for nib, tt := range typeByNibble {
		if tt == t && t.IsSensor() {
			return uint16(nib)<<8 | uint16(v), true
		}
	}
	return 0, false
}

// ErpmToRPM converts electrical RPM to mechanical RPM for a motor with the
// given number of magnet poles.
func ErpmToRPM(erpm uint32, poles uint8) uint32 {
	if poles < 2 {
		return erpm
	}
	return erpm * 2 / uint32(poles)
}
