package dshot

import (
	"errors"

	"tinygo.org/x/drivers"
)

// ErrTelemetryChecksum is returned by Update when the newest sample was
// corrupt.
var ErrTelemetryChecksum = errors.New("dshot: telemetry checksum")

// TelemetryReader is the telemetry side of a bidirectional channel.
type TelemetryReader interface {
	ReadTelemetryPacket(v *uint32) TelemetryType
}

// Telemetry accumulates the latest eRPM and EDT values of one ESC and
// exposes them through the tinygo drivers Sensor interface.
type Telemetry struct {
	r     TelemetryReader
	poles uint8

	erpm    uint32
	tempC   uint8
	voltQ   uint8 // 0.25 V steps
	currA   uint8
	stress  uint8
	status  uint8
	seen    TelemetryMask
	badSums uint32
}

// TelemetryMask records which values have been received at least once.
type TelemetryMask uint8

const (
	HaveErpm TelemetryMask = 1 << iota
	HaveTemperature
	HaveVoltage
	HaveCurrent
	HaveStress
	HaveStatus
)

var _ drivers.Sensor = (*Telemetry)(nil)

// NewTelemetry reads from r; poles converts eRPM to mechanical RPM.
func NewTelemetry(r TelemetryReader, poles uint8) *Telemetry {
	return &Telemetry{r: r, poles: poles}
}

// Update consumes the newest sample. which is accepted for interface
// compatibility: every frame type is decoded regardless.
func (t *Telemetry) Update(which drivers.Measurement) error {
	_ = which
	var v uint32
	switch t.r.ReadTelemetryPacket(&v) {
	case ERPM:
		t.erpm = v
		t.seen |= HaveErpm
	case Temperature:
		t.tempC = uint8(v)
		t.seen |= HaveTemperature
	case Voltage:
		t.voltQ = uint8(v)
		t.seen |= HaveVoltage
	case Current:
		t.currA = uint8(v)
		t.seen |= HaveCurrent
	case Stress:
		t.stress = uint8(v)
		t.seen |= HaveStress
	case Status:
		t.status = uint8(v)
		t.seen |= HaveStatus
	case ChecksumError:
		t.badSums++
		return ErrTelemetryChecksum
	}
	return nil
}

// Temperature returns the ESC temperature in milli-degrees Celsius.
func (t *Telemetry) Temperature() int32 { return int32(t.tempC) * 1000 }

// Voltage returns the supply voltage in millivolts.
func (t *Telemetry) Voltage() int32 { return int32(t.voltQ) * 250 }

// Current returns the motor current in milliamps.
func (t *Telemetry) Current() int32 { return int32(t.currA) * 1000 }

func (t *Telemetry) Erpm() uint32           { return t.erpm }
func (t *Telemetry) RPM() uint32            { return ErpmToRPM(t.erpm, t.poles) }
func (t *Telemetry) Stress() uint8          { return t.stress }
func (t *Telemetry) Status() uint8          { return t.status }
func (t *Telemetry) Seen() TelemetryMask    { return t.seen }
func (t *Telemetry) ChecksumErrors() uint32 { return t.badSums }
