package dshot

import (
	"dshot-go/drivers/dshot/engine"
	"dshot-go/errcode"
)

// BidirConfig selects the pin, rate and engine slot of a BidirX1.
type BidirConfig struct {
	Pin   uint8
	Speed uint32 // kbit/s, 150..4800
	Block engine.Block
	Slot  int // engine.AutoSlot or a slot index
}

// DefaultBidirConfig returns DShot600 on pin with an automatically chosen
// slot in block 0.
func DefaultBidirConfig(pin uint8) BidirConfig {
	return BidirConfig{Pin: pin, Speed: 600, Slot: engine.AutoSlot}
}

// BidirX1 drives one ESC over a single bidirectional wire.
//
// Construction never fails outright: an instance whose setup failed is inert,
// reports InitError, and every operation on it is a no-op. Telemetry reads
// take a pointer so the caller's previous value survives frames that carry
// nothing usable.
type BidirX1 struct {
	lease *engine.Lease
	cfg   BidirConfig
	err   error
}

// NewBidirX1 validates cfg, claims a slot, shares or loads the program and
// starts transmitting on cfg.Pin.
func NewBidirX1(m *engine.Manager, cfg BidirConfig) *BidirX1 {
	d := &BidirX1{cfg: cfg}
	hw := m.Hardware()
	switch {
	case cfg.Slot < engine.AutoSlot || cfg.Slot >= hw.SlotsPerBlock():
		d.err = &errcode.E{C: errcode.InvalidParams, Op: "bidir", Msg: "slot out of range"}
	case int(cfg.Pin) >= hw.PinCount():
		d.err = &errcode.E{C: errcode.InvalidParams, Op: "bidir", Msg: "pin out of range"}
	case !ValidSpeed(cfg.Speed):
		d.err = &errcode.E{C: errcode.InvalidParams, Op: "bidir", Msg: "speed out of range"}
	case int(cfg.Block) >= hw.NumBlocks():
		d.err = &errcode.E{C: errcode.InvalidParams, Op: "bidir", Msg: "no such block"}
	}
	if d.err != nil {
		println("[dshot] bidir: invalid params on pin", cfg.Pin, "-", d.err.Error())
		return d
	}
	if !StandardSpeed(cfg.Speed, true) {
		println("[dshot] bidir: unofficial speed", cfg.Speed, "on pin", cfg.Pin)
	}

	l, err := m.Acquire(cfg.Block, cfg.Slot, BidirX1Program)
	if err != nil {
		println("[dshot] bidir: acquire failed on pin", cfg.Pin, "-", err.Error())
		d.err = err
		return d
	}
	if err := l.AttachPins(cfg.Pin, 1, engine.PullUp, engine.PullUp); err != nil {
		l.Release()
		d.err = err
		return d
	}
	whole, frac := ClockDivider(m.SystemClockHz(), cfg.Speed)
	l.Start(engine.SlotConfig{
		PinBase:    cfg.Pin,
		PinCount:   1,
		Sense:      true,
		ClkDivInt:  whole,
		ClkDivFrac: frac,
	})
	d.lease = l
	return d
}

// InitError reports whether construction failed.
func (d *BidirX1) InitError() bool { return d.err != nil }

// Err returns the construction error, if any.
func (d *BidirX1) Err() error { return d.err }

func (d *BidirX1) Config() BidirConfig { return d.cfg }

// Slot returns the engine slot in use; ok is false for inert instances.
func (d *BidirX1) Slot() (s engine.Slot, ok bool) {
	if d.lease == nil {
		return engine.Slot{}, false
	}
	return d.lease.Slot(), true
}

// SendThrottle sends a throttle in [0, 2000] without the telemetry request
// bit. Zero stops the motor.
func (d *BidirX1) SendThrottle(v uint16) { d.SendRaw12Bit(EncodeThrottle(v)) }

// SendRaw11Bit sends an 11-bit value with the telemetry request bit set.
func (d *BidirX1) SendRaw11Bit(v uint16) { d.SendRaw12Bit(EncodeRaw11(v)) }

// SendCommand sends a special command.
func (d *BidirX1) SendCommand(c Command) { d.SendRaw12Bit(EncodeCommand(c)) }

// SendRaw12Bit sends a 12-bit payload, appending the inverted checksum.
// If the program is not parked waiting for a frame (still listening for a
// reply that never came), it is steered back to the send entry first.
func (d *BidirX1) SendRaw12Bit(v uint16) {
	if d.lease == nil {
		return
	}
	frame := AppendChecksum(v)
	if d.lease.PC() != bidirIdle {
		d.lease.Jump(bidirSendEntry)
	}
	d.lease.Push(^uint32(frame))
}

// TelemetryAvailable reports whether a sample is waiting, valid or not.
func (d *BidirX1) TelemetryAvailable() bool {
	return d.lease != nil && !d.lease.RxEmpty()
}

// ReadTelemetryRaw drains the RX FIFO, decodes the newest sample and stores
// its 12-bit value in v. v is untouched for NoPacket and ChecksumError.
func (d *BidirX1) ReadTelemetryRaw(v *uint32) TelemetryType {
	if d.lease == nil || d.lease.RxEmpty() {
		return NoPacket
	}
	sample := d.lease.Pop()
	for !d.lease.RxEmpty() {
		sample = d.lease.Pop()
	}
	t, raw := DecodeTelemetryRaw(sample)
	if t == ChecksumError {
		return ChecksumError
	}
	*v = raw
	return t
}

// ReadTelemetryErpm reads the newest sample and stores its eRPM in v. EDT
// sensor frames are reported as OtherValue and leave v untouched.
func (d *BidirX1) ReadTelemetryErpm(v *uint32) TelemetryType {
	var raw uint32
	t := d.ReadTelemetryRaw(&raw)
	if t.IsSensor() {
		return OtherValue
	}
	if t != ERPM {
		return t
	}
	erpm, ok := DecodeErpm(raw)
	if !ok {
		return ChecksumError
	}
	*v = erpm
	return ERPM
}

// ReadTelemetryPacket reads the newest sample of any type and stores its
// converted value in v: eRPM, or the data byte of an EDT frame.
func (d *BidirX1) ReadTelemetryPacket(v *uint32) TelemetryType {
	var raw uint32
	t := d.ReadTelemetryRaw(&raw)
	switch {
	case t == ERPM:
		erpm, ok := DecodeErpm(raw)
		if !ok {
			return ChecksumError
		}
		*v = erpm
	case t.IsSensor():
		*v = raw & 0xFF
	}
	return t
}

// Close stops the slot and returns every resource. Safe to call more than
// once and on inert instances.
func (d *BidirX1) Close() {
	if d.lease == nil {
		return
	}
	d.lease.Release()
	d.lease = nil
}
