package dshot

import (
	"dshot-go/drivers/dshot/engine"
	"dshot-go/errcode"
)

// X4Config selects the lanes, rate and engine slot of an X4.
type X4Config struct {
	PinBase  uint8
	PinCount uint8 // 1..4 consecutive pins
	Speed    uint32
	Block    engine.Block
	Slot     int
	Checksum ChecksumMode
}

// DefaultX4Config returns DShot600 on count pins from base, plain checksum.
func DefaultX4Config(base, count uint8) X4Config {
	return X4Config{PinBase: base, PinCount: count, Speed: 600, Slot: engine.AutoSlot}
}

// X4 drives up to four ESCs from one slot, transmit only. Lanes beyond
// PinCount are encoded but never reach a pin.
type X4 struct {
	lease *engine.Lease
	cfg   X4Config
	err   error
}

// NewX4 validates cfg and starts the four-lane program. See NewBidirX1 for
// the failure contract.
func NewX4(m *engine.Manager, cfg X4Config) *X4 {
	d := &X4{cfg: cfg}
	hw := m.Hardware()
	switch {
	case cfg.Slot < engine.AutoSlot || cfg.Slot >= hw.SlotsPerBlock():
		d.err = &errcode.E{C: errcode.InvalidParams, Op: "x4", Msg: "slot out of range"}
	case cfg.PinCount < 1 || cfg.PinCount > 4:
		d.err = &errcode.E{C: errcode.InvalidParams, Op: "x4", Msg: "pin count must be 1..4"}
	case int(cfg.PinBase)+int(cfg.PinCount) > hw.PinCount():
		d.err = &errcode.E{C: errcode.InvalidParams, Op: "x4", Msg: "pins out of range"}
	case !ValidSpeed(cfg.Speed):
		d.err = &errcode.E{C: errcode.InvalidParams, Op: "x4", Msg: "speed out of range"}
	case int(cfg.Block) >= hw.NumBlocks():
		d.err = &errcode.E{C: errcode.InvalidParams, Op: "x4", Msg: "no such block"}
	}
	if d.err != nil {
		println("[dshot] x4: invalid params on pin", cfg.PinBase, "-", d.err.Error())
		return d
	}
	if !StandardSpeed(cfg.Speed, false) {
		println("[dshot] x4: unofficial speed", cfg.Speed)
	}

	l, err := m.Acquire(cfg.Block, cfg.Slot, X4Program)
	if err != nil {
		println("[dshot] x4: acquire failed -", err.Error())
		d.err = err
		return d
	}
	if err := l.AttachPins(cfg.PinBase, cfg.PinCount, engine.PullNone, engine.PullNone); err != nil {
		l.Release()
		d.err = err
		return d
	}
	whole, frac := ClockDivider(m.SystemClockHz(), cfg.Speed)
	l.Start(engine.SlotConfig{
		PinBase:    cfg.PinBase,
		PinCount:   cfg.PinCount,
		ClkDivInt:  whole,
		ClkDivFrac: frac,
	})
	d.lease = l
	return d
}

func (d *X4) InitError() bool  { return d.err != nil }
func (d *X4) Err() error       { return d.err }
func (d *X4) Config() X4Config { return d.cfg }
func (d *X4) Lanes() int       { return int(d.cfg.PinCount) }

// Slot returns the engine slot in use; ok is false for inert instances.
func (d *X4) Slot() (s engine.Slot, ok bool) {
	if d.lease == nil {
		return engine.Slot{}, false
	}
	return d.lease.Slot(), true
}

// SendThrottles sends one throttle in [0, 2000] per lane.
func (d *X4) SendThrottles(v [4]uint16) {
	for i := range v {
		v[i] = EncodeThrottle(v[i])
	}
	d.SendRaw12Bit(v)
}

// SendRaw11Bit sends one 11-bit value per lane with telemetry requested.
func (d *X4) SendRaw11Bit(v [4]uint16) {
	for i := range v {
		v[i] = EncodeRaw11(v[i])
	}
	d.SendRaw12Bit(v)
}

// SendCommand sends c on every lane.
func (d *X4) SendCommand(c Command) {
	p := EncodeCommand(c)
	d.SendRaw12Bit([4]uint16{p, p, p, p})
}

// SendRaw12Bit appends checksums to four 12-bit payloads and transmits them
// simultaneously.
func (d *X4) SendRaw12Bit(v [4]uint16) {
	if d.lease == nil {
		return
	}
	var frames [4]uint16
	for i := range v {
		frames[i] = AppendChecksumMode(v[i], d.cfg.Checksum)
	}
	w := Interleave(frames)
	d.lease.Push(w[0])
	d.lease.Push(w[1])
}

// Close stops the slot and returns every resource.
func (d *X4) Close() {
	if d.lease == nil {
		return
	}
	d.lease.Release()
	d.lease = nil
}
