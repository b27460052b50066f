package dshot

import "sync"

// SimESC emulates a bidirectional ESC behind an engine.Sim slot. Install
// Respond as the slot's responder. It answers valid frames with the current
// eRPM, interleaving queued EDT frames, and records what it was sent.
type SimESC struct {
	mu       sync.Mutex
	erpm     uint32
	edt      []uint16
	last     uint16
	frames   int
	rejected int
	silent   bool
	corrupt  bool
}

// SetErpm sets the eRPM reported in subsequent replies.
func (e *SimESC) SetErpm(erpm uint32) {
	e.mu.Lock()
	e.erpm = erpm
	e.mu.Unlock()
}

// QueueEDT queues an extended telemetry frame for the next reply.
func (e *SimESC) QueueEDT(t TelemetryType, v uint8) bool {
	raw, ok := EncodeEDT(t, v)
	if !ok {
		return false
	}
	e.mu.Lock()
	e.edt = append(e.edt, raw)
	e.mu.Unlock()
	return true
}

// SetSilent stops replies, as an ESC without bidirectional support would.
func (e *SimESC) SetSilent(on bool) {
	e.mu.Lock()
	e.silent = on
	e.mu.Unlock()
}

// SetCorrupt makes replies fail the telemetry checksum.
func (e *SimESC) SetCorrupt(on bool) {
	e.mu.Lock()
	e.corrupt = on
	e.mu.Unlock()
}

// Respond takes the bit-inverted word pushed to the slot.
func (e *SimESC) Respond(word uint32) (uint32, bool) {
	frame := uint16(^word)
	e.mu.Lock()
	defer e.mu.Unlock()
	if !ChecksumValid(frame, ChecksumInverted) {
		e.rejected++
		return 0, false
	}
	e.last = frame >> 4
	e.frames++
	if e.silent {
		return 0, false
	}
	raw := EncodeErpm(e.erpm)
	if len(e.edt) > 0 {
		raw = e.edt[0]
		e.edt = e.edt[1:]
	}
	sample := EncodeTelemetry(raw)
	if e.corrupt {
		sample ^= 1
	}
	return sample, true
}

// LastPayload returns the 12-bit payload of the last accepted frame.
func (e *SimESC) LastPayload() uint16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Frames returns how many valid frames were accepted and rejected.
func (e *SimESC) Frames() (accepted, rejected int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames, e.rejected
}
