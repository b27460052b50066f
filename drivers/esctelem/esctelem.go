// Package esctelem decodes the 10-byte telemetry frame KISS and BLHeli_32
// ESCs send on their separate telemetry wire after a DShot frame with the
// telemetry request bit set.
//
//	byte 0     temperature, °C
//	byte 1-2   voltage, 10 mV
//	byte 3-4   current, 10 mA
//	byte 5-6   consumption, mAh
//	byte 7-8   eRPM / 100
//	byte 9     CRC-8 (poly 0x07, init 0) over bytes 0-8
//
// Multi-byte fields are big-endian. The line runs at 115200 8N1.
package esctelem

import (
	"context"
	"errors"
)

// FrameLen is the size of one telemetry frame on the wire.
const FrameLen = 10

// Baud is the telemetry line rate.
const Baud = 115200

var (
	ErrShortFrame = errors.New("esctelem: short frame")
	ErrCRC        = errors.New("esctelem: crc mismatch")
)

// Frame is one decoded telemetry frame in fixed-point units.
type Frame struct {
	TempC       uint8
	VoltageCV   uint16 // centivolts
	CurrentCA   uint16 // centiamps
	ConsumedMAh uint16
	ERPM100     uint16
}

// Voltage returns the supply voltage in millivolts.
func (f Frame) Voltage() int32 { return int32(f.VoltageCV) * 10 }

// Current returns the motor current in milliamps.
func (f Frame) Current() int32 { return int32(f.CurrentCA) * 10 }

// Temperature returns the ESC temperature in milli-degrees Celsius.
func (f Frame) Temperature() int32 { return int32(f.TempC) * 1000 }

// Erpm returns electrical RPM.
func (f Frame) Erpm() uint32 { return uint32(f.ERPM100) * 100 }

// CRC8 computes the frame checksum over b.
func CRC8(b []byte) uint8 {
	var crc uint8
	for _, v := range b {
		crc ^= v
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Decode validates and decodes the first FrameLen bytes of b.
func Decode(b []byte) (Frame, error) {
	if len(b) < FrameLen {
		return Frame{}, ErrShortFrame
	}
	if CRC8(b[:FrameLen-1]) != b[FrameLen-1] {
		return Frame{}, ErrCRC
	}
	be := func(i int) uint16 { return uint16(b[i])<<8 | uint16(b[i+1]) }
	return Frame{
		TempC:       b[0],
		VoltageCV:   be(1),
		CurrentCA:   be(3),
		ConsumedMAh: be(5),
		ERPM100:     be(7),
	}, nil
}

// Encode renders f as a wire frame, CRC included.
func Encode(f Frame) [FrameLen]byte {
	var b [FrameLen]byte
	put := func(i int, v uint16) { b[i], b[i+1] = byte(v>>8), byte(v) }
	b[0] = f.TempC
	put(1, f.VoltageCV)
	put(3, f.CurrentCA)
	put(5, f.ConsumedMAh)
	put(7, f.ERPM100)
	b[9] = CRC8(b[:9])
	return b
}

// Source is a byte stream with context-aware receive, such as uartx.UART.
type Source interface {
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// Reader extracts frames from a Source. The line has no framing, so when a
// window of FrameLen bytes fails the CRC the reader slides one byte and
// tries again.
type Reader struct {
	src     Source
	buf     [2 * FrameLen]byte
	n       int
	skipped uint32
}

func NewReader(src Source) *Reader { return &Reader{src: src} }

// Skipped returns how many bytes were discarded while resynchronising.
func (r *Reader) Skipped() uint32 { return r.skipped }

// Next blocks until a valid frame arrives or ctx ends.
func (r *Reader) Next(ctx context.Context) (Frame, error) {
	for {
		for r.n >= FrameLen {
			f, err := Decode(r.buf[:r.n])
			if err == nil {
				r.consume(FrameLen)
				return f, nil
			}
			r.consume(1)
			r.skipped++
		}
		n, err := r.src.RecvSomeContext(ctx, r.buf[r.n:])
		r.n += n
		if err != nil {
			return Frame{}, err
		}
	}
}

// Reset drops any buffered bytes, e.g. after a DShot frame that requested a
// fresh reply.
func (r *Reader) Reset() { r.n = 0 }

func (r *Reader) consume(k int) {
	copy(r.buf[:], r.buf[k:r.n])
	r.n -= k
}
