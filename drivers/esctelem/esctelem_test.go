package esctelem

import (
	"context"
	"errors"
	"testing"
	"time"
)

// 42 °C, 16.00 V, 1.23 A, 500 mAh, 20000 eRPM
var sample = []byte{42, 0x06, 0x40, 0x00, 0x7B, 0x01, 0xF4, 0x00, 0xC8, 0x97}

func TestCRC8(t *testing.T) {
	if got := CRC8([]byte("123456789")); got != 0xF4 {
		t.Fatalf("CRC8 check value = %#x, want 0xf4", got)
	}
}

func TestDecode(t *testing.T) {
	f, err := Decode(sample)
	if err != nil {
		t.Fatal(err)
	}
	if f.Temperature() != 42000 || f.Voltage() != 16000 || f.Current() != 1230 {
		t.Fatalf("temp %d volt %d curr %d", f.Temperature(), f.Voltage(), f.Current())
	}
	if f.ConsumedMAh != 500 || f.Erpm() != 20000 {
		t.Fatalf("consumed %d erpm %d", f.ConsumedMAh, f.Erpm())
	}
	if enc := Encode(f); string(enc[:]) != string(sample) {
		t.Fatalf("Encode = % x", enc)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode(sample[:9]); !errors.Is(err, ErrShortFrame) {
		t.Fatalf("short: %v", err)
	}
	bad := append([]byte(nil), sample...)
	bad[4] ^= 0x10
	if _, err := Decode(bad); !errors.Is(err, ErrCRC) {
		t.Fatalf("corrupt: %v", err)
	}
}

type chunkSource struct {
	chunks [][]byte
}

func (s *chunkSource) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	if len(s.chunks) == 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	n := copy(p, s.chunks[0])
	s.chunks[0] = s.chunks[0][n:]
	if len(s.chunks[0]) == 0 {
		s.chunks = s.chunks[1:]
	}
	return n, nil
}

func TestReader_Resync(t *testing.T) {
	second := Encode(Frame{TempC: 50, ERPM100: 7})
	src := &chunkSource{chunks: [][]byte{
		{0xAA, 0x55, 0x13},
		sample[:4],
		sample[4:],
		second[:],
	}}
	r := NewReader(src)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, err := r.Next(ctx)
	if err != nil || f.TempC != 42 {
		t.Fatalf("first frame = %+v, %v", f, err)
	}
	if r.Skipped() != 3 {
		t.Fatalf("skipped %d bytes, want 3", r.Skipped())
	}
	f, err = r.Next(ctx)
	if err != nil || f.TempC != 50 || f.Erpm() != 700 {
		t.Fatalf("second frame = %+v, %v", f, err)
	}
}

func TestReader_ContextEnds(t *testing.T) {
	r := NewReader(&chunkSource{chunks: [][]byte{sample[:5]}})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}
