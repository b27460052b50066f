package dshot

import "testing"

func TestEncodeThrottle(t *testing.T) {
	cases := map[uint16]uint16{
		0:    0x000,
		1:    0x060,
		1000: 0x82E,
		2000: 0xFFE,
		5000: 0xFFE, // clamped
	}
	for in, want := range cases {
		if got := EncodeThrottle(in); got != want {
			t.Fatalf("EncodeThrottle(%d) = %#x, want %#x", in, got, want)
		}
		if EncodeThrottle(in)&1 != 0 {
			t.Fatalf("EncodeThrottle(%d) sets the telemetry bit", in)
		}
	}
}

func TestEncodeRaw11(t *testing.T) {
	if got := EncodeRaw11(1); got != 0x003 {
		t.Fatalf("EncodeRaw11(1) = %#x", got)
	}
	if got := EncodeRaw11(MaxRaw11); got != 0xFFF {
		t.Fatalf("EncodeRaw11(2047) = %#x", got)
	}
	if got := EncodeCommand(CmdESCInfo); got != 0x00D {
		t.Fatalf("EncodeCommand(esc_info) = %#x", got)
	}
}

func TestAppendChecksum(t *testing.T) {
	cases := []struct {
		payload uint16
		mode    ChecksumMode
		want    uint16
	}{
		{0x000, ChecksumInverted, 0x000F},
		{0x000, ChecksumNormal, 0x0000},
		{0x060, ChecksumInverted, 0x0609},
		{0x060, ChecksumNormal, 0x0606},
		{0x82E, ChecksumInverted, 0x82EB},
		{0x82E, ChecksumNormal, 0x82E4},
		{0xFFE, ChecksumInverted, 0xFFE1},
		{0xFFE, ChecksumNormal, 0xFFEE},
	}
	for _, tc := range cases {
		got := AppendChecksumMode(tc.payload, tc.mode)
		if got != tc.want {
			t.Fatalf("AppendChecksumMode(%#x, %v) = %#x, want %#x", tc.payload, tc.mode, got, tc.want)
		}
		if !ChecksumValid(got, tc.mode) {
			t.Fatalf("frame %#x does not validate under %v", got, tc.mode)
		}
	}
	if AppendChecksum(0x82E) != 0x82EB {
		t.Fatal("AppendChecksum must use the inverted checksum")
	}
}

func TestChecksumModesDisagree(t *testing.T) {
	for p := uint16(0); p < 0x1000; p++ {
		inv := AppendChecksumMode(p, ChecksumInverted)
		if ChecksumValid(inv, ChecksumNormal) {
			t.Fatalf("payload %#x: inverted frame accepted as normal", p)
		}
		if inv>>4 != p {
			t.Fatalf("payload %#x lost in frame %#x", p, inv)
		}
	}
}

func TestCommandNames(t *testing.T) {
	for c := CmdMotorStop; c <= CmdMax; c++ {
		name := c.String()
		if name == "" {
			continue
		}
		got, ok := CommandByName(name)
		if !ok || got != c {
			t.Fatalf("CommandByName(%q) = %d,%v want %d", name, got, ok, c)
		}
	}
	if !CmdMax.Valid() || Command(48).Valid() {
		t.Fatal("command range is 0..47")
	}
	if CmdSilentModeOnOff != 31 || CmdLED3Off != 29 || CmdExtendedTelemetryDisable != 14 {
		t.Fatal("command codes shifted")
	}
}
