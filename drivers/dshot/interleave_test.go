package dshot

import "testing"

func TestInterleave(t *testing.T) {
	cases := []struct {
		in   [4]uint16
		want [2]uint32
	}{
		{[4]uint16{}, [2]uint32{0, 0}},
		{[4]uint16{0xFFFF, 0, 0, 0}, [2]uint32{0x11111111, 0x11111111}},
		{[4]uint16{0x1234, 0, 0, 0xFFFF}, [2]uint32{0x88898898, 0x88998988}},
	}
	for _, tc := range cases {
		if got := Interleave(tc.in); got != tc.want {
			t.Fatalf("Interleave(%#x) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
}

func TestDeinterleave(t *testing.T) {
	frames := [4]uint16{0x82EB, 0x0609, 0xFFE1, 0x000F}
	if got := Deinterleave(Interleave(frames)); got != frames {
		t.Fatalf("round trip = %#x, want %#x", got, frames)
	}
}

func TestClockDivider(t *testing.T) {
	cases := []struct {
		sys, speed uint32
		whole      uint16
		frac       uint8
	}{
		{125_000_000, 600, 5, 53},
		{125_000_000, 300, 10, 106},
		{150_000_000, 1200, 3, 32},
		{1_000_000, 4800, 1, 0}, // below 1.0 clamps
	}
	for _, tc := range cases {
		w, f := ClockDivider(tc.sys, tc.speed)
		if w != tc.whole || f != tc.frac {
			t.Fatalf("ClockDivider(%d, %d) = %d.%d, want %d.%d", tc.sys, tc.speed, w, f, tc.whole, tc.frac)
		}
	}
}

func TestSpeeds(t *testing.T) {
	if ValidSpeed(149) || !ValidSpeed(150) || !ValidSpeed(4800) || ValidSpeed(4801) {
		t.Fatal("speed range is 150..4800")
	}
	if StandardSpeed(150, true) || !StandardSpeed(150, false) || !StandardSpeed(600, true) || StandardSpeed(500, false) {
		t.Fatal("standard speed table wrong")
	}
}
