package engine

import "testing"

func TestSim_RelocatesJumps(t *testing.T) {
	sim := NewSim()
	p := &Program{Name: "j", Instructions: []uint16{0x0001, 0xA042}, Origin: -1}
	off, err := sim.LoadProgram(0, p)
	if err != nil {
		t.Fatal(err)
	}
	if off != 30 {
		t.Fatalf("offset = %d", off)
	}
	if got := sim.Memory(0, off); got != 0x0001+uint16(off) {
		t.Fatalf("jmp not relocated: %#x", got)
	}
	if got := sim.Memory(0, off+1); got != 0xA042 {
		t.Fatalf("non-jump altered: %#x", got)
	}
}

func TestSim_FixedOrigin(t *testing.T) {
	sim := NewSim()
	p := &Program{Name: "f", Instructions: make([]uint16, 4), Origin: 8}
	if off, err := sim.LoadProgram(0, p); err != nil || off != 8 {
		t.Fatalf("load = %d, %v", off, err)
	}
	if _, err := sim.LoadProgram(0, p); err == nil {
		t.Fatal("second load at the same origin must fail")
	}
}

func TestSim_RxDepthAndResponder(t *testing.T) {
	sim := NewSim()
	s := Slot{Block: 1, Index: 0}
	p := &Program{Name: "r", Instructions: make([]uint16, 2), Origin: -1}
	off, _ := sim.LoadProgram(1, p)
	sim.Claim(s)
	sim.Start(s, p, off, SlotConfig{})
	n := uint32(0)
	sim.SetResponder(s, func(w uint32) (uint32, bool) {
		n++
		return w + n, true
	})
	for i := 0; i < 6; i++ {
		sim.Push(s, 100)
	}
	if got := len(sim.TxLog(s)); got != 6 {
		t.Fatalf("tx log = %d", got)
	}
	var got []uint32
	for !sim.RxEmpty(s) {
		got = append(got, sim.Pop(s))
	}
	if len(got) != 4 || got[0] != 101 || got[3] != 104 {
		t.Fatalf("rx = %v", got)
	}
}
