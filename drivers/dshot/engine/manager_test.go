package engine

import (
	"testing"

	"dshot-go/errcode"
)

func testProgram(name string, n int) *Program {
	ins := make([]uint16, n)
	for i := range ins {
		ins[i] = 0xA042 // nop
	}
	return &Program{Name: name, Instructions: ins, Origin: -1, Wrap: uint8(n - 1)}
}

func TestClaimSlot_ExplicitAndAuto(t *testing.T) {
	sim := NewSim()
	m := NewManager(sim)

	s, err := m.ClaimSlot(0, 2)
	if err != nil || s != (Slot{Block: 0, Index: 2}) {
		t.Fatalf("explicit claim = %+v, %v", s, err)
	}
	if _, err := m.ClaimSlot(0, 2); errcode.Of(err) != errcode.AlreadyClaimed {
		t.Fatalf("reclaim err = %v, want already_claimed", err)
	}
	want := []uint8{0, 1, 3}
	for _, idx := range want {
		s, err := m.ClaimSlot(0, AutoSlot)
		if err != nil || s.Index != idx {
			t.Fatalf("auto claim = %+v, %v; want index %d", s, err, idx)
		}
	}
	if _, err := m.ClaimSlot(0, AutoSlot); errcode.Of(err) != errcode.NoFreeSlot {
		t.Fatalf("exhausted err = %v", err)
	}
	m.ReleaseSlot(Slot{Block: 0, Index: 1})
	if s, err := m.ClaimSlot(0, AutoSlot); err != nil || s.Index != 1 {
		t.Fatalf("claim after release = %+v, %v", s, err)
	}
}

func TestClaimSlot_Invalid(t *testing.T) {
	m := NewManager(NewSim())
	if _, err := m.ClaimSlot(0, 4); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("index 4 err = %v", err)
	}
	if _, err := m.ClaimSlot(0, -2); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("index -2 err = %v", err)
	}
	if _, err := m.ClaimSlot(2, 0); errcode.Of(err) != errcode.UnknownBlock {
		t.Fatalf("block 2 err = %v", err)
	}
}

func TestAcquire_SharesProgram(t *testing.T) {
	sim := NewSim()
	m := NewManager(sim)
	p := testProgram("p", 28)

	a, err := m.Acquire(0, AutoSlot, p)
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	b, err := m.Acquire(0, AutoSlot, p)
	if err != nil {
		t.Fatalf("acquire b: %v", err)
	}
	if a.Offset() != b.Offset() {
		t.Fatalf("offsets differ: %d vs %d", a.Offset(), b.Offset())
	}
	if a.Offset() != 4 {
		t.Fatalf("program placed at %d, want top-down placement at 4", a.Offset())
	}
	if sim.Loads(0) != 1 {
		t.Fatalf("program loaded %d times", sim.Loads(0))
	}
	if n := m.ProgramRefCount(0, p); n != 2 {
		t.Fatalf("refcount = %d", n)
	}

	a.Release()
	if sim.UsedMask(0) == 0 {
		t.Fatal("program unloaded while still in use")
	}
	if sim.Claimed(a.Slot()) {
		t.Fatal("slot still claimed after release")
	}
	b.Release()
	if sim.UsedMask(0) != 0 {
		t.Fatalf("program still resident: %#x", sim.UsedMask(0))
	}
	if _, ok := m.Resident(0, p); ok {
		t.Fatal("program reported resident")
	}
	b.Release() // idempotent
}

func TestAcquire_PerBlockResidency(t *testing.T) {
	sim := NewSim()
	m := NewManager(sim)
	p := testProgram("p", 28)

	a, _ := m.Acquire(0, AutoSlot, p)
	b, err := m.Acquire(1, AutoSlot, p)
	if err != nil {
		t.Fatalf("acquire on block 1: %v", err)
	}
	if sim.Loads(0) != 1 || sim.Loads(1) != 1 {
		t.Fatal("each block needs its own copy")
	}
	a.Release()
	if sim.UsedMask(0) != 0 || sim.UsedMask(1) == 0 {
		t.Fatal("release on block 0 must not touch block 1")
	}
	b.Release()
}

func TestAcquire_NoSpaceReleasesSlot(t *testing.T) {
	sim := NewSim()
	m := NewManager(sim)
	big := testProgram("big", 28)
	other := testProgram("other", 5)

	a, err := m.Acquire(0, AutoSlot, big)
	if err != nil {
		t.Fatalf("acquire big: %v", err)
	}
	_, err = m.Acquire(0, 3, other)
	if errcode.Of(err) != errcode.NoProgramSpace {
		t.Fatalf("err = %v, want no_program_space", err)
	}
	if sim.Claimed(Slot{Block: 0, Index: 3}) {
		t.Fatal("slot leaked after failed load")
	}
	if n := m.ProgramRefCount(0, other); n != 0 {
		t.Fatalf("failed acquire registered: %d", n)
	}
	a.Release()
	if _, err := m.Acquire(0, 3, other); err != nil {
		t.Fatalf("acquire after space freed: %v", err)
	}
}

func TestAcquire_DifferentProgramsCoexist(t *testing.T) {
	sim := NewSim()
	m := NewManager(sim)
	p1 := testProgram("p1", 28)
	p2 := testProgram("p2", 4)

	a, _ := m.Acquire(0, AutoSlot, p1)
	b, err := m.Acquire(0, AutoSlot, p2)
	if err != nil {
		t.Fatalf("acquire p2: %v", err)
	}
	if b.Offset() != 0 {
		t.Fatalf("p2 at %d", b.Offset())
	}
	a.Release()
	if sim.UsedMask(0) != 0x0F {
		t.Fatalf("used mask = %#x, want only p2", sim.UsedMask(0))
	}
	b.Release()
}

func TestLease_Pins(t *testing.T) {
	sim := NewSim()
	m := NewManager(sim)
	p := testProgram("p", 5)

	a, _ := m.Acquire(0, AutoSlot, p)
	if err := a.AttachPins(2, 4, PullNone, PullNone); err != nil {
		t.Fatalf("attach: %v", err)
	}
	b, _ := m.Acquire(0, AutoSlot, p)
	if err := b.AttachPins(5, 1, PullUp, PullUp); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("overlapping attach err = %v", err)
	}
	if err := b.AttachPins(29, 2, PullUp, PullUp); errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("out of range attach err = %v", err)
	}
	if !sim.Pin(3).Attached {
		t.Fatal("pin 3 not attached")
	}
	a.Release()
	if sim.Pin(3).Attached {
		t.Fatal("pin 3 still attached after release")
	}
	if err := b.AttachPins(5, 1, PullUp, PullUp); err != nil {
		t.Fatalf("attach after release: %v", err)
	}
	b.Release()
	if pin := sim.Pin(5); pin.Attached || pin.Pull != PullUp {
		t.Fatalf("pin 5 after release = %+v", pin)
	}
}

func TestLease_RelativeAddressing(t *testing.T) {
	sim := NewSim()
	m := NewManager(sim)
	p := testProgram("p", 6)
	p.Idle = 2

	l, _ := m.Acquire(0, 1, p)
	l.Start(SlotConfig{PinBase: 0, PinCount: 1})
	if l.PC() != 2 {
		t.Fatalf("PC after start = %d, want idle 2", l.PC())
	}
	l.Jump(1)
	if j := sim.Jumps(l.Slot()); len(j) != 1 || j[0] != l.Offset()+1 {
		t.Fatalf("jumps = %v, offset %d", j, l.Offset())
	}
	l.Release()
	if _, running := sim.Running(l.Slot()); running {
		t.Fatal("slot still running")
	}
}
