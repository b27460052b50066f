package engine

import (
	"sync"

	"dshot-go/errcode"
)

// InstanceID identifies a lease in the registry.
type InstanceID uint32

type entry struct {
	id     InstanceID
	prog   string
	offset uint8
}

type pinOwner struct {
	id   InstanceID
	pull Pull // pull applied on detach
}

// Manager arbitrates slots, program memory and pins of one Hardware.
//
// Construction and release are serialised by an internal mutex. The data
// path (Lease.Push, Lease.Pop, ...) takes no lock; a lease must be driven by
// one goroutine at a time.
type Manager struct {
	hw Hardware

	mu     sync.Mutex
	nextID InstanceID
	live   map[Block][]entry
	pins   map[uint8]pinOwner
}

// NewManager returns a Manager for hw.
func NewManager(hw Hardware) *Manager {
	return &Manager{
		hw:   hw,
		live: make(map[Block][]entry),
		pins: make(map[uint8]pinOwner),
	}
}

// Hardware returns the hardware the Manager arbitrates.
func (m *Manager) Hardware() Hardware { return m.hw }

// SystemClockHz proxies the hardware clock.
func (m *Manager) SystemClockHz() uint32 { return m.hw.SystemClockHz() }

// ClaimSlot claims slot index of block b, or the first free one for AutoSlot.
func (m *Manager) ClaimSlot(b Block, index int) (Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimSlot(b, index)
}

func (m *Manager) claimSlot(b Block, index int) (Slot, error) {
	if int(b) >= m.hw.NumBlocks() {
		return Slot{}, errcode.UnknownBlock
	}
	n := m.hw.SlotsPerBlock()
	if index < AutoSlot || index >= n {
		return Slot{}, errcode.InvalidParams
	}
	if index != AutoSlot {
		s := Slot{Block: b, Index: uint8(index)}
		if !m.hw.Claim(s) {
			return Slot{}, errcode.AlreadyClaimed
		}
		return s, nil
	}
	for i := 0; i < n; i++ {
		s := Slot{Block: b, Index: uint8(i)}
		if m.hw.Claim(s) {
			return s, nil
		}
	}
	return Slot{}, errcode.NoFreeSlot
}

// ReleaseSlot returns a claimed slot to the free pool.
func (m *Manager) ReleaseSlot(s Slot) {
	m.hw.Release(s)
}

// EnsureProgramLoaded returns the offset of p in block b, loading it when no
// live lease already uses it there.
func (m *Manager) EnsureProgramLoaded(b Block, p *Program) (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLoaded(b, p)
}

func (m *Manager) ensureLoaded(b Block, p *Program) (uint8, error) {
	if off, ok := m.resident(b, p); ok {
		return off, nil
	}
	if int(b) >= m.hw.NumBlocks() {
		return 0, errcode.UnknownBlock
	}
	off, err := m.hw.LoadProgram(b, p)
	if err != nil {
		return 0, errcode.Wrap(errcode.NoProgramSpace, "load "+p.Name, err)
	}
	return off, nil
}

// MaybeUnloadProgram unloads p from block b unless a live lease still runs
// it at offset. Call it after the releasing lease has been deregistered.
func (m *Manager) MaybeUnloadProgram(b Block, p *Program, offset uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeUnload(b, p, offset)
}

func (m *Manager) maybeUnload(b Block, p *Program, offset uint8) {
	for _, e := range m.live[b] {
		if e.prog == p.Name && e.offset == offset {
			return
		}
	}
	m.hw.UnloadProgram(b, p, offset)
}

// Resident reports the offset of p in block b if a live lease uses it.
func (m *Manager) Resident(b Block, p *Program) (uint8, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resident(b, p)
}

func (m *Manager) resident(b Block, p *Program) (uint8, bool) {
	for _, e := range m.live[b] {
		if e.prog == p.Name {
			return e.offset, true
		}
	}
	return 0, false
}

// ProgramRefCount returns how many live leases run p in block b.
func (m *Manager) ProgramRefCount(b Block, p *Program) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.live[b] {
		if e.prog == p.Name {
			n++
		}
	}
	return n
}

// Acquire claims a slot and makes p resident in block b as one step. If the
// program cannot be loaded the slot is released again. On success the lease
// is registered and counts as a user of p.
func (m *Manager) Acquire(b Block, index int, p *Program) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.claimSlot(b, index)
	if err != nil {
		return nil, err
	}
	off, err := m.ensureLoaded(b, p)
	if err != nil {
		m.hw.Release(s)
		println("[engine] no program space for", p.Name, "in block", int(b))
		return nil, err
	}
	m.nextID++
	l := &Lease{m: m, id: m.nextID, slot: s, prog: p, offset: off}
	m.live[b] = append(m.live[b], entry{id: l.id, prog: p.Name, offset: off})
	return l, nil
}

func (m *Manager) deregister(b Block, id InstanceID) {
	es := m.live[b]
	for i := range es {
		if es[i].id == id {
			m.live[b] = append(es[:i], es[i+1:]...)
			break
		}
	}
	if len(m.live[b]) == 0 {
		delete(m.live, b)
	}
}

func (m *Manager) attachPins(id InstanceID, b Block, base, count uint8, pull, detachPull Pull) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if count == 0 || int(base)+int(count) > m.hw.PinCount() {
		return errcode.UnknownPin
	}
	for p := base; p < base+count; p++ {
		if o, ok := m.pins[p]; ok && o.id != id {
			return errcode.PinInUse
		}
	}
	for p := base; p < base+count; p++ {
		m.pins[p] = pinOwner{id: id, pull: detachPull}
		m.hw.AttachPin(p, b, pull)
	}
	return nil
}

func (m *Manager) detachPins(id InstanceID) {
	for p, o := range m.pins {
		if o.id == id {
			m.hw.DetachPin(p, o.pull)
			delete(m.pins, p)
		}
	}
}
