package engine

// Lease is one driver's hold on a slot running a resident program.
type Lease struct {
	m        *Manager
	id       InstanceID
	slot     Slot
	prog     *Program
	offset   uint8
	released bool
}

func (l *Lease) ID() InstanceID     { return l.id }
func (l *Lease) Slot() Slot         { return l.slot }
func (l *Lease) Program() *Program  { return l.prog }
func (l *Lease) Offset() uint8      { return l.offset }
func (l *Lease) Released() bool     { return l.released }
func (l *Lease) Hardware() Hardware { return l.m.hw }

// AttachPins hands count pins starting at base to the lease's block. Pins
// already held by another lease are refused. On release they return to a
// plain input with detachPull.
func (l *Lease) AttachPins(base, count uint8, pull, detachPull Pull) error {
	return l.m.attachPins(l.id, l.slot.Block, base, count, pull, detachPull)
}

// Start configures and enables the slot.
func (l *Lease) Start(cfg SlotConfig) {
	l.m.hw.Start(l.slot, l.prog, l.offset, cfg)
}

// Push writes one word to the TX FIFO, blocking while it is full.
func (l *Lease) Push(w uint32) { l.m.hw.Push(l.slot, w) }

// Pop reads one word; only valid when RxEmpty is false.
func (l *Lease) Pop() uint32 { return l.m.hw.Pop(l.slot) }

func (l *Lease) RxEmpty() bool { return l.m.hw.RxEmpty(l.slot) }

// PC returns the program counter relative to the program start.
func (l *Lease) PC() uint8 { return l.m.hw.PC(l.slot) - l.offset }

// Jump moves the slot to addr, relative to the program start.
func (l *Lease) Jump(addr uint8) { l.m.hw.Jump(l.slot, l.offset+addr) }

// Release stops the slot, frees it, drops the lease from the registry,
// unloads the program if no other lease uses it, then frees the pins.
// Further calls are no-ops.
func (l *Lease) Release() {
	if l == nil || l.released {
		return
	}
	m := l.m
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hw.Stop(l.slot)
	m.hw.Release(l.slot)
	m.deregister(l.slot.Block, l.id)
	m.maybeUnload(l.slot.Block, l.prog, l.offset)
	m.detachPins(l.id)
	l.released = true
}
