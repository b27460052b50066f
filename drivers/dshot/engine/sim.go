package engine

import (
	"errors"
	"sync"
)

// ErrOutOfProgramSpace is returned by Sim.LoadProgram when no gap fits.
var ErrOutOfProgramSpace = errors.New("sim: out of program space")

// rxDepth matches the hardware RX FIFO depth without joining.
const rxDepth = 4

// Responder models the device on the far end of a slot. It sees every word
// pushed to the slot and may return one word for the RX FIFO.
type Responder func(word uint32) (reply uint32, ok bool)

// SimConfig sizes a simulated chip. Zero fields take RP2040 values.
type SimConfig struct {
	Blocks  int
	Pins    int
	ClockHz uint32
}

// SimPin is the state of one simulated GPIO.
type SimPin struct {
	Attached bool
	Block    Block
	Pull     Pull
}

type simSlot struct {
	claimed bool
	enabled bool
	cfg     SlotConfig
	prog    *Program
	offset  uint8
	pc      uint8
	tx      []uint32
	rx      []uint32
	jumps   []uint8
	resp    Responder
}

type simBlock struct {
	used  uint32
	mem   [InstrMemWords]uint16
	slots [4]simSlot
	loads int
}

// Sim is an in-memory engine for host builds and tests. It tracks claims,
// instruction memory, FIFOs and pins, and runs each pushed word through an
// optional Responder instead of executing PIO code.
type Sim struct {
	mu      sync.Mutex
	blocks  []simBlock
	npins   int
	clock   uint32
	pins    map[uint8]SimPin
	onStart func(Slot, SlotConfig)
}

var _ Hardware = (*Sim)(nil)

// NewSim returns a simulated RP2040: two blocks, 30 pins, 125 MHz.
func NewSim() *Sim { return NewSimWith(SimConfig{}) }

// NewSimWith returns a simulated chip sized by cfg.
func NewSimWith(cfg SimConfig) *Sim {
	if cfg.Blocks <= 0 {
		cfg.Blocks = 2
	}
	if cfg.Pins <= 0 {
		cfg.Pins = 30
	}
	if cfg.ClockHz == 0 {
		cfg.ClockHz = 125_000_000
	}
	return &Sim{
		blocks: make([]simBlock, cfg.Blocks),
		npins:  cfg.Pins,
		clock:  cfg.ClockHz,
		pins:   make(map[uint8]SimPin),
	}
}

func (s *Sim) NumBlocks() int        { return len(s.blocks) }
func (s *Sim) SlotsPerBlock() int    { return 4 }
func (s *Sim) PinCount() int         { return s.npins }
func (s *Sim) SystemClockHz() uint32 { return s.clock }

func (s *Sim) slot(sl Slot) *simSlot { return &s.blocks[sl.Block].slots[sl.Index] }

func (s *Sim) Claim(sl Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss := s.slot(sl)
	if ss.claimed {
		return false
	}
	ss.claimed = true
	return true
}

func (s *Sim) Release(sl Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot(sl).claimed = false
}

// LoadProgram places p top-down in the first free gap, relocating jumps.
func (s *Sim) LoadProgram(b Block, p *Program) (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blk := &s.blocks[b]
	n := p.Len()
	if n == 0 || n > InstrMemWords {
		return 0, ErrOutOfProgramSpace
	}
	mask := uint32(1)<<n - 1
	off := -1
	if p.Origin >= 0 {
		if int(p.Origin)+n <= InstrMemWords && blk.used&(mask<<p.Origin) == 0 {
			off = int(p.Origin)
		}
	} else {
		for i := InstrMemWords - n; i >= 0; i-- {
			if blk.used&(mask<<i) == 0 {
				off = i
				break
			}
		}
	}
	if off < 0 {
		return 0, ErrOutOfProgramSpace
	}
	for i, ins := range p.Instructions {
		if ins&0xE000 == 0 {
			ins += uint16(off)
		}
		blk.mem[off+i] = ins
	}
	blk.used |= mask << off
	blk.loads++
	return uint8(off), nil
}

func (s *Sim) UnloadProgram(b Block, p *Program, offset uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mask := uint32(1)<<p.Len() - 1
	s.blocks[b].used &^= mask << offset
}

func (s *Sim) Start(sl Slot, p *Program, offset uint8, cfg SlotConfig) {
	s.mu.Lock()
	ss := s.slot(sl)
	ss.enabled = true
	ss.cfg = cfg
	ss.prog = p
	ss.offset = offset
	ss.pc = offset + p.Idle
	ss.tx = ss.tx[:0]
	ss.rx = ss.rx[:0]
	ss.jumps = ss.jumps[:0]
	hook := s.onStart
	s.mu.Unlock()
	if hook != nil {
		hook(sl, cfg)
	}
}

func (s *Sim) Stop(sl Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot(sl).enabled = false
}

// Push records w and, when the slot runs, feeds it to the responder. A
// reply is dropped while the RX FIFO is full. The slot then parks at the
// program's idle address.
func (s *Sim) Push(sl Slot, w uint32) {
	s.mu.Lock()
	ss := s.slot(sl)
	ss.tx = append(ss.tx, w)
	resp := ss.resp
	enabled := ss.enabled
	s.mu.Unlock()
	if !enabled {
		return
	}
	var reply uint32
	ok := false
	if resp != nil {
		reply, ok = resp(w)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok && len(ss.rx) < rxDepth {
		ss.rx = append(ss.rx, reply)
	}
	if ss.prog != nil {
		ss.pc = ss.offset + ss.prog.Idle
	}
}

func (s *Sim) Pop(sl Slot) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss := s.slot(sl)
	if len(ss.rx) == 0 {
		return 0
	}
	w := ss.rx[0]
	ss.rx = append(ss.rx[:0], ss.rx[1:]...)
	return w
}

func (s *Sim) RxEmpty(sl Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slot(sl).rx) == 0
}

func (s *Sim) PC(sl Slot) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot(sl).pc
}

func (s *Sim) Jump(sl Slot, addr uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss := s.slot(sl)
	ss.jumps = append(ss.jumps, addr)
	ss.pc = addr
}

func (s *Sim) AttachPin(pin uint8, b Block, pull Pull) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[pin] = SimPin{Attached: true, Block: b, Pull: pull}
}

func (s *Sim) DetachPin(pin uint8, pull Pull) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[pin] = SimPin{Pull: pull}
}

// ---- inspection and fault injection ----

// OnStart registers fn to run after every Start, outside the lock. It is
// the place to attach a Responder to slots claimed by code under test.
func (s *Sim) OnStart(fn func(Slot, SlotConfig)) {
	s.mu.Lock()
	s.onStart = fn
	s.mu.Unlock()
}

// SetResponder installs r on slot sl.
func (s *Sim) SetResponder(sl Slot, r Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot(sl).resp = r
}

// InjectRx queues w on the RX FIFO of sl as if the program had pushed it.
func (s *Sim) InjectRx(sl Slot, w uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss := s.slot(sl)
	if len(ss.rx) >= rxDepth {
		return false
	}
	ss.rx = append(ss.rx, w)
	return true
}

// SetPC moves the program counter of sl to the absolute address pc.
func (s *Sim) SetPC(sl Slot, pc uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot(sl).pc = pc
}

// TxLog returns a copy of the words pushed to sl since it was started.
func (s *Sim) TxLog(sl Slot) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.slot(sl).tx...)
}

// Jumps returns the forced jump targets issued on sl since it was started.
func (s *Sim) Jumps(sl Slot) []uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint8(nil), s.slot(sl).jumps...)
}

// Claimed reports whether sl is claimed.
func (s *Sim) Claimed(sl Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot(sl).claimed
}

// Running reports whether sl is enabled and returns its configuration.
func (s *Sim) Running(sl Slot) (SlotConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss := s.slot(sl)
	return ss.cfg, ss.enabled
}

// UsedMask returns the instruction memory occupancy of block b.
func (s *Sim) UsedMask(b Block) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks[b].used
}

// Loads returns how many times a program was loaded into block b.
func (s *Sim) Loads(b Block) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks[b].loads
}

// Memory returns the instruction word at addr of block b.
func (s *Sim) Memory(b Block, addr uint8) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks[b].mem[addr&(InstrMemWords-1)]
}

// Pin returns the state of pin.
func (s *Sim) Pin(pin uint8) SimPin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pins[pin]
}
