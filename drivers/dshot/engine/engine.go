// Package engine shares the RP2 PIO blocks between DShot channel drivers.
//
// A Manager owns the claim state of every state machine ("slot") and the
// residency of programs in each block's instruction memory. Programs are
// loaded once per block and unloaded when the last lease using them is
// released.
package engine

// AutoSlot asks ClaimSlot to pick the first free slot in a block.
const AutoSlot = -1

// InstrMemWords is the size of a block's instruction memory.
const InstrMemWords = 32

// Block indexes a PIO block.
type Block uint8

// Slot identifies one state machine.
type Slot struct {
	Block Block
	Index uint8
}

// Program is a relocatable PIO program. Addresses are relative to the
// program start; jumps are relocated by the engine when loaded.
type Program struct {
	Name         string
	Instructions []uint16
	Origin       int8 // -1 for relocatable
	WrapTarget   uint8
	Wrap         uint8
	// Idle is where the program parks waiting for the next TX word.
	Idle uint8
}

// Len returns the instruction count.
func (p *Program) Len() int { return len(p.Instructions) }

// SlotConfig describes how a started slot is wired to its pins.
type SlotConfig struct {
	PinBase  uint8
	PinCount uint8
	// Sense also samples PinBase (in pins and jmp pin) so the program can
	// receive on the same wire it drives.
	Sense      bool
	ClkDivInt  uint16
	ClkDivFrac uint8
}

// Pull selects the pad pull resistor.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
)

// Engine is the PIO hardware boundary.
type Engine interface {
	NumBlocks() int
	SlotsPerBlock() int
	PinCount() int

	// Claim reports false if the slot is already claimed.
	Claim(s Slot) bool
	Release(s Slot)

	LoadProgram(b Block, p *Program) (offset uint8, err error)
	UnloadProgram(b Block, p *Program, offset uint8)

	// Start configures and enables a claimed slot running p at offset.
	Start(s Slot, p *Program, offset uint8, cfg SlotConfig)
	Stop(s Slot)

	// Push blocks while the TX FIFO is full.
	Push(s Slot, word uint32)
	// Pop must only be called when RxEmpty reports false.
	Pop(s Slot) uint32
	RxEmpty(s Slot) bool
	// PC returns the absolute program counter.
	PC(s Slot) uint8
	// Jump forces an unconditional jump to the absolute address addr.
	Jump(s Slot, addr uint8)
}

// Pins routes GPIOs to and from the engine.
type Pins interface {
	// AttachPin hands pin to block b with the given pull.
	AttachPin(pin uint8, b Block, pull Pull)
	// DetachPin returns pin to a plain input with the given pull.
	DetachPin(pin uint8, pull Pull)
}

// Clock reports the system clock feeding the engine.
type Clock interface {
	SystemClockHz() uint32
}

// Hardware bundles the three boundaries; both Sim and RP2 implement it.
type Hardware interface {
	Engine
	Pins
	Clock
}
