//go:build rp2040 || rp2350

package engine

import (
	"device/rp"
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"
)

// RP2 drives the real PIO blocks through github.com/tinygo-org/pio.
type RP2 struct {
	blocks []*pio.PIO
}

var _ Hardware = (*RP2)(nil)

// NewRP2 returns the engine for every PIO block on the chip.
func NewRP2() *RP2 {
	return &RP2{blocks: rp2Blocks()}
}

func (r *RP2) NumBlocks() int        { return len(r.blocks) }
func (r *RP2) SlotsPerBlock() int    { return 4 }
func (r *RP2) PinCount() int         { return rp2PinCount }
func (r *RP2) SystemClockHz() uint32 { return machine.CPUFrequency() }

func (r *RP2) sm(s Slot) pio.StateMachine {
	return r.blocks[s.Block].StateMachine(s.Index)
}

func (r *RP2) Claim(s Slot) bool { return r.sm(s).TryClaim() }
func (r *RP2) Release(s Slot)    { r.sm(s).Unclaim() }

func (r *RP2) LoadProgram(b Block, p *Program) (uint8, error) {
	return r.blocks[b].AddProgram(p.Instructions, p.Origin)
}

func (r *RP2) UnloadProgram(b Block, p *Program, offset uint8) {
	r.blocks[b].ClearProgramSection(offset, uint8(p.Len()))
}

func (r *RP2) Start(s Slot, p *Program, offset uint8, c SlotConfig) {
	sm := r.sm(s)
	base := machine.Pin(c.PinBase)

	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(offset+p.WrapTarget, offset+p.Wrap)
	cfg.SetSetPins(base, c.PinCount)
	cfg.SetOutPins(base, c.PinCount)
	if c.Sense {
		cfg.PinCtrl = cfg.PinCtrl&^rp.PIO0_SM0_PINCTRL_IN_BASE_Msk |
			uint32(c.PinBase)<<rp.PIO0_SM0_PINCTRL_IN_BASE_Pos
		cfg.ExecCtrl = cfg.ExecCtrl&^rp.PIO0_SM0_EXECCTRL_JMP_PIN_Msk |
			uint32(c.PinBase)<<rp.PIO0_SM0_EXECCTRL_JMP_PIN_Pos
	}
	cfg.SetOutShift(false, false, 32)
	cfg.SetInShift(false, false, 32)
	cfg.SetClkDivIntFrac(c.ClkDivInt, c.ClkDivFrac)

	sm.Init(offset, cfg)
	// set pindirs, <all lanes>; SET pins already cover PinBase..PinCount.
	sm.Exec(0xE080 | (uint16(1)<<c.PinCount - 1))
	sm.SetEnabled(true)
}

func (r *RP2) Stop(s Slot) { r.sm(s).SetEnabled(false) }

func (r *RP2) Push(s Slot, w uint32) {
	sm := r.sm(s)
	for sm.IsTxFIFOFull() {
		// spin; a frame drains in tens of microseconds
	}
	sm.TxPut(w)
}

func (r *RP2) Pop(s Slot) uint32   { return r.sm(s).RxGet() }
func (r *RP2) RxEmpty(s Slot) bool { return r.sm(s).IsRxFIFOEmpty() }
func (r *RP2) PC(s Slot) uint8     { return uint8(r.sm(s).HW().ADDR.Get()) }

func (r *RP2) Jump(s Slot, addr uint8) {
	// jmp always, addr
	r.sm(s).Exec(uint16(addr) & 0x1F)
}

// AttachPin applies the pull first; switching the pad to the PIO function
// keeps it.
func (r *RP2) AttachPin(pin uint8, b Block, pull Pull) {
	p := machine.Pin(pin)
	if pull == PullUp {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	} else {
		p.Configure(machine.PinConfig{Mode: machine.PinInput})
	}
	p.Configure(machine.PinConfig{Mode: r.blocks[b].PinMode()})
}

func (r *RP2) DetachPin(pin uint8, pull Pull) {
	mode := machine.PinInput
	if pull == PullUp {
		mode = machine.PinInputPullup
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: mode})
}
