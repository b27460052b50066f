package dshot

import "dshot-go/drivers/dshot/engine"

// Entry points of the bidirectional program.
const (
	bidirSendEntry = 1 // set pindirs, 1: take the line and transmit
	bidirIdle      = 2 // pull block: waiting for the next frame
)

// BidirX1Program drives one inverted DShot line, then releases it and samples
// the 21-bit GCR reply at 5/4 of the frame bit rate. Samples are pushed to the
// RX FIFO; timeouts jump back to the top without pushing.
var BidirX1Program = &engine.Program{
	Name: "bidir_dshot_x1",
	Instructions: []uint16{
		0x8020, //  0: push   block
		0xe081, //  1: set    pindirs, 1
		0x80a0, //  2: pull   block
		0x6070, //  3: out    null, 16
		0xee00, //  4: set    pins, 0                [14]
		0x6e01, //  5: out    pins, 1                [14]
		0xe801, //  6: set    pins, 1                [8]
		0x00e4, //  7: jmp    !osre, 4
		0xe034, //  8: set    x, 20
		0xa0eb, //  9: mov    osr, !null
		0xe080, // 10: set    pindirs, 0
		0x01cb, // 11: jmp    pin, 11                [1]
		0xe046, // 12: set    y, 6
		0x000f, // 13: jmp    15
		0xe14d, // 14: set    y, 13                  [1]
		0x00d4, // 15: jmp    pin, 20
		0x008f, // 16: jmp    y--, 15
		0x4061, // 17: in     null, 1
		0x004e, // 18: jmp    x--, 14
		0x0000, // 19: jmp    0
		0xe146, // 20: set    y, 6                   [1]
		0x0017, // 21: jmp    23
		0xe14d, // 22: set    y, 13                  [1]
		0x00d9, // 23: jmp    pin, 25
		0x000c, // 24: jmp    12
		0x0097, // 25: jmp    y--, 23
		0x40e1, // 26: in     osr, 1
		0x0056, // 27: jmp    x--, 22
	},
	Origin:     -1,
	WrapTarget: 0,
	Wrap:       27,
	Idle:       bidirIdle,
}

// X4Program shifts two interleaved words out on up to four lanes, one
// nibble per bit period of 40 cycles.
var X4Program = &engine.Program{
	Name: "dshot_x4",
	Instructions: []uint16{
		0x80a0, // 0: pull   block
		0xee0f, // 1: set    pins, 15               [14]
		0x6e04, // 2: out    pins, 4                [14]
		0xe800, // 3: set    pins, 0                [8]
		0x00e1, // 4: jmp    !osre, 1
	},
	Origin:     -1,
	WrapTarget: 0,
	Wrap:       4,
	Idle:       0,
}
