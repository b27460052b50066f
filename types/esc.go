package types

// ---- ESC capability (one bidirectional channel) ----

// ESCInfo is published under hal/cap/.../info as Info.Detail.
type ESCInfo struct {
	Pin       uint8  `json:"pin"`
	Speed     uint32 `json:"speed"` // kbit/s
	Block     uint8  `json:"block"`
	Slot      uint8  `json:"slot"`
	Poles     uint8  `json:"poles,omitempty"`
	RefreshMs uint32 `json:"refresh_ms"`
}

// ESCValue is published under hal/cap/.../value (retained) after each
// refresh that produced telemetry.
type ESCValue struct {
	Throttle  uint16 `json:"throttle"`
	Erpm      uint32 `json:"erpm"`
	RPM       uint32 `json:"rpm,omitempty"`
	TempMilli int32  `json:"temp_mc,omitempty"`
	VoltMilli int32  `json:"volt_mv,omitempty"`
	CurrMilli int32  `json:"curr_ma,omitempty"`
	Stress    uint8  `json:"stress,omitempty"`
	Status    uint8  `json:"status,omitempty"`
	BadFrames uint32 `json:"bad_frames"`
	TSms      int64  `json:"ts_ms"`
}

// Controls

type ThrottleSet struct {
	Value uint16 `json:"value"` // 0..2000, 0 stops the motor
}

type CommandSet struct {
	Command string `json:"command"`          // e.g. "beacon1", "spin_direction_reversed"
	Repeat  uint8  `json:"repeat,omitempty"` // frames to send, default 1
}

type ThrottleRamp struct {
	To         uint16 `json:"to"`
	DurationMs uint32 `json:"duration_ms"`
	Steps      uint16 `json:"steps"`
}

// ---- ESC array capability (four multiplexed lanes, transmit only) ----

type X4Info struct {
	PinBase   uint8  `json:"pin_base"`
	Lanes     uint8  `json:"lanes"`
	Speed     uint32 `json:"speed"`
	Block     uint8  `json:"block"`
	Slot      uint8  `json:"slot"`
	Checksum  string `json:"checksum"`
	RefreshMs uint32 `json:"refresh_ms"`
}

type X4Value struct {
	Throttles [4]uint16 `json:"throttles"`
	TSms      int64     `json:"ts_ms"`
}

type ThrottlesSet struct {
	Values [4]uint16 `json:"values"`
}
