package dshot_x4

import (
	"context"

	"dshot-go/drivers/dshot"
	"dshot-go/drivers/dshot/engine"
	"dshot-go/errcode"
	"dshot-go/services/hal/internal/core"
	"dshot-go/x/strx"
)

func init() { core.RegisterBuilder("dshot_x4", builder{}) }

const defaultRefreshMs = 10

// Params configures up to four transmit-only ESCs on consecutive pins.
type Params struct {
	PinBase   uint8  `json:"pin_base"`
	Lanes     uint8  `json:"lanes,omitempty"` // default 4
	Speed     uint32 `json:"speed,omitempty"` // kbit/s, default 600
	Block     uint8  `json:"block,omitempty"`
	Slot      *int   `json:"slot,omitempty"`
	Checksum  string `json:"checksum,omitempty"` // "normal" (default) or "inverted"
	RefreshMs uint32 `json:"refresh_ms,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Name      string `json:"name,omitempty"`
}

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, code := core.As[Params](in.Params)
	if code != "" {
		return nil, code
	}
	if in.Res.Engines == nil {
		return nil, errcode.NotInitialised
	}
	lanes := p.Lanes
	if lanes == 0 {
		lanes = 4
	}
	cfg := dshot.DefaultX4Config(p.PinBase, lanes)
	if p.Speed != 0 {
		cfg.Speed = p.Speed
	}
	cfg.Block = engine.Block(p.Block)
	if p.Slot != nil {
		cfg.Slot = *p.Slot
	}
	switch p.Checksum {
	case "", "normal":
	case "inverted":
		cfg.Checksum = dshot.ChecksumInverted
	default:
		return nil, errcode.InvalidParams
	}
	refresh := p.RefreshMs
	if refresh == 0 {
		refresh = defaultRefreshMs
	}
	return &Device{
		id:        in.ID,
		m:         in.Res.Engines,
		pub:       in.Res.Pub,
		cfg:       cfg,
		refreshMs: refresh,
		dom:       strx.Coalesce(p.Domain, "motor"),
		name:      strx.Coalesce(p.Name, in.ID),
	}, nil
}
