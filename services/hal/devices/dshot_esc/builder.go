package dshot_esc

import (
	"context"

	"dshot-go/drivers/dshot"
	"dshot-go/drivers/dshot/engine"
	"dshot-go/errcode"
	"dshot-go/services/hal/internal/core"
	"dshot-go/x/strx"
)

func init() { core.RegisterBuilder("dshot_esc", builder{}) }

const (
	defaultRefreshMs = 10
	defaultPublishMs = 100
)

// Params configures one bidirectional DShot ESC.
type Params struct {
	Pin       uint8  `json:"pin"`
	Speed     uint32 `json:"speed,omitempty"` // kbit/s, default 600
	Block     uint8  `json:"block,omitempty"`
	Slot      *int   `json:"slot,omitempty"`  // nil => first free
	Poles     uint8  `json:"poles,omitempty"` // motor magnet poles, for RPM
	RefreshMs uint32 `json:"refresh_ms,omitempty"`
	PublishMs uint32 `json:"publish_ms,omitempty"`
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
	cfg := dshot.DefaultBidirConfig(p.Pin)
	if p.Speed != 0 {
		cfg.Speed = p.Speed
	}
	cfg.Block = engine.Block(p.Block)
	if p.Slot != nil {
		cfg.Slot = *p.Slot
	}
	refresh := p.RefreshMs
	if refresh == 0 {
		refresh = defaultRefreshMs
	}
	publish := p.PublishMs
	if publish == 0 {
		publish = defaultPublishMs
	}
	return &Device{
		id:        in.ID,
		m:         in.Res.Engines,
		pub:       in.Res.Pub,
		cfg:       cfg,
		poles:     p.Poles,
		refreshMs: refresh,
		publishMs: int64(publish),
		dom:       strx.Coalesce(p.Domain, "motor"),
		name:      strx.Coalesce(p.Name, in.ID),
	}, nil
}
