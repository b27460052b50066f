package dshot_x4

import (
	"context"

	"dshot-go/drivers/dshot"
	"dshot-go/drivers/dshot/engine"
	"dshot-go/errcode"
	"dshot-go/services/hal/internal/core"
	"dshot-go/types"
	"dshot-go/x/mathx"
	"dshot-go/x/timex"
)

// Device drives an X4 and re-sends the lane throttles on every refresh.
// There is no telemetry; values are published when the throttles change.
type Device struct {
	id        string
	m         *engine.Manager
	pub       core.EventEmitter
	cfg       dshot.X4Config
	refreshMs uint32
	dom       string
	name      string

	drv       *dshot.X4
	addr      core.CapAddr
	throttles [4]uint16
	info      types.X4Info
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain:    d.dom,
		Kind:      types.KindESCArray,
		Name:      d.name,
		RefreshMs: d.refreshMs,
		Info:      types.Info{SchemaVersion: 1, Driver: "dshot_x4", Detail: d.info},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	d.addr = core.CapAddr{Domain: d.dom, Kind: string(types.KindESCArray), Name: d.name}
	d.info = types.X4Info{
		PinBase:   d.cfg.PinBase,
		Lanes:     d.cfg.PinCount,
		Speed:     d.cfg.Speed,
		Block:     uint8(d.cfg.Block),
		Checksum:  d.cfg.Checksum.String(),
		RefreshMs: d.refreshMs,
	}
	d.drv = dshot.NewX4(d.m, d.cfg)
	if d.drv.InitError() {
		d.pub.Emit(core.Event{Addr: d.addr, TSms: timex.NowMs(), Err: string(errcode.Of(d.drv.Err()))})
		return nil
	}
	if s, ok := d.drv.Slot(); ok {
		d.info.Slot = s.Index
	}
	d.drv.SendThrottles(d.throttles)
	d.publish()
	return nil
}

func (d *Device) Close() error {
	if d.drv != nil {
		d.drv.SendThrottles([4]uint16{})
		d.drv.Close()
	}
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, payload any) (core.EnqueueResult, error) {
	if d.drv == nil || d.drv.InitError() {
		return core.EnqueueResult{Error: errcode.NotInitialised}, nil
	}
	switch verb {
	case "throttles":
		p, code := core.As[types.ThrottlesSet](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		for i, v := range p.Values {
			d.throttles[i] = mathx.Min(v, dshot.MaxThrottle)
		}
		d.drv.SendThrottles(d.throttles)
		d.publish()
		return core.EnqueueResult{OK: true}, nil

	case "stop":
		d.throttles = [4]uint16{}
		d.drv.SendThrottles(d.throttles)
		d.publish()
		return core.EnqueueResult{OK: true}, nil

	case "command":
		p, code := core.As[types.CommandSet](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		c, ok := dshot.CommandByName(p.Command)
		if !ok {
			return core.EnqueueResult{Error: errcode.InvalidPayload}, nil
		}
		if d.throttles != ([4]uint16{}) {
			return core.EnqueueResult{Error: errcode.Busy}, nil
		}
		for i := uint8(0); i < mathx.Max(p.Repeat, 1); i++ {
			d.drv.SendCommand(c)
		}
		return core.EnqueueResult{OK: true}, nil

	default:
		return core.EnqueueResult{Error: errcode.Unsupported}, nil
	}
}

func (d *Device) Refresh(_ core.CapAddr, _ int64) {
	if d.drv == nil || d.drv.InitError() {
		return
	}
	d.drv.SendThrottles(d.throttles)
}

func (d *Device) publish() {
	now := timex.NowMs()
	d.pub.Emit(core.Event{Addr: d.addr, TSms: now, Payload: types.X4Value{Throttles: d.throttles, TSms: now}})
}
