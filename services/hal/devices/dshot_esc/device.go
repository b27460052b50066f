package dshot_esc

import (
	"context"
	"sync"
	"time"

	"dshot-go/drivers/dshot"
	"dshot-go/drivers/dshot/engine"
	"dshot-go/errcode"
	"dshot-go/services/hal/internal/core"
	"dshot-go/types"
	"dshot-go/x/mathx"
	"dshot-go/x/ramp"
	"dshot-go/x/timex"

	"tinygo.org/x/drivers"
)

// Device keeps one ESC armed by re-sending its throttle on every refresh
// and publishes the telemetry the ESC sends back.
type Device struct {
	id        string
	m         *engine.Manager
	pub       core.EventEmitter
	cfg       dshot.BidirConfig
	poles     uint8
	refreshMs uint32
	publishMs int64
	dom       string
	name      string

	drv     *dshot.BidirX1
	tel     *dshot.Telemetry
	addr    core.CapAddr
	lastPub int64
	info    types.ESCInfo

	// throttle is also written by the ramp goroutine.
	mu         sync.Mutex
	throttle   uint16
	rampCancel chan struct{}
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain:    d.dom,
		Kind:      types.KindESC,
		Name:      d.name,
		RefreshMs: d.refreshMs,
		Info: types.Info{
			SchemaVersion: 1,
			Driver:        "dshot_esc",
			Detail:        d.info,
		},
	}}
}

// Init claims the engine slot. A failed claim leaves the device registered
// but inert, with its status degraded.
func (d *Device) Init(ctx context.Context) error {
	d.addr = core.CapAddr{Domain: d.dom, Kind: string(types.KindESC), Name: d.name}
	d.info = types.ESCInfo{
		Pin:       d.cfg.Pin,
		Speed:     d.cfg.Speed,
		Block:     uint8(d.cfg.Block),
		Poles:     d.poles,
		RefreshMs: d.refreshMs,
	}
	d.drv = dshot.NewBidirX1(d.m, d.cfg)
	if d.drv.InitError() {
		d.pub.Emit(core.Event{Addr: d.addr, TSms: timex.NowMs(), Err: string(errcode.Of(d.drv.Err()))})
		return nil
	}
	if s, ok := d.drv.Slot(); ok {
		d.info.Slot = s.Index
	}
	d.tel = dshot.NewTelemetry(d.drv, d.poles)
	d.drv.SendThrottle(0)
	return nil
}

func (d *Device) Close() error {
	d.stopRamp()
	if d.drv != nil {
		d.drv.SendThrottle(0)
		d.drv.Close()
	}
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, payload any) (core.EnqueueResult, error) {
	if d.drv == nil || d.drv.InitError() {
		return core.EnqueueResult{Error: errcode.NotInitialised}, nil
	}
	switch verb {
	case "throttle":
		p, code := core.As[types.ThrottleSet](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		d.stopRamp()
		d.setThrottle(p.Value)
		d.drv.SendThrottle(d.current())
		return core.EnqueueResult{OK: true}, nil

	case "stop":
		d.stopRamp()
		d.setThrottle(0)
		d.drv.SendThrottle(0)
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
		// ESCs ignore commands while the motor is spinning.
		if d.current() != 0 {
			return core.EnqueueResult{Error: errcode.Busy}, nil
		}
		d.stopRamp()
		for i := uint8(0); i < mathx.Max(p.Repeat, 1); i++ {
			d.drv.SendCommand(c)
		}
		return core.EnqueueResult{OK: true}, nil

	case "ramp":
		p, code := core.As[types.ThrottleRamp](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		d.startRamp(p)
		return core.EnqueueResult{OK: true}, nil

	default:
		return core.EnqueueResult{Error: errcode.Unsupported}, nil
	}
}

// Refresh reads the reply to the previous frame, then sends the current
// throttle again.
func (d *Device) Refresh(_ core.CapAddr, nowMs int64) {
	if d.drv == nil || d.drv.InitError() {
		return
	}
	if d.drv.TelemetryAvailable() {
		_ = d.tel.Update(drivers.Voltage | drivers.Temperature)
	}
	th := d.current()
	d.drv.SendThrottle(th)

	if d.tel.Seen() == 0 && d.tel.ChecksumErrors() == 0 {
		return
	}
	if nowMs-d.lastPub < d.publishMs {
		return
	}
	d.lastPub = nowMs
	d.pub.Emit(core.Event{Addr: d.addr, TSms: nowMs, Payload: types.ESCValue{
		Throttle:  th,
		Erpm:      d.tel.Erpm(),
		RPM:       d.tel.RPM(),
		TempMilli: d.tel.Temperature(),
		VoltMilli: d.tel.Voltage(),
		CurrMilli: d.tel.Current(),
		Stress:    d.tel.Stress(),
		Status:    d.tel.Status(),
		BadFrames: d.tel.ChecksumErrors(),
		TSms:      nowMs,
	}})
}

func (d *Device) setThrottle(v uint16) {
	d.mu.Lock()
	d.throttle = mathx.Min(v, dshot.MaxThrottle)
	d.mu.Unlock()
}

func (d *Device) current() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.throttle
}

// startRamp moves the throttle towards p.To in the background; refreshes
// carry each intermediate value to the ESC.
func (d *Device) startRamp(p types.ThrottleRamp) {
	d.stopRamp()
	cancel := make(chan struct{})
	d.mu.Lock()
	d.rampCancel = cancel
	from := d.throttle
	d.mu.Unlock()

	tick := func(step time.Duration) bool {
		t := time.NewTimer(step)
		defer t.Stop()
		select {
		case <-cancel:
			return false
		case <-t.C:
			return true
		}
	}
	set := func(v uint16) {
		d.mu.Lock()
		if d.rampCancel == cancel {
			d.throttle = mathx.Min(v, dshot.MaxThrottle)
		}
		d.mu.Unlock()
	}
	go func() {
		ramp.StartLinear(from, p.To, dshot.MaxThrottle, p.DurationMs, p.Steps, tick, set)
		d.mu.Lock()
		if d.rampCancel == cancel {
			d.rampCancel = nil
		}
		d.mu.Unlock()
	}()
}

// ramping reports whether a ramp is in progress.
func (d *Device) ramping() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rampCancel != nil
}

func (d *Device) stopRamp() {
	d.mu.Lock()
	c := d.rampCancel
	d.rampCancel = nil
	d.mu.Unlock()
	if c != nil {
		close(c)
	}
}
