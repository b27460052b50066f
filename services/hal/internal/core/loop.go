package core

import (
	"context"
	"time"

	"dshot-go/bus"
	"dshot-go/errcode"
	"dshot-go/types"
	"dshot-go/x/timex"
)

const (
	eventQueueLen = 16
	pollQueueLen  = 8
	verbRefresh   = "refresh"
)

// HAL owns every device. Config, controls, device events and refresh ticks
// are all handled on the goroutine running Run.
type HAL struct {
	conn *bus.Connection
	res  Resources

	dev      map[string]Device  // devID -> device
	capIndex map[CapAddr]string // capability -> devID
	order    []string           // build order, for shutdown

	evCh   chan Event
	pollCh chan PollReq
	poller *Poller
}

func NewHAL(conn *bus.Connection, res Resources) *HAL {
	pollCh := make(chan PollReq, pollQueueLen)
	h := &HAL{
		conn:     conn,
		res:      res,
		dev:      map[string]Device{},
		capIndex: map[CapAddr]string{},
		evCh:     make(chan Event, eventQueueLen),
		pollCh:   pollCh,
		poller:   NewPoller(pollCh),
	}
	h.res.Pub = h
	return h
}

func (h *HAL) Run(ctx context.Context) {
	cfgSub := h.conn.Subscribe(topicConfigHAL())
	ctrlSub := h.conn.Subscribe(ctrlWildcard())
	defer h.conn.Unsubscribe(cfgSub)
	defer h.conn.Unsubscribe(ctrlSub)

	pctx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	go h.poller.Run(pctx)

	h.pubHALState("idle", "")
	ready := false
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.pubHALState("stopped", "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			if h.applyConfig(ctx, msg.Payload) && !ready {
				ready = true
				h.pubHALState("ready", "")
			}
		case m := <-ctrlSub.Channel():
			if !ready {
				h.replyErr(m, errcode.HALNotReady)
				continue
			}
			h.handleControl(m)
		case req := <-h.pollCh:
			h.handlePoll(req)
		case ev := <-h.evCh:
			h.handleEvent(ev)
		}
	}
}

// applyConfig builds devices not seen before. Existing IDs are left alone,
// so re-publishing the same config is harmless.
func (h *HAL) applyConfig(ctx context.Context, payload any) bool {
	cfg, code := As[types.HALConfig](payload)
	if code != "" {
		println("[hal] bad config payload:", string(code))
		return false
	}
	for i := range cfg.Devices {
		dc := cfg.Devices[i]
		if _, exists := h.dev[dc.ID]; exists {
			continue
		}
		b, ok := lookupBuilder(dc.Type)
		if !ok {
			println("[hal] no builder for type:", dc.Type, "id:", dc.ID)
			continue
		}
		dev, err := b.Build(ctx, BuilderInput{ID: dc.ID, Type: dc.Type, Params: dc.Params, Res: h.res})
		if err != nil {
			println("[hal] build failed for:", dc.ID, "err:", err.Error())
			continue
		}
		if err := dev.Init(ctx); err != nil {
			println("[hal] init failed for:", dc.ID, "err:", err.Error())
			_ = dev.Close()
			continue
		}
		h.dev[dev.ID()] = dev
		h.order = append(h.order, dev.ID())
		h.register(dev)
	}
	return true
}

func (h *HAL) register(dev Device) {
	for _, cs := range dev.Capabilities() {
		a := h.addrOf(dev, cs)
		h.capIndex[a] = dev.ID()

		h.conn.Publish(h.conn.NewMessage(capInfo(a), cs.Info, true))
		h.conn.Publish(h.conn.NewMessage(
			capStatus(a),
			types.CapabilityStatus{Link: types.LinkDown, TSms: timex.NowMs()},
			true,
		))
		if _, ok := dev.(Refresher); ok && cs.RefreshMs > 0 {
			h.poller.Upsert(a, verbRefresh, time.Duration(cs.RefreshMs)*time.Millisecond, 0)
		}
	}
}

func (h *HAL) addrOf(dev Device, cs CapabilitySpec) CapAddr {
	k := string(cs.Kind)
	a := CapAddr{Domain: cs.Domain, Kind: k, Name: cs.Name}
	if a.Domain == "" {
		a.Domain = defaultDomainFor(k)
	}
	if a.Name == "" {
		a.Name = dev.ID()
	}
	return a
}

func (h *HAL) handleControl(msg *bus.Message) {
	// hal/cap/<domain>/<kind>/<name>/control/<verb>
	if msg.Topic.Len() < 7 {
		h.replyErr(msg, errcode.InvalidTopic)
		return
	}
	domain, _ := msg.Topic.At(2).(string)
	kind, _ := msg.Topic.At(3).(string)
	name, _ := msg.Topic.At(4).(string)
	verb, _ := msg.Topic.At(6).(string)
	a := CapAddr{Domain: domain, Kind: kind, Name: name}

	dev := h.dev[h.capIndex[a]]
	if dev == nil {
		h.replyErr(msg, errcode.UnknownCapability)
		return
	}
	res, err := dev.Control(a, verb, msg.Payload)
	if err != nil {
		h.replyFromError(msg, err)
		return
	}
	if res.OK {
		h.replyOK(msg)
		return
	}
	code := res.Error
	if code == "" {
		code = errcode.Busy
	}
	h.replyErr(msg, code)
}

func (h *HAL) handlePoll(req PollReq) {
	dev := h.dev[h.capIndex[req.Addr]]
	if r, ok := dev.(Refresher); ok && req.Verb == verbRefresh {
		r.Refresh(req.Addr, timex.NowMs())
	}
}

func (h *HAL) handleEvent(ev Event) {
	a := ev.Addr
	if ev.Err != "" {
		h.conn.Publish(h.conn.NewMessage(
			capStatus(a),
			types.CapabilityStatus{Link: types.LinkDegraded, TSms: ev.TSms, Error: ev.Err},
			true,
		))
		return
	}
	if ev.IsEvent {
		t := capEvent(a)
		if ev.EventTag != "" {
			t = t.Append(ev.EventTag)
		}
		h.conn.Publish(h.conn.NewMessage(t, ev.Payload, false))
	} else {
		h.conn.Publish(h.conn.NewMessage(capValue(a), ev.Payload, true))
	}
	h.conn.Publish(h.conn.NewMessage(
		capStatus(a),
		types.CapabilityStatus{Link: types.LinkUp, TSms: ev.TSms},
		true,
	))
}

// closeAll stops refreshes and closes devices in reverse build order.
func (h *HAL) closeAll() {
	for a := range h.capIndex {
		h.poller.Stop(a, verbRefresh)
	}
	for i := len(h.order) - 1; i >= 0; i-- {
		id := h.order[i]
		if err := h.dev[id].Close(); err != nil {
			println("[hal] close failed for:", id, "err:", err.Error())
		}
		delete(h.dev, id)
	}
	h.order = nil
}

func (h *HAL) pubHALState(level, status string) {
	h.conn.Publish(h.conn.NewMessage(
		topicHALState(),
		types.HALState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}

func defaultDomainFor(kind string) string {
	switch types.Kind(kind) {
	case types.KindESC, types.KindESCArray:
		return "motor"
	default:
		return "io"
	}
}

// Emit queues ev for publication by the HAL goroutine.
func (h *HAL) Emit(ev Event) bool {
	select {
	case h.evCh <- ev:
		return true
	default:
		return false
	}
}
