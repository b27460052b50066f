package hal

import (
	"context"
	"testing"
	"time"

	"dshot-go/bus"
	"dshot-go/drivers/dshot"
	"dshot-go/drivers/dshot/engine"
	"dshot-go/types"
)

func waitFor(t *testing.T, s *bus.Subscription, what string, match func(*bus.Message) bool) *bus.Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-s.Channel():
			if match(m) {
				return m
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s", what)
			return nil
		}
	}
}

func TestHAL_EndToEnd_ESC(t *testing.T) {
	sim := engine.NewSim()
	esc := &dshot.SimESC{}
	esc.SetErpm(30000)
	sim.OnStart(func(s engine.Slot, cfg engine.SlotConfig) {
		if cfg.Sense {
			sim.SetResponder(s, esc.Respond)
		}
	})

	b := bus.NewBus(64)
	halConn := b.NewConnection("hal")
	ui := b.NewConnection("ui")
	state := ui.Subscribe(bus.T("hal", "state"))
	values := ui.Subscribe(bus.T("hal", "cap", "motor", bus.Single, bus.Single, "value"))
	status := ui.Subscribe(bus.T("hal", "cap", "motor", bus.Single, bus.Single, "status"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { RunWithEngines(ctx, halConn, engine.NewManager(sim)); close(done) }()

	// JSON-shaped config, as the config service publishes it.
	cfg := map[string]any{
		"devices": []any{
			map[string]any{"id": "front", "type": "dshot_esc", "params": map[string]any{"pin": 2, "refresh_ms": 2, "publish_ms": 5}},
			map[string]any{"id": "quad", "type": "dshot_x4", "params": map[string]any{"pin_base": 10}},
			map[string]any{"id": "bad", "type": "dshot_esc", "params": map[string]any{"pin": 2}},
		},
	}
	ui.Publish(ui.NewMessage(bus.T("config", "hal"), cfg, true))
	waitFor(t, state, "hal ready", func(m *bus.Message) bool { return m.Payload.(types.HALState).Level == "ready" })

	waitFor(t, status, "bad esc degraded", func(m *bus.Message) bool {
		s := m.Payload.(types.CapabilityStatus)
		return m.Topic.At(4) == "bad" && s.Link == types.LinkDegraded && s.Error == "pin_in_use"
	})

	front := bus.T("hal", "cap", "motor", "esc", "front", "control")
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	r, err := ui.RequestWait(ctx2, ui.NewMessage(front.Append("throttle"), types.ThrottleSet{Value: 500}, false))
	if err != nil || r.Payload != (types.OKReply{OK: true}) {
		t.Fatalf("throttle reply = %#v, %v", r, err)
	}

	m := waitFor(t, values, "esc telemetry", func(m *bus.Message) bool {
		v, ok := m.Payload.(types.ESCValue)
		return ok && v.Throttle == 500 && v.Erpm > 0
	})
	if v := m.Payload.(types.ESCValue); v.Erpm != 30050 {
		t.Fatalf("erpm = %d", v.Erpm)
	}

	quad := bus.T("hal", "cap", "motor", "esc_array", "quad", "control", "throttles")
	r, err = ui.RequestWait(ctx2, ui.NewMessage(quad, map[string]any{"values": []int{100, 200, 300, 400}}, false))
	if err != nil || r.Payload != (types.OKReply{OK: true}) {
		t.Fatalf("throttles reply = %#v, %v", r, err)
	}
	waitFor(t, values, "x4 value", func(m *bus.Message) bool {
		v, ok := m.Payload.(types.X4Value)
		return ok && v.Throttles == [4]uint16{100, 200, 300, 400}
	})

	cancel()
	<-done
	if sim.UsedMask(0) != 0 {
		t.Fatalf("programs left resident after shutdown: %#x", sim.UsedMask(0))
	}
	if sim.Claimed(engine.Slot{Block: 0, Index: 0}) {
		t.Fatal("slot still claimed after shutdown")
	}
}
