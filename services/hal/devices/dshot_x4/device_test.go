package dshot_x4

import (
	"context"
	"testing"

	"dshot-go/drivers/dshot"
	"dshot-go/drivers/dshot/engine"
	"dshot-go/errcode"
	"dshot-go/services/hal/internal/core"
	"dshot-go/types"
)

type recorder struct{ evs []core.Event }

func (r *recorder) Emit(ev core.Event) bool { r.evs = append(r.evs, ev); return true }

func build(t *testing.T, sim *engine.Sim, rec *recorder, params any) (*Device, error) {
	t.Helper()
	d, err := builder{}.Build(context.Background(), core.BuilderInput{
		ID:     "quad",
		Params: params,
		Res:    core.Resources{Engines: engine.NewManager(sim), Pub: rec},
	})
	if err != nil {
		return nil, err
	}
	dev := d.(*Device)
	if err := dev.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { dev.Close() })
	return dev, nil
}

func lastFrames(t *testing.T, sim *engine.Sim, d *Device) [4]uint16 {
	t.Helper()
	s, _ := d.drv.Slot()
	log := sim.TxLog(s)
	if len(log) < 2 {
		t.Fatalf("tx log = %#x", log)
	}
	return dshot.Deinterleave([2]uint32{log[len(log)-2], log[len(log)-1]})
}

func TestDevice_Throttles(t *testing.T) {
	sim, rec := engine.NewSim(), &recorder{}
	d, err := build(t, sim, rec, Params{PinBase: 6})
	if err != nil {
		t.Fatal(err)
	}
	if info := d.Capabilities()[0].Info.Detail.(types.X4Info); info.Lanes != 4 || info.Checksum != "normal" {
		t.Fatalf("info = %+v", info)
	}

	res, _ := d.Control(d.addr, "throttles", types.ThrottlesSet{Values: [4]uint16{1000, 0, 2000, 3000}})
	if !res.OK {
		t.Fatalf("throttles = %+v", res)
	}
	want := [4]uint16{0x82E4, 0x0000, 0xFFEE, 0xFFEE}
	if got := lastFrames(t, sim, d); got != want {
		t.Fatalf("frames = %#x, want %#x", got, want)
	}
	v := rec.evs[len(rec.evs)-1].Payload.(types.X4Value)
	if v.Throttles != [4]uint16{1000, 0, 2000, 2000} {
		t.Fatalf("published %v", v.Throttles)
	}

	s, _ := d.drv.Slot()
	n := len(sim.TxLog(s))
	d.Refresh(d.addr, 0)
	if len(sim.TxLog(s)) != n+2 || lastFrames(t, sim, d) != want {
		t.Fatal("refresh did not resend the same frames")
	}

	if res, _ := d.Control(d.addr, "command", types.CommandSet{Command: "beacon1"}); res.Error != errcode.Busy {
		t.Fatalf("command while spinning = %+v", res)
	}
	d.Control(d.addr, "stop", nil)
	if got := lastFrames(t, sim, d); got != ([4]uint16{}) {
		t.Fatalf("stop frames = %#x", got)
	}
	if res, _ := d.Control(d.addr, "command", map[string]any{"command": "beacon1"}); !res.OK {
		t.Fatalf("command = %+v", res)
	}
	c := dshot.AppendChecksumMode(dshot.EncodeCommand(dshot.CmdBeacon1), dshot.ChecksumNormal)
	if got := lastFrames(t, sim, d); got != [4]uint16{c, c, c, c} {
		t.Fatalf("command frames = %#x", got)
	}
}

func TestDevice_InvertedChecksum(t *testing.T) {
	sim := engine.NewSim()
	d, err := build(t, sim, &recorder{}, map[string]any{"pin_base": 0, "lanes": 1, "checksum": "inverted"})
	if err != nil {
		t.Fatal(err)
	}
	d.Control(d.addr, "throttles", types.ThrottlesSet{Values: [4]uint16{1000}})
	if got := lastFrames(t, sim, d); got[0] != 0x82EB {
		t.Fatalf("lane 0 = %#x", got[0])
	}
	if p := sim.Pin(1); p.Attached {
		t.Fatal("single-lane device attached pin 1")
	}
}

func TestDevice_BadParams(t *testing.T) {
	sim, rec := engine.NewSim(), &recorder{}
	if _, err := build(t, sim, rec, Params{Checksum: "crc32"}); err != errcode.InvalidParams {
		t.Fatalf("checksum err = %v", err)
	}
	d, err := build(t, sim, rec, Params{PinBase: 28})
	if err != nil {
		t.Fatal(err)
	}
	if ev := rec.evs[len(rec.evs)-1]; ev.Err != string(errcode.InvalidParams) {
		t.Fatalf("event = %+v", ev)
	}
	if res, _ := d.Control(d.addr, "stop", nil); res.Error != errcode.NotInitialised {
		t.Fatalf("control on inert device = %+v", res)
	}
}
