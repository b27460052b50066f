//go:build rp2040 || rp2350

// Command pico-dshot is the board firmware: it loads the embedded config,
// runs the HAL on the PIO blocks and spins the first motor up and down.
package main

import (
	"context"
	"runtime"
	"time"

	"dshot-go/bus"
	"dshot-go/services/config"
	"dshot-go/services/hal"
	"dshot-go/types"
	"dshot-go/x/conv"
)

const deviceID = "pico"

func printTopicWith(prefix string, t bus.Topic) {
	var buf [20]byte
	print(prefix)
	print(" ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch v := t.At(i).(type) {
		case string:
			print(v)
		case int:
			print(string(conv.Itoa(buf[:], int64(v))))
		default:
			print("?")
		}
	}
	println()
}

func printESC(name string, v types.ESCValue) {
	var buf [20]byte
	print("[esc] ", name)
	print(" thr=", string(conv.Utoa(buf[:], uint64(v.Throttle))))
	print(" erpm=", string(conv.Utoa(buf[:], uint64(v.Erpm))))
	print(" rpm=", string(conv.Utoa(buf[:], uint64(v.RPM))))
	if v.TempMilli != 0 {
		print(" temp_mC=", string(conv.Itoa(buf[:], int64(v.TempMilli))))
	}
	if v.BadFrames != 0 {
		print(" bad=", string(conv.Utoa(buf[:], uint64(v.BadFrames))))
	}
	println()
}

func main() {
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	println("[main] bootstrapping bus …")
	b := bus.NewBus(8)
	halConn := b.NewConnection("hal")
	uiConn := b.NewConnection("ui")

	mon := uiConn.Subscribe(bus.T("hal", "#"))
	go func() {
		for m := range mon.Channel() {
			if v, ok := m.Payload.(types.ESCValue); ok {
				name, _ := m.Topic.At(4).(string)
				printESC(name, v)
				continue
			}
			printTopicWith("[monitor] <-", m.Topic)
		}
	}()

	println("[main] starting hal.Run …")
	go hal.Run(ctx, halConn)

	config.NewConfigService().Start(context.WithValue(ctx, config.CtxDeviceKey, deviceID), b.NewConnection("config"))

	startKISS(ctx)

	state := uiConn.Subscribe(bus.T("hal", "state"))
	for m := range state.Channel() {
		if s, ok := m.Payload.(types.HALState); ok && s.Level == "ready" {
			break
		}
	}
	uiConn.Unsubscribe(state)

	ctrl := bus.T("hal", "cap", "motor", string(types.KindESC), "m1", "control")

	// ESCs arm after a short run of zero-throttle frames.
	time.Sleep(2 * time.Second)
	request(ctx, uiConn, ctrl.Append("command"), types.CommandSet{Command: "beacon1"})

	for {
		request(ctx, uiConn, ctrl.Append("ramp"), types.ThrottleRamp{To: 300, DurationMs: 2000, Steps: 40})
		time.Sleep(5 * time.Second)
		request(ctx, uiConn, ctrl.Append("stop"), nil)
		printMem()
		time.Sleep(3 * time.Second)
	}
}

func request(ctx context.Context, c *bus.Connection, t bus.Topic, payload any) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	r, err := c.RequestWait(ctx, c.NewMessage(t, payload, false))
	if err != nil {
		println("[main] request error:", err.Error())
		return
	}
	if e, ok := r.Payload.(types.ErrorReply); ok {
		printTopicWith("[main] refused "+e.Error+" on", t)
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"heapSys:", uint32(ms.HeapSys),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
