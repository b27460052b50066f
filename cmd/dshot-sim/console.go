package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"dshot-go/bus"
	"dshot-go/drivers/dshot"
	"dshot-go/drivers/dshot/engine"
	"dshot-go/types"

	"github.com/google/shlex"
)

var errQuit = errors.New("quit")

type capRef struct{ domain, kind string }

const usage = `commands:
  throttle <name> <0..2000>          set an ESC throttle
  ramp <name> <to> <ms> [steps]      ramp an ESC throttle
  cmd <name> <command> [repeat]      send a special command (motor stopped)
  stop <name>                        stop a motor
  lanes <name> <t0> <t1> <t2> <t3>   set x4 lane throttles
  erpm <pin> <erpm>                  set the simulated ESC speed on a pin
  edt <pin> <type> <value>           queue an extended telemetry frame
  show                               print the latest capability values
  quit`

// console turns command lines into HAL control requests and keeps one
// simulated ESC per bidirectional pin.
type console struct {
	conn *bus.Connection
	sim  *engine.Sim
	out  io.Writer

	mu     sync.Mutex
	escs   map[uint8]*dshot.SimESC
	caps   map[string]capRef // by capability name
	values map[string]any    // capability name -> last value
}

func newConsole(conn *bus.Connection, sim *engine.Sim, out io.Writer) *console {
	c := &console{
		conn:   conn,
		sim:    sim,
		out:    out,
		escs:   map[uint8]*dshot.SimESC{},
		caps:   map[string]capRef{},
		values: map[string]any{},
	}
	sim.OnStart(func(s engine.Slot, cfg engine.SlotConfig) {
		if !cfg.Sense {
			return
		}
		esc := c.esc(cfg.PinBase)
		sim.SetResponder(s, esc.Respond)
	})
	return c
}

func (c *console) esc(pin uint8) *dshot.SimESC {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.escs[pin]
	if e == nil {
		e = &dshot.SimESC{}
		c.escs[pin] = e
	}
	return e
}

// monitor records capability info and values until ctx ends.
func (c *console) monitor(ctx context.Context) {
	sub := c.conn.Subscribe(bus.T("hal", "cap", "#"))
	defer c.conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			domain, _ := m.Topic.At(2).(string)
			kind, _ := m.Topic.At(3).(string)
			name, _ := m.Topic.At(4).(string)
			leaf, _ := m.Topic.At(5).(string)
			c.mu.Lock()
			switch leaf {
			case "info":
				c.caps[name] = capRef{domain, kind}
			case "value":
				c.values[name] = m.Payload
			case "status":
				if s, ok := m.Payload.(types.CapabilityStatus); ok && s.Link == types.LinkDegraded {
					fmt.Fprintln(c.out, "[status]", name, "degraded:", s.Error)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *console) exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "help", "?":
		fmt.Fprintln(c.out, usage)
		return nil
	case "quit", "exit":
		return errQuit
	case "show":
		c.show()
		return nil
	case "throttle":
		if len(args) != 3 {
			return errors.New("usage: throttle <name> <value>")
		}
		v, err := parseU16(args[2])
		if err != nil {
			return err
		}
		return c.control(ctx, args[1], "throttle", types.ThrottleSet{Value: v})
	case "ramp":
		if len(args) < 4 || len(args) > 5 {
			return errors.New("usage: ramp <name> <to> <ms> [steps]")
		}
		to, err := parseU16(args[2])
		if err != nil {
			return err
		}
		ms, err := strconv.ParseUint(args[3], 10, 32)
		if err != nil {
			return err
		}
		steps := uint16(50)
		if len(args) == 5 {
			if steps, err = parseU16(args[4]); err != nil {
				return err
			}
		}
		return c.control(ctx, args[1], "ramp", types.ThrottleRamp{To: to, DurationMs: uint32(ms), Steps: steps})
	case "cmd":
		if len(args) < 3 || len(args) > 4 {
			return errors.New("usage: cmd <name> <command> [repeat]")
		}
		p := types.CommandSet{Command: args[2]}
		if len(args) == 4 {
			n, err := strconv.ParseUint(args[3], 10, 8)
			if err != nil {
				return err
			}
			p.Repeat = uint8(n)
		}
		return c.control(ctx, args[1], "command", p)
	case "stop":
		if len(args) != 2 {
			return errors.New("usage: stop <name>")
		}
		return c.control(ctx, args[1], "stop", nil)
	case "lanes":
		if len(args) != 6 {
			return errors.New("usage: lanes <name> <t0> <t1> <t2> <t3>")
		}
		var p types.ThrottlesSet
		for i := range p.Values {
			v, err := parseU16(args[2+i])
			if err != nil {
				return err
			}
			p.Values[i] = v
		}
		return c.control(ctx, args[1], "throttles", p)
	case "erpm":
		if len(args) != 3 {
			return errors.New("usage: erpm <pin> <erpm>")
		}
		pin, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil {
			return err
		}
		c.esc(uint8(pin)).SetErpm(uint32(v))
		return nil
	case "edt":
		if len(args) != 4 {
			return errors.New("usage: edt <pin> <type> <value>")
		}
		pin, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil {
			return err
		}
		t, ok := edtTypes[args[2]]
		if !ok {
			return errors.New("unknown telemetry type: " + args[2])
		}
		v, err := strconv.ParseUint(args[3], 10, 8)
		if err != nil {
			return err
		}
		c.esc(uint8(pin)).QueueEDT(t, uint8(v))
		return nil
	}
	return errors.New("unknown command: " + args[0])
}

var edtTypes = map[string]dshot.TelemetryType{}

func init() {
	for t := dshot.Voltage; t <= dshot.DebugFrame2; t++ {
		edtTypes[t.String()] = t
	}
}

func (c *console) control(ctx context.Context, name, verb string, payload any) error {
	c.mu.Lock()
	ref, ok := c.caps[name]
	c.mu.Unlock()
	if !ok {
		return errors.New("unknown capability: " + name)
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	t := bus.T("hal", "cap", ref.domain, ref.kind, name, "control", verb)
	r, err := c.conn.RequestWait(ctx, c.conn.NewMessage(t, payload, false))
	if err != nil {
		return err
	}
	if e, ok := r.Payload.(types.ErrorReply); ok {
		return errors.New(e.Error)
	}
	return nil
}

func (c *console) show() {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.caps))
	for n := range c.caps {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		switch v := c.values[n].(type) {
		case types.ESCValue:
			fmt.Fprintf(c.out, "%-8s throttle=%-4d erpm=%-7d rpm=%-6d temp=%dmC volt=%dmV bad=%d\n",
				n, v.Throttle, v.Erpm, v.RPM, v.TempMilli, v.VoltMilli, v.BadFrames)
		case types.X4Value:
			fmt.Fprintf(c.out, "%-8s lanes=%v\n", n, v.Throttles)
		default:
			fmt.Fprintf(c.out, "%-8s (%s, no value yet)\n", n, c.caps[n].kind)
		}
	}
}

func parseU16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	return uint16(v), err
}
