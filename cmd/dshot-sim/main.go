// Command dshot-sim runs the HAL against simulated PIO engines and ESCs and
// drives it from a small line-oriented console.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"dshot-go/bus"
	"dshot-go/drivers/dshot/engine"
	"dshot-go/services/config"
	"dshot-go/services/hal"
)

func main() {
	device := flag.String("device", "pico", "embedded config to load")
	cfgPath := flag.String("config", "", "JSON config file (overrides -device)")
	flag.Parse()

	if *cfgPath != "" {
		raw, err := os.ReadFile(*cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "dshot-sim:", err)
			os.Exit(1)
		}
		config.EmbeddedConfigLookup = func(string) ([]byte, bool) { return raw, true }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim := engine.NewSim()
	b := bus.NewBus(32)
	con := newConsole(b.NewConnection("console"), sim, os.Stdout)

	go hal.RunWithEngines(ctx, b.NewConnection("hal"), engine.NewManager(sim))
	config.NewConfigService().Start(context.WithValue(ctx, config.CtxDeviceKey, *device), b.NewConnection("config"))

	go con.monitor(ctx)

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	fmt.Fprintln(os.Stdout, "dshot-sim ready; type 'help'")
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := con.exec(ctx, line); err != nil {
				if err == errQuit {
					return
				}
				fmt.Fprintln(os.Stdout, "error:", err)
			}
		}
	}
}
