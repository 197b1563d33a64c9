// potdemo runs the whole stack on a host against a simulated MCP4231:
// bus, config service, HAL, and a UI connection ramping one wiper.
package main

import (
	"context"
	"time"

	"digipot-go/bus"
	"digipot-go/services/config"
	"digipot-go/services/hal"
	"digipot-go/services/hal/sim"
	"digipot-go/types"
)

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	sign := ""
	if i < 0 {
		sign = "-"
		i = -i
	}
	var buf [32]byte
	b := len(buf)
	for i > 0 {
		b--
		buf[b] = byte('0' + (i % 10))
		i /= 10
	}
	if sign != "" {
		b--
		buf[b] = '-'
	}
	return string(buf[b:])
}

func requestWait(conn *bus.Connection, msg *bus.Message, d time.Duration) (*bus.Message, bool) {
	sub := conn.Request(msg)
	defer conn.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		return m, true
	case <-time.After(d):
		return nil, false
	}
}

func main() {
	ctx := context.Background()

	println("[main] bootstrapping bus ...")
	b := bus.NewBus(16)
	halConn := b.NewConnection("hal")
	cfgConn := b.NewConnection("config")
	uiConn := b.NewConnection("ui")

	println("[main] wiring simulated spi0 ...")
	chip := sim.NewChip(128, 2, true)
	reg := sim.NewRegistry()
	reg.AddSPI("spi0", chip)

	println("[main] subscribing to hal/# for diagnostics ...")
	mon := uiConn.Subscribe(bus.T("hal", "#"))
	go func() {
		for m := range mon.Channel() {
			if v, ok := m.Payload.(types.WiperValue); ok {
				println("[monitor] <-", m.Topic.String(), "pos:", itoa(v.Position))
				continue
			}
			println("[monitor] <-", m.Topic.String())
		}
	}()

	println("[main] starting hal.Run ...")
	go hal.Run(ctx, halConn, reg)

	// The embedded "sim" config carries a pot0/mcp4xxx entry on spi0.
	println("[main] publishing embedded config ...")
	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, "sim")
	config.NewConfigService().Start(cfgCtx, cfgConn)

	time.Sleep(250 * time.Millisecond)

	setTopic := bus.T("hal", "cap", "pot", "wiper", "pot0_w0", "control", "set")
	readTopic := bus.T("hal", "cap", "pot", "wiper", "pot0_w0", "control", "read")

	if reply, ok := requestWait(uiConn, uiConn.NewMessage(readTopic, nil, false), time.Second); ok {
		if v, isVal := reply.Payload.(types.WiperValue); isVal {
			println("[main] power-up position:", itoa(v.Position))
		}
	} else {
		println("[main] read timed out")
	}

	// Ramp the wiper through full travel and back.
	steps := []float64{0, 0.25, 0.5, 0.75, 1, 0.5}
	for {
		for _, f := range steps {
			req := types.WiperSet{Mode: types.ModeFraction, Value: f, Clamp: true}
			if _, ok := requestWait(uiConn, uiConn.NewMessage(setTopic, req, false), time.Second); !ok {
				println("[main] set timed out")
			}
			println("[main] hardware wiper now:", itoa(int(chip.WiperPos(0))))
			time.Sleep(500 * time.Millisecond)
		}
	}
}
