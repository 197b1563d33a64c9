package mcp4xxxdev

import (
	"context"
	"strconv"

	"digipot-go/drivers/mcp4xxx"
	"digipot-go/errcode"
	"digipot-go/services/hal/internal/core"
)

func init() { core.RegisterBuilder("mcp4xxx", builder{}) }

type Params struct {
	Bus       string   // e.g. "spi0"
	CSPin     int      // chip-select GPIO
	Model     string   // e.g. "mcp4231"
	TotalOhms float64  // end-to-end grade; 0 = family default
	Invert    bool     // flip direction of travel on every wiper
	Labels    []string // capability name per channel; "" = <id>_w<n>
}

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := decodeParams(in.Params)
	if !ok || p.Bus == "" || p.Model == "" {
		return nil, errcode.InvalidParams
	}

	spi, err := in.Res.Reg.ClaimSPI(in.ID, core.ResourceID(p.Bus))
	if err != nil {
		return nil, err
	}
	pin, err := in.Res.Reg.ClaimGPIO(in.ID, p.CSPin)
	if err != nil {
		in.Res.Reg.ReleaseSPI(in.ID, core.ResourceID(p.Bus))
		return nil, err
	}
	// Chip select is active low; park it deselected.
	if err := pin.ConfigureOutput(true); err != nil {
		in.Res.Reg.ReleaseGPIO(in.ID, p.CSPin)
		in.Res.Reg.ReleaseSPI(in.ID, core.ResourceID(p.Bus))
		return nil, err
	}

	drv, err := mcp4xxx.New(spi, pin.Set, mcp4xxx.Config{
		Model:     p.Model,
		TotalOhms: p.TotalOhms,
	})
	if err != nil {
		in.Res.Reg.ReleaseGPIO(in.ID, p.CSPin)
		in.Res.Reg.ReleaseSPI(in.ID, core.ResourceID(p.Bus))
		return nil, err
	}

	d := &Device{
		id:     in.ID,
		params: p,
		reg:    in.Res.Reg,
		pub:    in.Res.Pub,
		drv:    drv,
	}
	d.addrs = make([]core.CapAddr, drv.Channels())
	for ch := range d.addrs {
		name := in.ID + "_w" + strconv.Itoa(ch)
		if ch < len(p.Labels) && p.Labels[ch] != "" {
			name = p.Labels[ch]
		}
		d.addrs[ch] = core.CapAddr{
			Domain: "pot",
			Kind:   "wiper",
			Name:   name,
		}
	}
	return d, nil
}

// decodeParams accepts typed Params (in-process configs) or the JSON-ish
// map shape the config service publishes.
func decodeParams(v any) (Params, bool) {
	if p, ok := v.(Params); ok {
		return p, true
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Params{}, false
	}
	var p Params
	p.Bus, _ = m["bus"].(string)
	p.Model, _ = m["model"].(string)
	p.CSPin = asInt(m["cs_pin"])
	p.TotalOhms = asFloat(m["total_ohms"])
	p.Invert, _ = m["invert"].(bool)
	if raw, ok := m["labels"].([]any); ok {
		for _, l := range raw {
			s, _ := l.(string)
			p.Labels = append(p.Labels, s)
		}
	}
	return p, true
}

func asInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	}
	return 0
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}
