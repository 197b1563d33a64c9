// Package mcp4xxxdev exposes MCP4XXX digital potentiometers as HAL wiper
// capabilities: one capability per channel, controlled over the bus and
// reporting retained value updates.
package mcp4xxxdev

import (
	"context"
	"errors"

	"digipot-go/drivers/mcp4xxx"
	"digipot-go/errcode"
	"digipot-go/services/hal/internal/core"
	"digipot-go/types"
	"digipot-go/x/timex"
)

const schemaVersion = 1

type Device struct {
	id     string
	params Params
	reg    core.ResourceRegistry
	pub    core.EventEmitter
	drv    *mcp4xxx.Device
	addrs  []core.CapAddr // index = channel
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	p := d.drv.Profile()
	caps := make([]core.CapabilitySpec, len(d.addrs))
	for ch, addr := range d.addrs {
		w, _ := d.drv.Wiper(ch)
		caps[ch] = core.CapabilitySpec{
			Domain: addr.Domain,
			Kind:   types.KindWiper,
			Name:   addr.Name,
			Info: types.Info{
				SchemaVersion: schemaVersion,
				Driver:        "mcp4xxx",
				Detail: types.WiperInfo{
					Model:       p.Model,
					Bus:         d.params.Bus,
					Channel:     ch,
					MaxPosition: p.MaxPosition,
					TotalOhms:   w.Ladder().TotalOhms,
					WiperOhms:   p.WiperOhms,
					Rheostat:    p.Rheostat,
					Volatile:    p.Volatile,
				},
			},
		}
	}
	return caps
}

// Init syncs the wiper caches from the chip and publishes the first values.
func (d *Device) Init(ctx context.Context) error {
	if d.params.Invert {
		for ch := 0; ch < d.drv.Channels(); ch++ {
			w, _ := d.drv.Wiper(ch)
			w.SetInvert(true)
		}
	}
	if err := d.drv.Configure(); err != nil {
		return errcode.Wrap(errcode.TransportError, "mcp4xxx configure", err)
	}
	for ch := range d.addrs {
		d.emitValue(ch, false)
	}
	return nil
}

func (d *Device) Close() error {
	d.reg.ReleaseGPIO(d.id, d.params.CSPin)
	d.reg.ReleaseSPI(d.id, core.ResourceID(d.params.Bus))
	return nil
}

func (d *Device) channelFor(addr core.CapAddr) int {
	for ch, a := range d.addrs {
		if a == addr {
			return ch
		}
	}
	return -1
}

// Control verbs:
//
//	set         WiperSet       move the wiper, reply with the applied value
//	read        -              re-read the chip, reply with the live value
//	lock        WiperLock      host-side write protect for the channel
//	device_lock DeviceLock     write protect for the whole chip
//	shutdown    WiperShutdown  software shutdown via TCON
//	store       -              save the position to EEPROM (NV models)
//	recall      -              reply with the stored EEPROM value (NV models)
func (d *Device) Control(addr core.CapAddr, verb string, payload any) (any, error) {
	ch := d.channelFor(addr)
	if ch < 0 {
		return nil, errcode.UnknownCapability
	}
	w, err := d.drv.Wiper(ch)
	if err != nil {
		return nil, mapErr(err)
	}

	switch verb {
	case "set":
		req, code := core.As[types.WiperSet](payload)
		if code != "" {
			return nil, code
		}
		pos, clamped, err := w.Set(req.Value, driverMode(req.Mode), req.Clamp)
		if err != nil {
			return nil, d.busErr(ch, err)
		}
		v := d.valueAt(ch, pos)
		v.Clamped = clamped
		d.emit(ch, v, false)
		return v, nil

	case "read":
		if err := w.Refresh(); err != nil {
			return nil, d.busErr(ch, err)
		}
		v, err := d.emitValue(ch, false)
		if err != nil {
			return nil, mapErr(err)
		}
		return v, nil

	case "lock":
		req, code := core.As[types.WiperLock](payload)
		if code != "" {
			return nil, code
		}
		w.SetLocked(req.Locked)
		return nil, nil

	case "device_lock":
		req, code := core.As[types.DeviceLock](payload)
		if code != "" {
			return nil, code
		}
		d.drv.SetDeviceLocked(req.Locked)
		return nil, nil

	case "shutdown":
		req, code := core.As[types.WiperShutdown](payload)
		if code != "" {
			return nil, code
		}
		if err := d.drv.Shutdown(ch, req.Shutdown); err != nil {
			return nil, d.busErr(ch, err)
		}
		d.emitEvent(ch, "shutdown", req)
		return nil, nil

	case "store":
		if err := d.drv.StoreWiper(ch); err != nil {
			return nil, d.busErr(ch, err)
		}
		return nil, nil

	case "recall":
		pos, err := d.drv.NVPosition(ch)
		if err != nil {
			return nil, d.busErr(ch, err)
		}
		return d.valueAt(ch, pos), nil
	}
	return nil, errcode.Unsupported
}

// valueAt converts a position into the full wire value shape.
func (d *Device) valueAt(ch, pos int) types.WiperValue {
	w, _ := d.drv.Wiper(ch)
	l := w.Ladder()
	return types.WiperValue{
		Position: pos,
		Fraction: l.Fraction(pos),
		Ohms:     l.RWB(pos),
	}
}

// emitValue publishes the cached wiper value; the cache must be synced.
func (d *Device) emitValue(ch int, clamped bool) (types.WiperValue, error) {
	w, err := d.drv.Wiper(ch)
	if err != nil {
		return types.WiperValue{}, err
	}
	pos, err := w.Position()
	if err != nil {
		return types.WiperValue{}, err
	}
	v := d.valueAt(ch, pos)
	v.Clamped = clamped
	d.emit(ch, v, false)
	return v, nil
}

func (d *Device) emit(ch int, payload any, isEvent bool) {
	if d.pub == nil {
		return
	}
	d.pub.Emit(core.Event{
		Addr:    d.addrs[ch],
		Payload: payload,
		TSms:    timex.NowMs(),
		IsEvent: isEvent,
	})
}

func (d *Device) emitEvent(ch int, tag string, payload any) {
	if d.pub == nil {
		return
	}
	d.pub.Emit(core.Event{
		Addr:     d.addrs[ch],
		Payload:  payload,
		TSms:     timex.NowMs(),
		IsEvent:  true,
		EventTag: tag,
	})
}

// busErr maps a driver error onto a stable code and, for transport faults,
// flags the capability degraded.
func (d *Device) busErr(ch int, err error) error {
	code := mapErr(err)
	if code == errcode.TransportError && d.pub != nil {
		d.pub.Emit(core.Event{
			Addr: d.addrs[ch],
			TSms: timex.NowMs(),
			Err:  string(code),
		})
	}
	return code
}

func driverMode(m types.ValueMode) mcp4xxx.ValueMode {
	switch m {
	case types.ModeFraction:
		return mcp4xxx.Fraction
	case types.ModeOhms:
		return mcp4xxx.Ohms
	default:
		return mcp4xxx.Raw
	}
}

func mapErr(err error) errcode.Code {
	switch {
	case err == nil:
		return errcode.OK
	case errors.Is(err, mcp4xxx.ErrValueOutOfRange):
		return errcode.ValueOutOfRange
	case errors.Is(err, mcp4xxx.ErrWriteProtected):
		return errcode.WriteProtected
	case errors.Is(err, mcp4xxx.ErrUnknownModel):
		return errcode.UnknownModel
	case errors.Is(err, mcp4xxx.ErrUnknownChannel):
		return errcode.UnknownChannel
	case errors.Is(err, mcp4xxx.ErrStaleState):
		return errcode.StaleState
	case errors.Is(err, mcp4xxx.ErrNotNonVolatile):
		return errcode.Unsupported
	default:
		return errcode.TransportError
	}
}
