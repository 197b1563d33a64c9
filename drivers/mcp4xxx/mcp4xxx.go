// Package mcp4xxx drives the Microchip MCP4XXX family of SPI digital
// potentiometers and rheostats (MCP413X/415X/423X/425X volatile,
// MCP414X/416X/424X/426X non-volatile).
//
// Design notes (datasheet references):
// • SPI mode 0,0 or 1,1; 16-bit read/write commands, 8-bit inc/dec commands.
// • 7-bit parts have 129 taps (0..128), 8-bit parts 257 taps (0..256).
// • 10-bit command data field; CMDERR driven low on invalid commands.
// • TCON register connects/disconnects terminals per channel; STATUS reports
//   the SHDN pin, EEPROM write protect and wiper locks.
//
// The driver owns a chip-select line and serialises every
// select→transfer→deselect exchange behind one mutex, so concurrent callers
// can never interleave partial commands.
package mcp4xxx

import (
	"sync"

	"tinygo.org/x/drivers"
)

// PinOutput drives the chip-select line (active low).
type PinOutput func(level bool)

type Config struct {
	Model     string  // e.g. "mcp4231", required
	TotalOhms float64 // end-to-end resistance grade; 0 = DefaultTotalOhms

	// Surrounding divider circuit, for voltage-mode conversions.
	// Zero means unconnected.
	RLim      float64 // series current limiter
	RLoad     float64 // resistive load on the wiper
	VoltageIn float64 // supply feeding the ladder through RLim
}

// Device is one MCP4XXX chip: a profile, one wiper per channel and the
// exclusively owned transport handle.
type Device struct {
	mu      sync.Mutex
	spi     drivers.SPI
	cs      PinOutput
	profile Profile
	wipers  []Wiper
	locked  bool // device-wide write protect, guarded by mu

	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [2]byte
}

// New validates the configuration and builds a device. No bus traffic
// happens here; every wiper starts Unknown until Configure or Refresh.
func New(spi drivers.SPI, cs PinOutput, cfg Config) (*Device, error) {
	profile, err := LookupProfile(cfg.Model)
	if err != nil {
		return nil, err
	}
	total := cfg.TotalOhms
	if total == 0 {
		total = DefaultTotalOhms
	}
	if !validGrade(total) {
		return nil, ErrBadResistance
	}
	if cfg.RLim < 0 || cfg.RLoad < 0 {
		return nil, ErrBadCircuit
	}
	if cs == nil {
		cs = func(bool) {}
	}

	d := &Device{spi: spi, cs: cs, profile: profile}
	ladder := Ladder{
		MaxPos:    profile.MaxPosition,
		TotalOhms: total,
		WiperOhms: profile.WiperOhms,
		Rheostat:  profile.Rheostat,
		RLim:      cfg.RLim,
		RLoad:     cfg.RLoad,
		VoltageIn: cfg.VoltageIn,
	}
	d.wipers = make([]Wiper, profile.Channels)
	for i := range d.wipers {
		d.wipers[i] = Wiper{dev: d, channel: i, ladder: ladder}
	}
	return d, nil
}

// Configure reads every wiper back from the chip so the caches start
// Synced. Call once after power-up.
func (d *Device) Configure() error {
	for i := range d.wipers {
		if _, err := d.readWiper(&d.wipers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) Profile() Profile { return d.profile }
func (d *Device) Channels() int    { return len(d.wipers) }

// Wiper returns the channel's wiper, or ErrUnknownChannel.
func (d *Device) Wiper(channel int) (*Wiper, error) {
	if channel < 0 || channel >= len(d.wipers) {
		return nil, ErrUnknownChannel
	}
	return &d.wipers[channel], nil
}

// SetDeviceLocked toggles the device-wide write protect. Reads stay allowed.
func (d *Device) SetDeviceLocked(locked bool) {
	d.mu.Lock()
	d.locked = locked
	d.mu.Unlock()
}

func (d *Device) DeviceLocked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locked
}

// ---------------- Raw register escape hatch ----------------

// WriteRaw writes a raw wiper code, bypassing the value model but not the
// bounds checks or write protection.
func (d *Device) WriteRaw(channel, pos int) error {
	w, err := d.Wiper(channel)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if pos < 0 || pos > w.ladder.MaxPos {
		return ErrValueOutOfRange
	}
	return d.writeWiperLocked(w, w.toChip(pos))
}

// ReadRaw reads the wiper code live from the chip and re-syncs the cache.
func (d *Device) ReadRaw(channel int) (int, error) {
	w, err := d.Wiper(channel)
	if err != nil {
		return 0, err
	}
	return d.readWiper(w)
}

// ---------------- Wiper bus operations ----------------

// writeWiper applies a chip-code position: write protection first, then the
// no-op short-circuit, then the bus. The cache is only trusted again after
// the chip acknowledged the command.
func (d *Device) writeWiper(w *Wiper, pos int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeWiperLocked(w, w.toChip(pos))
}

func (d *Device) writeWiperLocked(w *Wiper, chipPos int) error {
	if d.locked || w.locked {
		return ErrWriteProtected
	}
	if w.state == StateSynced && w.pos == chipPos {
		return nil // idempotent: no bus traffic
	}
	w.state = StateDirty
	if _, err := d.command16(wiperRegister(w.channel), cmdWrite, uint16(chipPos)); err != nil {
		w.state = StateUnknown
		return err
	}
	w.pos = chipPos
	w.state = StateSynced
	return nil
}

// readWiper reads the position back and returns it in user space.
func (d *Device) readWiper(w *Wiper) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := d.command16(wiperRegister(w.channel), cmdRead, 0)
	if err != nil {
		w.state = StateUnknown
		return 0, err
	}
	pos := int(data)
	if pos > w.ladder.MaxPos {
		w.state = StateUnknown
		return 0, ErrResponse
	}
	w.pos = pos
	w.state = StateSynced
	return w.fromChip(pos), nil
}

// stepWiper issues an 8-bit increment/decrement pulse. dir is in user
// space; inversion flips it. The cache follows the pulse only when it was
// Synced before, saturating at the ends like the chip does.
func (d *Device) stepWiper(w *Wiper, dir int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked || w.locked {
		return ErrWriteProtected
	}
	if w.invert {
		dir = -dir
	}
	cmd := byte(cmdIncrement)
	if dir < 0 {
		cmd = cmdDecrement
	}
	wasSynced := w.state == StateSynced
	w.state = StateDirty
	if err := d.command8(wiperRegister(w.channel), cmd); err != nil {
		w.state = StateUnknown
		return err
	}
	if !wasSynced {
		// No trusted base to step from; a Refresh is needed.
		w.state = StateUnknown
		return nil
	}
	w.pos = clampPos(w.pos+dir, w.ladder.MaxPos)
	w.state = StateSynced
	return nil
}

// ---------------- Non-volatile wiper memory ----------------

// StoreWiper copies the wiper's current position into the chip's
// non-volatile register so it survives power cycles. Only EEPROM-backed
// models support this.
func (d *Device) StoreWiper(channel int) error {
	w, err := d.Wiper(channel)
	if err != nil {
		return err
	}
	if d.profile.Volatile {
		return ErrNotNonVolatile
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked || w.locked {
		return ErrWriteProtected
	}
	if w.state != StateSynced {
		return ErrStaleState
	}
	_, err = d.command16(nvWiperRegister(channel), cmdWrite, uint16(w.pos))
	return err
}

// NVPosition reads the stored non-volatile position live from the chip.
func (d *Device) NVPosition(channel int) (int, error) {
	w, err := d.Wiper(channel)
	if err != nil {
		return 0, err
	}
	if d.profile.Volatile {
		return 0, ErrNotNonVolatile
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := d.command16(nvWiperRegister(channel), cmdRead, 0)
	if err != nil {
		return 0, err
	}
	return w.fromChip(int(data)), nil
}

// ---------------- TCON / STATUS ----------------

// TCON is the terminal-connection state of one channel.
type TCON struct {
	Shutdown bool // channel forced into shutdown
	A, W, B  bool // terminal connected
}

// DefaultTCON is the power-on state: all terminals connected, running.
func DefaultTCON() TCON { return TCON{A: true, W: true, B: true} }

func (t TCON) nibble() byte {
	var b byte
	if !t.Shutdown {
		b |= tconHW
	}
	if t.A {
		b |= tconA
	}
	if t.W {
		b |= tconW
	}
	if t.B {
		b |= tconB
	}
	return b
}

func tconFromNibble(b byte) TCON {
	return TCON{
		Shutdown: b&tconHW == 0,
		A:        b&tconA != 0,
		W:        b&tconW != 0,
		B:        b&tconB != 0,
	}
}

// ReadTCON reads the terminal-connection state of every channel.
func (d *Device) ReadTCON() ([]TCON, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := d.command16(regTCON, cmdRead, 0)
	if err != nil {
		return nil, err
	}
	out := make([]TCON, len(d.wipers))
	for i := range out {
		out[i] = tconFromNibble(byte(data>>(4*i)) & tconAll)
	}
	return out, nil
}

// WriteTCON updates one channel's terminal connections with a
// read-modify-write, leaving the other channel untouched.
func (d *Device) WriteTCON(channel int, t TCON) error {
	if channel < 0 || channel >= len(d.wipers) {
		return ErrUnknownChannel
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		return ErrWriteProtected
	}
	cur, err := d.command16(regTCON, cmdRead, 0)
	if err != nil {
		return err
	}
	shift := 4 * channel
	next := cur&0xFF&^(uint16(tconAll)<<shift) | uint16(t.nibble())<<shift
	_, err = d.command16(regTCON, cmdWrite, next)
	return err
}

// Shutdown disconnects terminal A and opens the resistor ladder of one
// channel via TCON (software shutdown; the SHDN pin is the hard variant).
func (d *Device) Shutdown(channel int, on bool) error {
	t := DefaultTCON()
	t.Shutdown = on
	return d.WriteTCON(channel, t)
}

// Status reads the STATUS register (validated reserved bits masked off).
func (d *Device) Status() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := d.command16(regStatus, cmdRead, 0)
	if err != nil {
		return 0, err
	}
	return data & (statusWP | statusSHDN | statusWL0 | statusWL1 | statusEEWA), nil
}

// SHDNActive reports whether the hardware shutdown pin is asserted.
func (d *Device) SHDNActive() (bool, error) {
	s, err := d.Status()
	return s&statusSHDN != 0, err
}

// HardwareLocked reports the chip's own wiper-lock state for a channel.
func (d *Device) HardwareLocked(channel int) (bool, error) {
	if channel < 0 || channel >= len(d.wipers) {
		return false, ErrUnknownChannel
	}
	s, err := d.Status()
	if err != nil {
		return false, err
	}
	mask := uint16(statusWL0)
	if channel == 1 {
		mask = statusWL1
	}
	return s&mask != 0, nil
}

// ---------------- Low-level SPI (one command per chip-select scope) ----------------

// command16 runs one full 16-bit command. Callers hold d.mu.
func (d *Device) command16(addr, cmd byte, data uint16) (uint16, error) {
	if err := packCommand(&d.w, addr, cmd, data); err != nil {
		return 0, err
	}
	if err := d.xfer(d.w[:], d.r[:]); err != nil {
		return 0, err
	}
	if !respOK(d.r[0]) {
		return 0, ErrCommand
	}
	if cmd == cmdRead {
		if err := checkReserved(addr, d.r[0], d.r[1]); err != nil {
			return 0, err
		}
		return unpackData(d.r[0], d.r[1]), nil
	}
	return 0, nil
}

// command8 runs one 8-bit increment/decrement command. Callers hold d.mu.
func (d *Device) command8(addr, cmd byte) error {
	d.w[0] = packShortCommand(addr, cmd)
	if err := d.xfer(d.w[:1], d.r[:1]); err != nil {
		return err
	}
	if !respOK(d.r[0]) {
		return ErrCommand
	}
	return nil
}

// xfer scopes one full-duplex exchange with the chip-select line, pairing
// deselect with select on every exit path.
func (d *Device) xfer(w, r []byte) error {
	d.cs(false)
	err := d.spi.Tx(w, r)
	d.cs(true)
	if err != nil {
		return err
	}
	return nil
}
