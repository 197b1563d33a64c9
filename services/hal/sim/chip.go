// Package sim provides a simulated MCP4XXX chip behind the drivers.SPI
// interface plus an in-memory resource registry, so the HAL and demo
// binaries run on a host with no hardware attached.
package sim

import (
	"errors"
	"sync"
)

var errShortFrame = errors.New("sim: response buffer shorter than command")

const (
	simCmdWrite = 0b00
	simCmdInc   = 0b01
	simCmdDec   = 0b10
	simCmdRead  = 0b11

	simRegTCON   = 0x04
	simRegStatus = 0x05
)

// Chip emulates the register file and command decoder of one MCP4XXX part.
// It implements drivers.SPI (Tx + Transfer).
type Chip struct {
	mu       sync.Mutex
	maxPos   uint16
	channels int
	volatile bool

	wiper  [2]uint16
	nv     [2]uint16
	tcon   uint16
	status uint16

	transfers int
	failNext  error
}

// NewChip builds a simulated part. maxPos is 128 or 256; channels 1 or 2.
// The wipers power up at mid-scale, like the volatile parts do.
func NewChip(maxPos uint16, channels int, volatile bool) *Chip {
	c := &Chip{maxPos: maxPos, channels: channels, volatile: volatile}
	for i := 0; i < channels; i++ {
		c.wiper[i] = maxPos / 2
		c.nv[i] = maxPos / 2
	}
	// Power-on TCON: both channels fully connected, running.
	c.tcon = 0x00FF
	return c
}

// TxCount reports how many SPI exchanges the chip has seen.
func (c *Chip) TxCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transfers
}

// FailNext makes the next exchange fail with err, simulating a transport
// fault. It auto-resets.
func (c *Chip) FailNext(err error) {
	c.mu.Lock()
	c.failNext = err
	c.mu.Unlock()
}

// SetWiper moves a wiper behind the driver's back (manual pins, reset).
func (c *Chip) SetWiper(channel int, pos uint16) {
	c.mu.Lock()
	c.wiper[channel] = pos
	c.mu.Unlock()
}

// WiperPos reports the current hardware wiper position.
func (c *Chip) WiperPos(channel int) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wiper[channel]
}

// NVPos reports the stored non-volatile position.
func (c *Chip) NVPos(channel int) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nv[channel]
}

// TCON reports the raw terminal-control register.
func (c *Chip) TCON() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tcon
}

// Transfer implements the single-byte half of drivers.SPI.
func (c *Chip) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := c.Tx([]byte{b}, r[:])
	return r[0], err
}

// Tx decodes one command frame and produces the chip's response.
func (c *Chip) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transfers++
	if c.failNext != nil {
		err := c.failNext
		c.failNext = nil
		return err
	}
	if len(r) < len(w) {
		return errShortFrame
	}
	// Idle SDO level is high; CMDERR is cleared below on bad commands.
	for i := range r[:len(w)] {
		r[i] = 0xFF
	}
	if len(w) == 0 {
		return nil
	}

	addr := w[0] >> 4
	cmd := (w[0] >> 2) & 0b11

	switch {
	case len(w) == 1: // increment / decrement
		ch, ok := c.wiperChannel(addr)
		if !ok || (cmd != simCmdInc && cmd != simCmdDec) {
			r[0] &^= 0x02
			return nil
		}
		if cmd == simCmdInc && c.wiper[ch] < c.maxPos {
			c.wiper[ch]++
		}
		if cmd == simCmdDec && c.wiper[ch] > 0 {
			c.wiper[ch]--
		}
	case cmd == simCmdWrite:
		data := uint16(w[0]&0x03)<<8 | uint16(w[1])
		if !c.write(addr, data) {
			r[0] &^= 0x02
		}
	case cmd == simCmdRead:
		data, ok := c.read(addr)
		if !ok {
			r[0] &^= 0x02
			return nil
		}
		r[0] = 0xFC | 0x02 | byte(data>>8)&0x01
		r[1] = byte(data)
	default:
		r[0] &^= 0x02
	}
	return nil
}

func (c *Chip) wiperChannel(addr byte) (int, bool) {
	switch addr {
	case 0x00:
		return 0, true
	case 0x01:
		return 1, c.channels > 1
	}
	return 0, false
}

func (c *Chip) nvChannel(addr byte) (int, bool) {
	if !c.volatile && (addr == 0x02 || addr == 0x03) {
		ch := int(addr - 0x02)
		return ch, ch < c.channels
	}
	return 0, false
}

func (c *Chip) write(addr byte, data uint16) bool {
	if ch, ok := c.wiperChannel(addr); ok {
		if data > c.maxPos {
			data = c.maxPos
		}
		c.wiper[ch] = data
		return true
	}
	if ch, ok := c.nvChannel(addr); ok {
		if data > c.maxPos {
			data = c.maxPos
		}
		c.nv[ch] = data
		return true
	}
	if addr == simRegTCON {
		c.tcon = data & 0x00FF
		return true
	}
	return false
}

func (c *Chip) read(addr byte) (uint16, bool) {
	if ch, ok := c.wiperChannel(addr); ok {
		return c.wiper[ch], true
	}
	if ch, ok := c.nvChannel(addr); ok {
		return c.nv[ch], true
	}
	switch addr {
	case simRegTCON:
		return 0x0100 | c.tcon, true // bit 8 reads high
	case simRegStatus:
		return 0x01E0 | c.status, true // reserved bits read high
	}
	return 0, false
}
