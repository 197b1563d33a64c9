package sim

import (
	"errors"
	"testing"
)

func TestChipWriteAndRead(t *testing.T) {
	c := NewChip(128, 2, true)

	// Write wiper 0 = 100: 0x00<<4 | write<<2 | D9:D8, then D7:D0.
	var r [2]byte
	if err := c.Tx([]byte{0x00, 100}, r[:]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if r[0]&0x02 == 0 {
		t.Fatal("valid write flagged CMDERR")
	}
	if c.WiperPos(0) != 100 {
		t.Fatalf("wiper = %d, want 100", c.WiperPos(0))
	}

	// Read it back: data is 9 bits across the two response bytes.
	if err := c.Tx([]byte{0x0C, 0x00}, r[:]); err != nil {
		t.Fatalf("read: %v", err)
	}
	if r[0]&0x02 == 0 {
		t.Fatal("valid read flagged CMDERR")
	}
	got := (uint16(r[0])<<8 | uint16(r[1])) & 0x1FF
	if got != 100 {
		t.Fatalf("read back %d, want 100", got)
	}
}

func TestChipIncDecSaturate(t *testing.T) {
	c := NewChip(128, 1, true)
	c.SetWiper(0, 128)

	var r [1]byte
	// Increment past full scale sticks at full scale.
	if err := c.Tx([]byte{0x04}, r[:]); err != nil {
		t.Fatal(err)
	}
	if c.WiperPos(0) != 128 {
		t.Fatalf("wiper = %d, want 128", c.WiperPos(0))
	}

	c.SetWiper(0, 0)
	if err := c.Tx([]byte{0x08}, r[:]); err != nil {
		t.Fatal(err)
	}
	if c.WiperPos(0) != 0 {
		t.Fatalf("wiper = %d, want 0", c.WiperPos(0))
	}
}

func TestChipRejectsBadCommands(t *testing.T) {
	c := NewChip(128, 1, true)

	var r [2]byte
	// Wiper 1 does not exist on a single-channel part.
	if err := c.Tx([]byte{0x10, 0x40}, r[:]); err != nil {
		t.Fatal(err)
	}
	if r[0]&0x02 != 0 {
		t.Fatal("write to missing channel accepted")
	}

	// NV registers on a volatile part.
	if err := c.Tx([]byte{0x20, 0x40}, r[:]); err != nil {
		t.Fatal(err)
	}
	if r[0]&0x02 != 0 {
		t.Fatal("NV write on volatile part accepted")
	}
}

func TestChipFailNextAutoResets(t *testing.T) {
	c := NewChip(128, 1, true)
	fault := errors.New("glitch")
	c.FailNext(fault)

	var r [2]byte
	if err := c.Tx([]byte{0x00, 10}, r[:]); err != fault {
		t.Fatalf("err = %v, want injected fault", err)
	}
	if err := c.Tx([]byte{0x00, 10}, r[:]); err != nil {
		t.Fatalf("fault did not reset: %v", err)
	}
	if c.TxCount() != 2 {
		t.Fatalf("tx count = %d, want 2", c.TxCount())
	}
}

func TestChipReservedBitsReadHigh(t *testing.T) {
	c := NewChip(128, 2, true)

	var r [2]byte
	// TCON read: bit 8 always high.
	if err := c.Tx([]byte{0x4C, 0x00}, r[:]); err != nil {
		t.Fatal(err)
	}
	if r[0]&0x01 != 1 {
		t.Fatalf("tcon D8 = %#x, want high", r[0])
	}
	// STATUS read: D8 and D7:D5 always high.
	if err := c.Tx([]byte{0x5C, 0x00}, r[:]); err != nil {
		t.Fatal(err)
	}
	if r[0]&0x01 != 1 || r[1]&0xE0 != 0xE0 {
		t.Fatalf("status readout %#x %#x missing reserved bits", r[0], r[1])
	}
}
