package mcp4xxx

// Command framing.
//
// Full commands are 16 bits, MSB first:
//
//	AAAA CC DD  DDDDDDDD
//	└┬─┘ └┤ └┴──┴──────┴─ 10 data bits
//	 │    └─ command opcode
//	 └─ register sub-address
//
// Increment/decrement are 8-bit commands (address + opcode, no data).
// While a command shifts in, the device shifts out all-ones except the
// CMDERR bit (frame bit 9), which is driven low when the command is
// invalid. Read-back data is therefore 9 bits: D8 in the first response
// byte, D7:D0 in the second.

const (
	dataMask  = 0x03FF // writable command data field
	readMask  = 0x01FF // read-back data, D8:D0
	cmdErrBit = 0x02   // first response byte, active low
)

// packCommand lays out a 16-bit command into buf.
// Data wider than the 10-bit field is an error, never a silent truncation.
func packCommand(buf *[2]byte, addr, cmd byte, data uint16) error {
	if data > dataMask {
		return ErrValueOutOfRange
	}
	buf[0] = addr<<4 | cmd<<2 | byte(data>>8)
	buf[1] = byte(data)
	return nil
}

// packShortCommand lays out an 8-bit increment/decrement command.
func packShortCommand(addr, cmd byte) byte {
	return addr<<4 | cmd<<2
}

// unpackData extracts the 9 read-back data bits from a 16-bit response.
func unpackData(hi, lo byte) uint16 {
	return (uint16(hi)<<8 | uint16(lo)) & readMask
}

// respOK reports whether the device accepted the command (CMDERR high).
func respOK(hi byte) bool {
	return hi&cmdErrBit != 0
}

// checkReserved validates the reserved always-high bits of a read response
// for registers that define them.
func checkReserved(addr, hi, lo byte) error {
	m, ok := reservedHigh[addr]
	if !ok {
		return nil
	}
	if hi&m[0] != m[0] || lo&m[1] != m[1] {
		return ErrResponse
	}
	return nil
}
