// Package mcp4xxx constants: register sub-addresses, command opcodes and
// response masks for the MCP413X/415X/423X/425X (volatile) and
// MCP414X/416X/424X/426X (non-volatile) digital potentiometer families.
package mcp4xxx

const (
	// --- Register sub-addresses (4-bit) ---

	regWiper0   = 0x00 // volatile wiper 0
	regWiper1   = 0x01 // volatile wiper 1
	regNVWiper0 = 0x02 // non-volatile wiper 0 (EEPROM-backed models only)
	regNVWiper1 = 0x03 // non-volatile wiper 1
	regTCON     = 0x04 // terminal control
	regStatus   = 0x05 // status (read-only)

	// --- Command opcodes (2-bit) ---

	cmdWrite     = 0b00
	cmdIncrement = 0b01
	cmdDecrement = 0b10
	cmdRead      = 0b11

	// --- STATUS register bits ---

	statusWP       = 1 << 0 // EEPROM write protect pin state
	statusSHDN     = 1 << 1 // hardware SHDN pin active
	statusWL0      = 1 << 2 // wiper 0 lock
	statusWL1      = 1 << 3 // wiper 1 lock
	statusEEWA     = 1 << 4 // EEPROM write cycle active

	// --- TCON per-channel nibble bits ---

	tconB   = 1 << 0 // terminal B connected
	tconW   = 1 << 1 // wiper connected
	tconA   = 1 << 2 // terminal A connected
	tconHW  = 1 << 3 // set = normal operation, clear = forced shutdown
	tconAll = tconHW | tconA | tconW | tconB
)

// Reserved bits that read back high, used to validate read responses.
// Index is the register sub-address; {hiMask, loMask} must be set in the
// raw 16-bit readout.
var reservedHigh = map[byte][2]byte{
	regStatus: {0x01, 0xE0},
	regTCON:   {0x01, 0x00},
}
