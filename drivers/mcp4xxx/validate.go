package mcp4xxx

import "errors"

// Sentinel errors (TinyGo-safe; no fmt).
var (
	ErrUnknownModel    = errors.New("unknown potentiometer model")
	ErrBadResistance   = errors.New("total resistance not an available grade")
	ErrBadCircuit      = errors.New("negative limiter or load resistance")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrWriteProtected  = errors.New("write protected")
	ErrUnknownChannel  = errors.New("unknown channel")
	ErrStaleState      = errors.New("wiper cache not synced, refresh required")
	ErrTransport       = errors.New("spi transport failure")
	ErrCommand         = errors.New("command rejected by device")
	ErrResponse        = errors.New("malformed device response")
	ErrNotNonVolatile  = errors.New("model has no non-volatile wiper memory")
)
