package core

import (
	"context"

	"digipot-go/types"
)

// ---- Capability & device model ----

type CapabilitySpec struct {
	Domain string
	Kind   types.Kind
	Name   string
	Info   types.Info
}

type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	// Control handles one verb for one capability. A non-nil result is
	// sent as the reply payload; nil means a plain OK.
	Control(addr CapAddr, verb string, payload any) (any, error)
	Close() error // release claimed resources
}

// Builder input
type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}
