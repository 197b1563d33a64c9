package sim

import (
	"sync"

	"tinygo.org/x/drivers"

	"digipot-go/errcode"
	"digipot-go/services/hal/internal/core"
)

// Registry is an in-memory core.ResourceRegistry: SPI buses are added up
// front, GPIO pins are created on first claim. Claims are exclusive.
type Registry struct {
	mu        sync.Mutex
	spis      map[core.ResourceID]core.SPIOwner
	spiOwner  map[core.ResourceID]string
	pins      map[int]*Pin
	pinOwner  map[int]string
}

func NewRegistry() *Registry {
	return &Registry{
		spis:     map[core.ResourceID]core.SPIOwner{},
		spiOwner: map[core.ResourceID]string{},
		pins:     map[int]*Pin{},
		pinOwner: map[int]string{},
	}
}

// AddSPI registers a bus (typically a *Chip) under an id like "spi0".
// The id is a plain string so callers outside the HAL tree can use it.
func (r *Registry) AddSPI(id string, spi drivers.SPI) {
	r.mu.Lock()
	r.spis[core.ResourceID(id)] = spi
	r.mu.Unlock()
}

func (r *Registry) ClaimSPI(devID string, id core.ResourceID) (core.SPIOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bus, ok := r.spis[id]
	if !ok {
		return nil, errcode.UnknownBus
	}
	if owner, taken := r.spiOwner[id]; taken && owner != devID {
		return nil, errcode.BusInUse
	}
	r.spiOwner[id] = devID
	return bus, nil
}

func (r *Registry) ReleaseSPI(devID string, id core.ResourceID) {
	r.mu.Lock()
	if r.spiOwner[id] == devID {
		delete(r.spiOwner, id)
	}
	r.mu.Unlock()
}

func (r *Registry) ClaimGPIO(devID string, pin int) (core.GPIOHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, taken := r.pinOwner[pin]; taken && owner != devID {
		return nil, errcode.PinInUse
	}
	p, ok := r.pins[pin]
	if !ok {
		p = &Pin{num: pin, level: true}
		r.pins[pin] = p
	}
	r.pinOwner[pin] = devID
	return p, nil
}

func (r *Registry) ReleaseGPIO(devID string, pin int) {
	r.mu.Lock()
	if r.pinOwner[pin] == devID {
		delete(r.pinOwner, pin)
	}
	r.mu.Unlock()
}

// Pin is a simulated output pin.
type Pin struct {
	mu    sync.Mutex
	num   int
	level bool
}

func (p *Pin) Number() int { return p.num }

func (p *Pin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *Pin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

func (p *Pin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}
