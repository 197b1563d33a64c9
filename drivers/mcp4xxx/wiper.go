package mcp4xxx

// SyncState tracks how much the cached wiper position can be trusted.
type SyncState uint8

const (
	StateUnknown SyncState = iota // no confirmed hardware position
	StateSynced                   // cache matches last known hardware state
	StateDirty                    // write issued, not yet confirmed
)

func (s SyncState) String() string {
	switch s {
	case StateSynced:
		return "synced"
	case StateDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// Wiper is one channel of a potentiometer: cached position, sync state and
// a host-side write protect. All bus traffic goes through the owning Device
// so transactions for one chip never interleave.
//
// The cache is deliberate: Position and Value never touch the bus, so
// repeated reads are cheap and side-effect-free. Refresh re-reads the chip
// when the wiper may have moved behind our back (power cycle, up/down pins).
type Wiper struct {
	dev     *Device
	channel int
	ladder  Ladder

	// Guarded by dev.mu.
	pos    int // chip code, pre-inversion
	state  SyncState
	locked bool
	invert bool
}

func (w *Wiper) Channel() int   { return w.channel }
func (w *Wiper) Ladder() Ladder { return w.ladder }

func (w *Wiper) State() SyncState {
	w.dev.mu.Lock()
	defer w.dev.mu.Unlock()
	return w.state
}

func (w *Wiper) Locked() bool {
	w.dev.mu.Lock()
	defer w.dev.mu.Unlock()
	return w.locked
}

// SetLocked toggles the host-side write protect. It never touches the bus:
// the chip's own WP/WL protection is a pin, not a command, and is only
// reported back via Status.
func (w *Wiper) SetLocked(locked bool) {
	w.dev.mu.Lock()
	w.locked = locked
	w.dev.mu.Unlock()
}

// SetInvert flips the direction of travel: position 0 becomes full scale.
func (w *Wiper) SetInvert(invert bool) {
	w.dev.mu.Lock()
	w.invert = invert
	w.dev.mu.Unlock()
}

func (w *Wiper) Invert() bool {
	w.dev.mu.Lock()
	defer w.dev.mu.Unlock()
	return w.invert
}

// user/chip code mapping; callers hold dev.mu.
func (w *Wiper) toChip(pos int) int {
	if w.invert {
		return w.ladder.MaxPos - pos
	}
	return pos
}

func (w *Wiper) fromChip(pos int) int { return w.toChip(pos) } // involution

// Position returns the cached position. It fails with ErrStaleState while
// the cache is unconfirmed (Unknown or Dirty); Refresh re-syncs it.
func (w *Wiper) Position() (int, error) {
	w.dev.mu.Lock()
	defer w.dev.mu.Unlock()
	if w.state != StateSynced {
		return 0, ErrStaleState
	}
	return w.fromChip(w.pos), nil
}

// Value converts the cached position into the requested unit.
func (w *Wiper) Value(mode ValueMode) (float64, error) {
	pos, err := w.Position()
	if err != nil {
		return 0, err
	}
	return w.ladder.Value(pos, mode), nil
}

// Set moves the wiper to a value in the requested unit. The returned
// position is the one applied; clamped reports range coercion. With clamp
// false an out-of-range value fails with ErrValueOutOfRange before any bus
// access. Writing the already-synced position is a no-op that still
// succeeds.
func (w *Wiper) Set(value float64, mode ValueMode, clamp bool) (pos int, clamped bool, err error) {
	pos, clamped = w.ladder.PosFromValue(value, mode)
	if clamped && !clamp {
		return 0, true, ErrValueOutOfRange
	}
	if err := w.dev.writeWiper(w, pos); err != nil {
		return 0, clamped, err
	}
	return pos, clamped, nil
}

// SetPosition is Set in raw mode without clamping.
func (w *Wiper) SetPosition(pos int) error {
	_, _, err := w.Set(float64(pos), Raw, false)
	return err
}

// Refresh reads the wiper position back from the chip and re-syncs the
// cache. This is the only way out of the Unknown and Dirty states.
func (w *Wiper) Refresh() error {
	_, err := w.dev.readWiper(w)
	return err
}

// Increment steps the wiper one position towards full scale.
// The chip-side pulse is not idempotent, so it is never retried.
func (w *Wiper) Increment() error { return w.dev.stepWiper(w, +1) }

// Decrement steps the wiper one position towards zero.
func (w *Wiper) Decrement() error { return w.dev.stepWiper(w, -1) }
