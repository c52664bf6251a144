// Package bridge is the read/write contract between embedded interactive
// content and whatever is hosting it. The same piece of content must be
// inspectable free-running on a developer's screen and mechanically captured
// frame-by-frame by the engine, without branching its own logic; the bridge
// hides which of the two is happening.
package bridge

import (
	"time"

	"vidra-player/internal/engine"
)

// DefaultFPS is the frame rate a standalone bridge reports when no harness
// is driving it.
const DefaultFPS = 60.0

// HarnessFrame is the harness's latest timeline snapshot.
type HarnessFrame struct {
	Frame int
	Time  float64
	FPS   float64
	Vars  map[string]float64
}

// Harness is the driving side of the bridge, injected at construction
// instead of read from ambient global state. An inactive harness is treated
// the same as an absent one.
type Harness interface {
	// Active reports whether the harness is currently driving content.
	Active() bool
	// Snapshot returns the latest timeline position. Called on every
	// bridge read; must be non-blocking.
	Snapshot() HarnessFrame
	// Emit receives a value pushed out by the content.
	Emit(key string, value float64)
}

// Bridge lets content discover whether it is being driven by a capture
// harness and read the driving frame/time/fps/variables, or emit values back
// out. Reads always return the latest available snapshot; there is no
// queuing.
type Bridge struct {
	harness Harness
	clock   engine.Clock
	start   time.Time
}

// New returns a bridge for the given harness; pass nil for standalone
// operation. A nil clock defaults to real time.
func New(harness Harness, clock engine.Clock) *Bridge {
	if clock == nil {
		clock = engine.DefaultClock()
	}
	return &Bridge{
		harness: harness,
		clock:   clock,
		start:   clock.Now(),
	}
}

// Capturing reports whether a harness is actively driving this bridge.
func (b *Bridge) Capturing() bool {
	return b.driven()
}

// Frame returns the driving frame index, or 0 standalone.
func (b *Bridge) Frame() int {
	if b.driven() {
		return b.harness.Snapshot().Frame
	}
	return 0
}

// Time returns the driving timeline time, or wall-clock seconds since bridge
// construction when standalone.
func (b *Bridge) Time() float64 {
	if b.driven() {
		return b.harness.Snapshot().Time
	}
	return b.clock.Now().Sub(b.start).Seconds()
}

// FPS returns the driving frame rate, or DefaultFPS standalone.
func (b *Bridge) FPS() float64 {
	if b.driven() {
		return b.harness.Snapshot().FPS
	}
	return DefaultFPS
}

// Vars returns the harness-provided variables, or an empty map standalone.
// The map is a copy; mutating it has no effect.
func (b *Bridge) Vars() map[string]float64 {
	if b.driven() {
		src := b.harness.Snapshot().Vars
		out := make(map[string]float64, len(src))
		for k, v := range src {
			out[k] = v
		}
		return out
	}
	return map[string]float64{}
}

// Emit forwards a value to the harness's sink; it is a no-op standalone.
func (b *Bridge) Emit(key string, value float64) {
	if b.driven() {
		b.harness.Emit(key, value)
	}
}

func (b *Bridge) driven() bool {
	return b.harness != nil && b.harness.Active()
}
