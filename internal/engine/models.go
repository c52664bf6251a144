package engine

import (
	"errors"

	"vidra-player/internal/renderer"
)

// PlaybackState is the controller's lifecycle state. It is owned exclusively
// by the PlaybackController and mutated only through its public operations;
// observers are notified on every transition.
type PlaybackState string

const (
	StateIdle    PlaybackState = "idle"    // no project loaded
	StateLoading PlaybackState = "loading" // project metadata being resolved
	StatePlaying PlaybackState = "playing" // frame index advancing
	StatePaused  PlaybackState = "paused"  // project ready, not advancing
	StateStopped PlaybackState = "stopped" // frame reset to 0, not advancing
)

// Loaded reports whether a project is available in this state.
func (s PlaybackState) Loaded() bool {
	switch s {
	case StatePlaying, StatePaused, StateStopped:
		return true
	}
	return false
}

var (
	// ErrNotInitialized is returned by playback operations invoked before
	// Init completes. Fatal to the call, not to the instance.
	ErrNotInitialized = errors.New("engine not initialized: call Init first")

	// ErrNoProject is returned by operations that need a loaded project.
	ErrNoProject = errors.New("no project loaded")

	// ErrInvalidState is returned when an operation is not valid in the
	// current playback state.
	ErrInvalidState = errors.New("operation not valid in current playback state")

	// ErrUnsupported is returned when the loaded renderer does not provide
	// an optional capability (state vars, click dispatch).
	ErrUnsupported = errors.New("renderer does not support this operation")
)

// Observer receives engine events. All transitions are exhaustively
// matchable: one method per event instead of optionally-present callbacks.
// Observers are invoked on the engine's execution context and must not block.
type Observer interface {
	// OnReady fires once per successful load, after the first frame has
	// been rendered.
	OnReady(meta renderer.ProjectMetadata)
	// OnFrame fires for every rendered frame with its index and timeline
	// time in seconds.
	OnFrame(frame int, time float64)
	// OnStateChange fires on every playback state transition.
	OnStateChange(old, new PlaybackState)
	// OnError receives all errors funneled out of the tick loop as well as
	// load and render failures.
	OnError(err error)
}

// FuncObserver adapts optional callbacks to the Observer interface. Nil
// fields are skipped.
type FuncObserver struct {
	Ready       func(meta renderer.ProjectMetadata)
	Frame       func(frame int, time float64)
	StateChange func(old, new PlaybackState)
	Error       func(err error)
}

func (o *FuncObserver) OnReady(meta renderer.ProjectMetadata) {
	if o.Ready != nil {
		o.Ready(meta)
	}
}

func (o *FuncObserver) OnFrame(frame int, time float64) {
	if o.Frame != nil {
		o.Frame(frame, time)
	}
}

func (o *FuncObserver) OnStateChange(old, new PlaybackState) {
	if o.StateChange != nil {
		o.StateChange(old, new)
	}
}

func (o *FuncObserver) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

// FrameSink is the compositor hook: the controller announces project loads
// and every rendered frame so overlay surfaces can track the timeline.
type FrameSink interface {
	ProjectLoaded(p *renderer.Project, meta renderer.ProjectMetadata)
	FrameRendered(frame int)
}
