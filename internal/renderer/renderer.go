package renderer

import (
	"errors"
	"fmt"
)

// FrameRenderer is the service boundary to the pixel producer. Given a
// compiled project and a frame index it returns raw RGBA data; it also derives
// project metadata and owns the shared asset cache. Implementations may be
// CPU rasterizers, GPU pipelines, or remote renderers; the playback engine
// does not care.
type FrameRenderer interface {
	// Compile turns project source into a renderer-ready Project.
	Compile(source string) (*Project, error)

	// Metadata derives immutable project metadata. totalFrames is
	// round(totalDuration * fps) and never less than 1.
	Metadata(p *Project) ProjectMetadata

	// Render produces the RGBA pixel buffer for one frame,
	// length width*height*4.
	Render(p *Project, frame int) ([]byte, error)

	// LoadAsset registers raw asset bytes in the renderer's cache under the
	// given id. Subsequent renders referencing the id pick it up.
	LoadAsset(id string, data []byte) error

	// WebLayerPlacements returns the per-frame placement list for all web
	// layers visible at the given frame, in draw order.
	WebLayerPlacements(p *Project, frame int) []WebLayerPlacement
}

// StateVars is implemented by renderers that keep numeric runtime variables
// for interactive expressions.
type StateVars interface {
	SetVar(name string, value float64)
	Var(name string) (float64, bool)
	VarsSnapshot() map[string]float64
}

// PointerState is implemented by renderers that track the current mouse
// position for interactive expressions. The position does not affect pixel
// output; it is plumbing that expressions and event handlers read.
type PointerState interface {
	SetMousePosition(x, y float64)
	MousePosition() (x, y float64)
}

// ClickDispatcher is implemented by renderers that can hit-test a click
// against the layer stack at a given frame.
type ClickDispatcher interface {
	DispatchClick(p *Project, frame int, x, y float64) (layerID string, handled bool)
}

// ErrNilProject is returned when a renderer operation is given no project.
var ErrNilProject = errors.New("renderer: nil project")

// RenderError reports that a specific frame failed to produce pixels. It is
// transient: playback continues and the failure is surfaced to observers.
type RenderError struct {
	Frame int
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render frame %d: %v", e.Frame, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// AssetError reports that asset bytes were unavailable or unreadable. It
// surfaces only at the call site of the asset load.
type AssetError struct {
	ID  string
	Err error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %q: %v", e.ID, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }
