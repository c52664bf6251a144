package compositor

// Geometry is an overlay surface's target placement in display pixel space:
// position and size in device pixels with a top-left-anchored scale
// transform, plus opacity.
type Geometry struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ScaleX  float64 `json:"scaleX"`
	ScaleY  float64 `json:"scaleY"`
	Opacity float64 `json:"opacity"`
}

// OverlaySurface hosts one web layer's live content. The content source is
// fixed at creation; a surface is repositioned every frame and destroyed only
// when the engine shuts down.
type OverlaySurface interface {
	// Reposition moves and scales the surface to the given display-space
	// geometry.
	Reposition(g Geometry) error
	// Channel returns the surface's message channel for timeline
	// synchronization pushes.
	Channel() MessageChannel
	// Destroy releases the surface's resources.
	Destroy() error
}

// MessageChannel delivers payloads into an overlay's execution context.
// Sends are fire-and-forget: no acknowledgment is awaited and delivery order
// is the only guarantee.
type MessageChannel interface {
	Send(payload any) error
}

// SurfaceFactory creates overlay surfaces. Implementations decide what a
// surface is: an iframe-equivalent in a browser shell, a websocket-connected
// pane, or an in-memory fake.
type SurfaceFactory interface {
	NewSurface(layerID, source string) (OverlaySurface, error)
}

// FrameMessage is the per-frame synchronization push telling an overlay's
// content what instant of the timeline is currently visible.
type FrameMessage struct {
	Type  string  `json:"type"`
	Frame int     `json:"frame"`
	Time  float64 `json:"time"`
	FPS   float64 `json:"fps"`
}

// FrameMessageType is the well-known type tag of FrameMessage.
const FrameMessageType = "vidra_frame"
