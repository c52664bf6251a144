package renderer

// ProjectMetadata is derived once from a compiled project at load time and is
// immutable for the lifetime of that project.
type ProjectMetadata struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	FPS           float64 `json:"fps"`
	TotalFrames   int     `json:"totalFrames"`
	TotalDuration float64 `json:"totalDuration"`
	SceneCount    int     `json:"sceneCount"`
}

// WebLayerPlacement is a per-frame snapshot describing where a web layer's
// overlay surface must sit in native project pixel space. Recomputed every
// frame; never persisted.
type WebLayerPlacement struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Opacity float64 `json:"opacity"`
	ScaleX  float64 `json:"scaleX"`
	ScaleY  float64 `json:"scaleY"`
}

// LayerKind enumerates the content types the software renderer understands.
type LayerKind string

const (
	KindEmpty       LayerKind = "empty"
	KindSolid       LayerKind = "solid"
	KindImage       LayerKind = "image"
	KindText        LayerKind = "text"
	KindWeb         LayerKind = "web"
	KindAutoCaption LayerKind = "autocaption"
)

// EffectRemoveBackground marks an image layer whose background is to be
// removed by an external service and patched back in.
const EffectRemoveBackground = "removeBackground"

// Settings holds the project-wide output parameters.
type Settings struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
}

// Project is the compiled, renderer-ready representation of a video project.
// Callers outside this package treat it as opaque: they obtain one from
// Compile and hand it back to the renderer.
type Project struct {
	Settings Settings `json:"settings"`
	Scenes   []Scene  `json:"scenes"`
}

// Scene is a fixed-duration span of the timeline with a background color and
// an ordered layer stack (later layers draw on top).
type Scene struct {
	ID         string  `json:"id"`
	Duration   float64 `json:"duration"`
	Background string  `json:"background,omitempty"`
	Layers     []Layer `json:"layers,omitempty"`
}

// Layer is one node of a scene's layer tree.
type Layer struct {
	ID   string    `json:"id"`
	Kind LayerKind `json:"kind"`

	// Content fields; which ones apply depends on Kind.
	Color    string  `json:"color,omitempty"`    // solid, text
	AssetID  string  `json:"assetId,omitempty"`  // image
	Text     string  `json:"text,omitempty"`     // text
	FontSize float64 `json:"fontSize,omitempty"` // text, autocaption
	Source   string  `json:"source,omitempty"`   // web

	// Transform in native project pixels, anchored at the top-left corner.
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Opacity float64 `json:"opacity"`
	ScaleX  float64 `json:"scaleX"`
	ScaleY  float64 `json:"scaleY"`

	Effects    []string    `json:"effects,omitempty"`
	Animations []Animation `json:"animations,omitempty"`
	Children   []Layer     `json:"children,omitempty"`
}

// Animation animates a single property of its layer with linear keyframe
// interpolation. Keyframe times are relative to Delay.
type Animation struct {
	Property  string     `json:"property"`
	Delay     float64    `json:"delay,omitempty"`
	Keyframes []Keyframe `json:"keyframes"`
}

// Keyframe is a (time, value) pair on an animation track.
type Keyframe struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// CaptionSegment is one externally-transcribed caption span, used to
// materialize autocaption layers.
type CaptionSegment struct {
	StartS float64 `json:"start_s"`
	EndS   float64 `json:"end_s"`
	Text   string  `json:"text"`
}
