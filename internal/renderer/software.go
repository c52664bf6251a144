package renderer

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Software is a deterministic CPU implementation of FrameRenderer. It exists
// so the engine can run without a GPU pipeline: solid fills, cached image
// assets, bitmap text, and linear keyframe animation. Web layers contribute
// placements, never pixels; their content lives on overlay surfaces.
type Software struct {
	assets *AssetStore

	varsMu sync.RWMutex
	vars   map[string]float64
	mouseX float64
	mouseY float64
}

// NewSoftware returns a software renderer backed by the given asset store.
// A nil store gets a fresh empty one.
func NewSoftware(assets *AssetStore) *Software {
	if assets == nil {
		assets = NewAssetStore()
	}
	return &Software{
		assets: assets,
		vars:   make(map[string]float64),
	}
}

// Compile parses project source (IR JSON; the DSL front end is an external
// collaborator) and validates it. Zero layer scales default to 1, as does a
// zero opacity; hide a layer with an opacity animation instead.
func (r *Software) Compile(source string) (*Project, error) {
	var p Project
	if err := json.Unmarshal([]byte(source), &p); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if p.Settings.Width <= 0 || p.Settings.Height <= 0 {
		return nil, fmt.Errorf("compile: invalid output size %dx%d", p.Settings.Width, p.Settings.Height)
	}
	if p.Settings.FPS <= 0 {
		return nil, fmt.Errorf("compile: invalid fps %v", p.Settings.FPS)
	}
	if len(p.Scenes) == 0 {
		return nil, fmt.Errorf("compile: project has no scenes")
	}
	for i := range p.Scenes {
		if p.Scenes[i].Duration <= 0 {
			return nil, fmt.Errorf("compile: scene %q has non-positive duration", p.Scenes[i].ID)
		}
		normalizeLayers(p.Scenes[i].Layers)
	}
	return &p, nil
}

func normalizeLayers(layers []Layer) {
	for i := range layers {
		l := &layers[i]
		if l.ScaleX == 0 {
			l.ScaleX = 1
		}
		if l.ScaleY == 0 {
			l.ScaleY = 1
		}
		if l.Opacity == 0 {
			l.Opacity = 1
		}
		normalizeLayers(l.Children)
	}
}

// Metadata implements FrameRenderer.
func (r *Software) Metadata(p *Project) ProjectMetadata {
	total := 0.0
	for _, s := range p.Scenes {
		total += s.Duration
	}
	frames := int(math.Round(total * p.Settings.FPS))
	if frames < 1 {
		frames = 1
	}
	return ProjectMetadata{
		Width:         p.Settings.Width,
		Height:        p.Settings.Height,
		FPS:           p.Settings.FPS,
		TotalFrames:   frames,
		TotalDuration: total,
		SceneCount:    len(p.Scenes),
	}
}

// LoadAsset implements FrameRenderer.
func (r *Software) LoadAsset(id string, data []byte) error {
	return r.assets.Load(id, data)
}

// Render implements FrameRenderer. The buffer is width*height*4 bytes in
// RGBA order.
func (r *Software) Render(p *Project, frame int) ([]byte, error) {
	if p == nil {
		return nil, &RenderError{Frame: frame, Err: ErrNilProject}
	}
	meta := r.Metadata(p)
	if frame < 0 || frame >= meta.TotalFrames {
		return nil, &RenderError{Frame: frame, Err: fmt.Errorf("frame out of range [0,%d)", meta.TotalFrames)}
	}

	scene, sceneT := sceneAt(p, frame)
	w, h := p.Settings.Width, p.Settings.Height
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	bg := parseHexColor(scene.Background, 1.0)
	if scene.Background == "" {
		bg = color.RGBA{0, 0, 0, 255}
	}
	draw.Draw(dst, dst.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	for i := range scene.Layers {
		r.drawLayer(dst, &scene.Layers[i], sceneT)
	}

	return dst.Pix, nil
}

// WebLayerPlacements implements FrameRenderer: the computed transforms and
// bounds of all web layers visible at the given frame, in draw order.
func (r *Software) WebLayerPlacements(p *Project, frame int) []WebLayerPlacement {
	if p == nil {
		return nil
	}
	meta := r.Metadata(p)
	if frame < 0 || frame >= meta.TotalFrames {
		return nil
	}
	scene, sceneT := sceneAt(p, frame)

	var out []WebLayerPlacement
	var walk func(layers []Layer)
	walk = func(layers []Layer) {
		for i := range layers {
			l := &layers[i]
			if l.Kind == KindWeb {
				out = append(out, WebLayerPlacement{
					ID:      l.ID,
					Source:  l.Source,
					X:       evalProp(l, "x", sceneT, l.X),
					Y:       evalProp(l, "y", sceneT, l.Y),
					Width:   l.Width,
					Height:  l.Height,
					Opacity: evalProp(l, "opacity", sceneT, l.Opacity),
					ScaleX:  evalProp(l, "scaleX", sceneT, l.ScaleX),
					ScaleY:  evalProp(l, "scaleY", sceneT, l.ScaleY),
				})
			}
			walk(l.Children)
		}
	}
	walk(scene.Layers)
	return out
}

// SetVar implements StateVars.
func (r *Software) SetVar(name string, value float64) {
	r.varsMu.Lock()
	r.vars[name] = value
	r.varsMu.Unlock()
}

// Var implements StateVars.
func (r *Software) Var(name string) (float64, bool) {
	r.varsMu.RLock()
	defer r.varsMu.RUnlock()
	v, ok := r.vars[name]
	return v, ok
}

// VarsSnapshot implements StateVars; it returns a copy.
func (r *Software) VarsSnapshot() map[string]float64 {
	r.varsMu.RLock()
	defer r.varsMu.RUnlock()
	out := make(map[string]float64, len(r.vars))
	for k, v := range r.vars {
		out[k] = v
	}
	return out
}

// SetMousePosition implements PointerState.
func (r *Software) SetMousePosition(x, y float64) {
	r.varsMu.Lock()
	r.mouseX, r.mouseY = x, y
	r.varsMu.Unlock()
}

// MousePosition implements PointerState.
func (r *Software) MousePosition() (x, y float64) {
	r.varsMu.RLock()
	defer r.varsMu.RUnlock()
	return r.mouseX, r.mouseY
}

// sceneAt maps a frame index to its scene and the time offset within that
// scene. The final frame of the timeline clamps into the last scene.
func sceneAt(p *Project, frame int) (*Scene, float64) {
	t := float64(frame) / p.Settings.FPS
	start := 0.0
	for i := range p.Scenes {
		s := &p.Scenes[i]
		if t < start+s.Duration || i == len(p.Scenes)-1 {
			return s, t - start
		}
		start += s.Duration
	}
	last := &p.Scenes[len(p.Scenes)-1]
	return last, last.Duration
}

func (r *Software) drawLayer(dst *image.RGBA, l *Layer, t float64) {
	opacity := clamp01(evalProp(l, "opacity", t, l.Opacity))
	if opacity > 0 {
		x := evalProp(l, "x", t, l.X)
		y := evalProp(l, "y", t, l.Y)
		sx := evalProp(l, "scaleX", t, l.ScaleX)
		sy := evalProp(l, "scaleY", t, l.ScaleY)

		switch l.Kind {
		case KindSolid:
			fillRect(dst, x, y, l.Width*sx, l.Height*sy, parseHexColor(l.Color, opacity))
		case KindImage:
			if img, ok := r.assets.Image(l.AssetID); ok {
				drawScaled(dst, img, x, y, l.Width*sx, l.Height*sy, opacity)
			}
		case KindText:
			drawText(dst, l.Text, x, y, parseHexColor(l.Color, opacity))
		case KindWeb, KindAutoCaption, KindEmpty:
			// web layers live on overlay surfaces; unmaterialized
			// autocaptions have nothing to draw yet
		}
	}

	for i := range l.Children {
		r.drawLayer(dst, &l.Children[i], t)
	}
}

// evalProp returns the animated value of a property at time t, or base when
// the layer has no track for it. Values clamp to the first and last keyframe
// outside the track's span.
func evalProp(l *Layer, prop string, t float64, base float64) float64 {
	for i := range l.Animations {
		a := &l.Animations[i]
		if a.Property != prop || len(a.Keyframes) == 0 {
			continue
		}
		local := t - a.Delay
		kfs := a.Keyframes
		if local <= kfs[0].Time {
			return kfs[0].Value
		}
		if local >= kfs[len(kfs)-1].Time {
			return kfs[len(kfs)-1].Value
		}
		for j := 1; j < len(kfs); j++ {
			if local <= kfs[j].Time {
				a2, b2 := kfs[j-1], kfs[j]
				span := b2.Time - a2.Time
				if span <= 0 {
					return b2.Value
				}
				frac := (local - a2.Time) / span
				return a2.Value + (b2.Value-a2.Value)*frac
			}
		}
		return kfs[len(kfs)-1].Value
	}
	return base
}

func fillRect(dst *image.RGBA, x, y, w, h float64, c color.RGBA) {
	rect := image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(dst, rect, &image.Uniform{c}, image.Point{}, draw.Over)
}

// drawScaled scales src into a w×h region at (x, y) and composites it with
// the given opacity.
func drawScaled(dst *image.RGBA, src image.Image, x, y, w, h float64, opacity float64) {
	if w <= 0 || h <= 0 {
		return
	}
	tmp := image.NewRGBA(image.Rect(0, 0, int(math.Round(w)), int(math.Round(h))))
	draw.ApproxBiLinear.Scale(tmp, tmp.Bounds(), src, src.Bounds(), draw.Src, nil)

	if opacity >= 1 {
		rect := tmp.Bounds().Add(image.Pt(int(math.Round(x)), int(math.Round(y))))
		draw.Draw(dst, rect.Intersect(dst.Bounds()), tmp, image.Point{}, draw.Over)
		return
	}

	// Per-pixel source-over with a uniform extra alpha.
	ox, oy := int(math.Round(x)), int(math.Round(y))
	b := tmp.Bounds()
	for py := b.Min.Y; py < b.Max.Y; py++ {
		for px := b.Min.X; px < b.Max.X; px++ {
			dx, dy := ox+px, oy+py
			if !(image.Pt(dx, dy).In(dst.Bounds())) {
				continue
			}
			sr, sg, sb, sa := tmp.At(px, py).RGBA()
			a := float64(sa>>8) / 255.0 * opacity
			if a <= 0 {
				continue
			}
			dr, dg, db, _ := dst.At(dx, dy).RGBA()
			blend := func(s, d uint32) uint8 {
				return uint8(float64(s>>8)*a + float64(d>>8)*(1-a))
			}
			dst.SetRGBA(dx, dy, color.RGBA{
				R: blend(sr, dr),
				G: blend(sg, dg),
				B: blend(sb, db),
				A: 255,
			})
		}
	}
}

func drawText(dst *image.RGBA, text string, x, y float64, c color.RGBA) {
	if text == "" {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  &image.Uniform{c},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))+basicfont.Face7x13.Ascent),
	}
	d.DrawString(text)
}

// parseHexColor converts "#rrggbb" to RGBA with the given opacity applied to
// the alpha channel. Anything unparsable comes back black.
func parseHexColor(s string, opacity float64) color.RGBA {
	c := color.RGBA{0, 0, 0, uint8(clamp01(opacity) * 255)}
	if len(s) != 7 || s[0] != '#' {
		return c
	}
	hexToByte := func(b byte) byte {
		switch {
		case b >= '0' && b <= '9':
			return b - '0'
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10
		}
		return 0
	}
	// color.RGBA is alpha-premultiplied, so scale the channels too.
	op := clamp01(opacity)
	c.R = uint8(float64(hexToByte(s[1])<<4+hexToByte(s[2])) * op)
	c.G = uint8(float64(hexToByte(s[3])<<4+hexToByte(s[4])) * op)
	c.B = uint8(float64(hexToByte(s[5])<<4+hexToByte(s[6])) * op)
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
