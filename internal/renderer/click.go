package renderer

// DispatchClick hit-tests a click at (x, y) in native pixel coordinates
// against the layer stack visible at the given frame, top-most layer first.
// Fully transparent layers and empty groups never receive hits.
func (r *Software) DispatchClick(p *Project, frame int, x, y float64) (string, bool) {
	if p == nil {
		return "", false
	}
	meta := r.Metadata(p)
	if frame < 0 || frame >= meta.TotalFrames {
		return "", false
	}
	scene, sceneT := sceneAt(p, frame)
	return hitTest(scene.Layers, sceneT, x, y)
}

func hitTest(layers []Layer, t, x, y float64) (string, bool) {
	// Later layers draw on top, so walk in reverse.
	for i := len(layers) - 1; i >= 0; i-- {
		l := &layers[i]

		if id, ok := hitTest(l.Children, t, x, y); ok {
			return id, true
		}

		if l.Kind == KindEmpty || l.Kind == KindAutoCaption {
			continue
		}
		if clamp01(evalProp(l, "opacity", t, l.Opacity)) <= 0 {
			continue
		}

		lx := evalProp(l, "x", t, l.X)
		ly := evalProp(l, "y", t, l.Y)
		w := l.Width * evalProp(l, "scaleX", t, l.ScaleX)
		h := l.Height * evalProp(l, "scaleY", t, l.ScaleY)
		if x >= lx && x < lx+w && y >= ly && y < ly+h {
			return l.ID, true
		}
	}
	return "", false
}
