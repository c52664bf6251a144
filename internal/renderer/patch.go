package renderer

import (
	"fmt"
	"strings"
)

// Patch operations rewrite a compiled project in place using externally
// produced data, without a recompile. The host does the network work
// (transcription, background removal) and feeds the result back here as a
// deterministic IR update.

// MaterializeAutoCaption replaces the pending content of an autocaption layer
// with timed text children, one per caption segment, each fading in and out
// around its span. Calling it again on an already-materialized layer is a
// no-op. Returns an error if no autocaption layer with the id exists.
func MaterializeAutoCaption(p *Project, layerID string, segments []CaptionSegment) error {
	if p == nil {
		return ErrNilProject
	}
	updated := false
	for si := range p.Scenes {
		for li := range p.Scenes[si].Layers {
			ok, err := materializeInLayer(&p.Scenes[si].Layers[li], layerID, segments)
			if err != nil {
				return err
			}
			if ok {
				updated = true
			}
		}
	}
	if !updated {
		return fmt.Errorf("no autocaption layer with id %q found", layerID)
	}
	return nil
}

func materializeInLayer(l *Layer, targetID string, segments []CaptionSegment) (bool, error) {
	if l.ID == targetID {
		if l.Kind != KindAutoCaption {
			return false, fmt.Errorf("layer %q exists but is not an autocaption layer", targetID)
		}
		if len(l.Children) > 0 {
			// Already materialized.
			return true, nil
		}

		for i, seg := range segments {
			dur := seg.EndS - seg.StartS
			if dur <= 0 {
				continue
			}
			fade := 0.06
			if half := dur / 2; half < fade {
				fade = half
			}

			child := Layer{
				ID:       fmt.Sprintf("%s_caption_%d", targetID, i),
				Kind:     KindText,
				Text:     strings.TrimSpace(seg.Text),
				Color:    l.Color,
				FontSize: l.FontSize,
				X:        l.X,
				Y:        l.Y,
				Width:    l.Width,
				Height:   l.Height,
				Opacity:  1,
				ScaleX:   l.ScaleX,
				ScaleY:   l.ScaleY,
				Animations: []Animation{{
					Property: "opacity",
					Delay:    seg.StartS,
					Keyframes: []Keyframe{
						{Time: 0, Value: 0},
						{Time: fade, Value: 1},
						{Time: maxFloat(dur-fade, fade), Value: 1},
						{Time: dur, Value: 0},
					},
				}},
			}
			l.Children = append(l.Children, child)
		}
		return true, nil
	}

	for i := range l.Children {
		ok, err := materializeInLayer(&l.Children[i], targetID, segments)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// ApplyRemoveBackgroundPatch swaps an image layer's asset for the processed
// one and strips its removeBackground effect marker. The new asset must
// already be registered with LoadAsset. Returns an error if the layer does
// not exist, is not an image layer, or carries no removeBackground effect.
func ApplyRemoveBackgroundPatch(p *Project, layerID, newAssetID string) error {
	if p == nil {
		return ErrNilProject
	}
	updated := false
	for si := range p.Scenes {
		for li := range p.Scenes[si].Layers {
			ok, err := removeBackgroundInLayer(&p.Scenes[si].Layers[li], layerID, newAssetID)
			if err != nil {
				return err
			}
			if ok {
				updated = true
			}
		}
	}
	if !updated {
		return fmt.Errorf("no layer with id %q found", layerID)
	}
	return nil
}

func removeBackgroundInLayer(l *Layer, targetID, newAssetID string) (bool, error) {
	if l.ID == targetID {
		if l.Kind != KindImage {
			return false, fmt.Errorf("layer %q is not an image layer", targetID)
		}
		has := false
		for _, e := range l.Effects {
			if e == EffectRemoveBackground {
				has = true
				break
			}
		}
		if !has {
			return false, fmt.Errorf("layer %q does not have a removeBackground effect", targetID)
		}

		l.AssetID = newAssetID
		kept := l.Effects[:0]
		for _, e := range l.Effects {
			if e != EffectRemoveBackground {
				kept = append(kept, e)
			}
		}
		l.Effects = kept
		return true, nil
	}

	for i := range l.Children {
		ok, err := removeBackgroundInLayer(&l.Children[i], targetID, newAssetID)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
