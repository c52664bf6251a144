package bridge

import (
	"vidra-player/internal/engine"
)

// EngineHarness adapts a running PlaybackController into a Harness, so
// content hosted next to the engine is driven by the real timeline. Emitted
// values land in the renderer's state variables, where interactive
// expressions can read them back.
type EngineHarness struct {
	ctrl *engine.Controller
}

// NewEngineHarness wraps the given controller.
func NewEngineHarness(ctrl *engine.Controller) *EngineHarness {
	return &EngineHarness{ctrl: ctrl}
}

// Active implements Harness: the harness drives content whenever a project
// is loaded.
func (h *EngineHarness) Active() bool {
	return h.ctrl.State().Loaded()
}

// Snapshot implements Harness with the controller's current position.
func (h *EngineHarness) Snapshot() HarnessFrame {
	meta, _ := h.ctrl.Metadata()
	return HarnessFrame{
		Frame: h.ctrl.CurrentFrame(),
		Time:  h.ctrl.CurrentTime(),
		FPS:   meta.FPS,
		Vars:  h.ctrl.VarsSnapshot(),
	}
}

// Emit implements Harness, writing into renderer state variables. Values are
// dropped if the renderer keeps no variables.
func (h *EngineHarness) Emit(key string, value float64) {
	_ = h.ctrl.SetVar(key, value)
}
