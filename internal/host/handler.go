// Package host exposes the playback engine's control surface to callers:
// a chi HTTP API mirroring the controller's operations and a websocket feed
// for observer events and overlay synchronization.
package host

import (
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"

	"vidra-player/internal/compositor"
	"vidra-player/internal/engine"
	"vidra-player/internal/platform/metrics"
	"vidra-player/internal/renderer"

	"github.com/go-chi/chi/v5"
)

// Handler exposes playback HTTP endpoints using go-chi.
type Handler struct {
	ctrl    *engine.Controller
	comp    *compositor.Compositor
	surface *engine.MemorySurface
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler over the given controller. Compositor,
// surface and metrics may be nil to disable the related endpoints/recording
// (e.g. in tests).
func NewHandler(ctrl *engine.Controller, comp *compositor.Compositor, surface *engine.MemorySurface, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{ctrl: ctrl, comp: comp, surface: surface, log: log, metrics: m}
}

// statusResponse is the body of GET /playback/status.
type statusResponse struct {
	State    engine.PlaybackState      `json:"state"`
	Frame    int                       `json:"frame"`
	Time     float64                   `json:"time"`
	Metadata *renderer.ProjectMetadata `json:"metadata,omitempty"`
}

// Status handles GET /playback/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		State: h.ctrl.State(),
		Frame: h.ctrl.CurrentFrame(),
		Time:  h.ctrl.CurrentTime(),
	}
	if meta, ok := h.ctrl.Metadata(); ok {
		resp.Metadata = &meta
	}
	writeJSON(w, http.StatusOK, resp)
}

// Play handles POST /playback/play.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.ctrl.Play())
}

// Pause handles POST /playback/pause.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.ctrl.Pause())
}

// Stop handles POST /playback/stop.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.ctrl.Stop())
}

// seekRequest targets either a frame index or a timeline time in seconds.
type seekRequest struct {
	Frame *int     `json:"frame,omitempty"`
	Time  *float64 `json:"time,omitempty"`
}

// Seek handles POST /playback/seek. Body: {"frame": 42} or {"time": 1.75}.
func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid seek body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	switch {
	case req.Frame != nil:
		h.respond(w, h.ctrl.SeekToFrame(*req.Frame))
	case req.Time != nil:
		h.respond(w, h.ctrl.SeekToTime(*req.Time))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

// loadRequest carries project source for LoadProject.
type loadRequest struct {
	Source string `json:"source"`
}

// LoadProject handles POST /project/load. Body: {"source": "<project IR>"}.
func (h *Handler) LoadProject(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Source == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.ctrl.LoadSource(req.Source); err != nil {
		h.fail(w, err)
		return
	}
	h.log.Info("project loaded via api")
	w.WriteHeader(http.StatusOK)
}

// LoadAsset handles POST /assets/{asset_id} with raw asset bytes as body.
func (h *Handler) LoadAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "asset_id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.ctrl.LoadAsset(id, data); err != nil {
		var ae *renderer.AssetError
		if errors.As(err, &ae) {
			h.log.Info("asset rejected", slog.String("asset", id), slog.String("error", err.Error()))
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Frame handles GET /playback/frame.png: the last rendered frame as PNG.
func (h *Handler) Frame(w http.ResponseWriter, r *http.Request) {
	if h.surface == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	img, ok := h.surface.Image()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		h.log.Error("frame encode failed", slog.String("error", err.Error()))
	}
}

// resizeRequest is the body of POST /display.
type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Resize handles POST /display: the host reports a new rendered-surface
// display size so overlays stay pixel-aligned.
func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Width <= 0 || req.Height <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if h.comp != nil {
		h.comp.SetDisplaySize(req.Width, req.Height)
	}
	w.WriteHeader(http.StatusOK)
}

// clickRequest is the body of POST /playback/click.
type clickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Click handles POST /playback/click: hit-test a click against the current
// frame. Responds {"handled": bool, "layerId": string|null}.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id, handled, err := h.ctrl.DispatchClick(req.X, req.Y)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := map[string]any{"handled": handled}
	if handled {
		resp["layerId"] = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetMouse handles POST /playback/mouse: record the pointer position for
// interactive expressions. Shares the click request shape.
func (h *Handler) SetMouse(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.ctrl.SetMousePosition(req.X, req.Y); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mouse handles GET /playback/mouse.
func (h *Handler) Mouse(w http.ResponseWriter, r *http.Request) {
	x, y, err := h.ctrl.MousePosition()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"x": x, "y": y})
}

// varRequest is the body of POST /vars/{name}.
type varRequest struct {
	Value float64 `json:"value"`
}

// SetVar handles POST /vars/{name}.
func (h *Handler) SetVar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req varRequest
	if name == "" || json.NewDecoder(r.Body).Decode(&req) != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.ctrl.SetVar(name, req.Value); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetVar handles GET /vars/{name}. Responds {"value": number|null}.
func (h *Handler) GetVar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	v, ok, err := h.ctrl.Var(name)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := map[string]any{"value": nil}
	if ok {
		resp["value"] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

// Captions handles POST /project/layers/{layer_id}/captions.
// Body: JSON array of {start_s, end_s, text}.
func (h *Handler) Captions(w http.ResponseWriter, r *http.Request) {
	layerID := chi.URLParam(r, "layer_id")
	var segments []renderer.CaptionSegment
	if layerID == "" || json.NewDecoder(r.Body).Decode(&segments) != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.ctrl.ApplyCaptionSegments(layerID, segments); err != nil {
		h.fail(w, err)
		return
	}
	h.log.Info("captions materialized", slog.String("layer", layerID), slog.Int("segments", len(segments)))
	w.WriteHeader(http.StatusOK)
}

// removeBackgroundRequest is the body of POST /project/layers/{layer_id}/background.
type removeBackgroundRequest struct {
	AssetID string `json:"assetId"`
}

// RemoveBackground handles POST /project/layers/{layer_id}/background: swap
// in a processed asset produced by an external background-removal service.
func (h *Handler) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	layerID := chi.URLParam(r, "layer_id")
	var req removeBackgroundRequest
	if layerID == "" || json.NewDecoder(r.Body).Decode(&req) != nil || req.AssetID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.ctrl.ApplyRemoveBackground(layerID, req.AssetID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// respond writes 200 on nil error, otherwise maps the error to a status.
func (h *Handler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// fail maps controller errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotInitialized):
		h.writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, engine.ErrNoProject):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, engine.ErrInvalidState):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, engine.ErrUnsupported):
		h.writeError(w, http.StatusNotImplemented, err)
	default:
		h.writeError(w, http.StatusUnprocessableEntity, err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.log.Debug("request failed", slog.Int("status", status), slog.String("error", err.Error()))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
