package compositor

import (
	"log/slog"
	"sync"

	"vidra-player/internal/platform/metrics"
	"vidra-player/internal/renderer"
)

// RenderStrategy is the escape hatch for hosts that want to capture web
// layers differently, e.g. rasterize them into the pixel buffer instead of
// displaying live overlays. When registered, the compositor delegates to it
// per layer per frame and performs no placement of its own.
type RenderStrategy interface {
	RenderLayer(p *renderer.Project, placement renderer.WebLayerPlacement, frame int) error
}

// Compositor bridges frame-accurate web-layer placement data, expressed in
// native project pixel space, to overlay surfaces positioned in display pixel
// space. It implements engine.FrameSink.
//
// Surfaces are created lazily on a layer's first appearance and kept for the
// life of the engine instance; a layer briefly absent from later frames keeps
// its surface and is simply repositioned when it returns.
type Compositor struct {
	factory  SurfaceFactory
	rend     renderer.FrameRenderer
	log      *slog.Logger
	met      *metrics.Metrics
	strategy RenderStrategy

	mu       sync.Mutex
	project  *renderer.Project
	meta     renderer.ProjectMetadata
	displayW float64
	displayH float64
	surfaces map[string]OverlaySurface
}

// New returns a Compositor creating surfaces with the given factory and
// fetching placements from rend. Metrics may be nil.
func New(factory SurfaceFactory, rend renderer.FrameRenderer, log *slog.Logger, met *metrics.Metrics) *Compositor {
	if log == nil {
		log = slog.Default()
	}
	return &Compositor{
		factory:  factory,
		rend:     rend,
		log:      log,
		met:      met,
		surfaces: make(map[string]OverlaySurface),
	}
}

// SetStrategy registers a custom render strategy. Pass nil to restore
// default overlay placement.
func (c *Compositor) SetStrategy(s RenderStrategy) {
	c.mu.Lock()
	c.strategy = s
	c.mu.Unlock()
}

// SetDisplaySize records the rendered surface's current display size so the
// native→display scale ratio stays correct under responsive layouts. Call it
// from the host's resize handler.
func (c *Compositor) SetDisplaySize(w, h float64) {
	c.mu.Lock()
	c.displayW, c.displayH = w, h
	c.mu.Unlock()
}

// ProjectLoaded implements engine.FrameSink. Existing surfaces survive a
// reload; only geometry and timing change.
func (c *Compositor) ProjectLoaded(p *renderer.Project, meta renderer.ProjectMetadata) {
	c.mu.Lock()
	c.project = p
	c.meta = meta
	if c.displayW == 0 || c.displayH == 0 {
		c.displayW, c.displayH = float64(meta.Width), float64(meta.Height)
	}
	c.mu.Unlock()
}

// FrameRendered implements engine.FrameSink: fetch this frame's placement
// list, update overlay geometry, and push the timeline position to every
// overlay's execution context. Surface errors are logged and never block
// frame production.
func (c *Compositor) FrameRendered(frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.project == nil {
		return
	}

	placements := c.rend.WebLayerPlacements(c.project, frame)

	if c.strategy != nil {
		for _, pl := range placements {
			if err := c.strategy.RenderLayer(c.project, pl, frame); err != nil {
				c.log.Warn("render strategy failed",
					slog.String("layer", pl.ID),
					slog.Int("frame", frame),
					slog.String("error", err.Error()))
			}
		}
		return
	}

	sx := c.displayW / float64(c.meta.Width)
	sy := c.displayH / float64(c.meta.Height)

	msg := FrameMessage{
		Type:  FrameMessageType,
		Frame: frame,
		Time:  float64(frame) / c.meta.FPS,
		FPS:   c.meta.FPS,
	}

	for _, pl := range placements {
		surf, ok := c.surfaces[pl.ID]
		if !ok {
			var err error
			surf, err = c.factory.NewSurface(pl.ID, pl.Source)
			if err != nil {
				c.log.Warn("overlay surface creation failed",
					slog.String("layer", pl.ID),
					slog.String("error", err.Error()))
				continue
			}
			c.surfaces[pl.ID] = surf
			if c.met != nil {
				c.met.SetActiveOverlays(len(c.surfaces))
			}
			c.log.Debug("overlay surface created",
				slog.String("layer", pl.ID),
				slog.String("source", pl.Source))
		}

		g := Geometry{
			X:       pl.X * sx,
			Y:       pl.Y * sy,
			Width:   pl.Width,
			Height:  pl.Height,
			ScaleX:  pl.ScaleX * sx,
			ScaleY:  pl.ScaleY * sy,
			Opacity: pl.Opacity,
		}
		if err := surf.Reposition(g); err != nil {
			c.log.Warn("overlay reposition failed",
				slog.String("layer", pl.ID),
				slog.String("error", err.Error()))
			continue
		}

		if err := surf.Channel().Send(msg); err != nil {
			c.log.Debug("overlay frame push failed",
				slog.String("layer", pl.ID),
				slog.String("error", err.Error()))
		}
	}
}

// SurfaceCount returns the number of live overlay surfaces.
func (c *Compositor) SurfaceCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.surfaces)
}

// Close destroys every overlay surface. Only for engine shutdown.
func (c *Compositor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, s := range c.surfaces {
		if err := s.Destroy(); err != nil {
			c.log.Warn("overlay destroy failed",
				slog.String("layer", id),
				slog.String("error", err.Error()))
		}
		delete(c.surfaces, id)
	}
	if c.met != nil {
		c.met.SetActiveOverlays(0)
	}
}
