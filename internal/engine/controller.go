package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vidra-player/internal/platform/metrics"
	"vidra-player/internal/renderer"
)

// RendererLoader resolves the external renderer module. It is the one-shot
// await that must complete before any playback operation is valid.
type RendererLoader func(ctx context.Context) (renderer.FrameRenderer, error)

// Options configures a Controller. Loader is required; everything else has a
// sensible default.
type Options struct {
	Loader    RendererLoader
	Clock     Clock
	Scheduler Scheduler
	Output    OutputSurface
	Sink      FrameSink
	Observer  Observer
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Controller owns playback state, the tick loop, seeking, and frame-index
// bookkeeping. All public operations are safe for concurrent use; the tick
// loop itself runs on the scheduler's execution context.
//
// The frame index is the single source of truth for what the output shows.
// It advances by exactly one per accepted tick and wraps to 0 at the end of
// the timeline; playback loops indefinitely.
type Controller struct {
	loader RendererLoader
	clock  Clock
	sched  Scheduler
	out    OutputSurface
	sink   FrameSink
	obs    Observer
	log    *slog.Logger
	met    *metrics.Metrics

	mu          sync.Mutex
	initialized bool
	renderer    renderer.FrameRenderer
	project     *renderer.Project
	meta        renderer.ProjectMetadata
	state       PlaybackState
	frame       int
	lastAdvance time.Time
	cancelTick  func()
	tickGen     uint64
}

// NewController returns a Controller in the idle state. Call Init before any
// playback operation.
func NewController(opts Options) *Controller {
	c := &Controller{
		loader: opts.Loader,
		clock:  opts.Clock,
		sched:  opts.Scheduler,
		out:    opts.Output,
		sink:   opts.Sink,
		obs:    opts.Observer,
		log:    opts.Logger,
		met:    opts.Metrics,
		state:  StateIdle,
	}
	if c.clock == nil {
		c.clock = DefaultClock()
	}
	if c.sched == nil {
		c.sched = NewTimerScheduler(60)
	}
	if c.out == nil {
		c.out = discardSurface{}
	}
	if c.obs == nil {
		c.obs = &FuncObserver{}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Init loads the external renderer module. It must complete before any other
// operation; calling it twice is a no-op.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	loader := c.loader
	c.mu.Unlock()

	if loader == nil {
		return fmt.Errorf("init: no renderer loader configured")
	}
	r, err := loader(ctx)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	c.mu.Lock()
	c.renderer = r
	c.initialized = true
	c.mu.Unlock()
	c.log.Info("engine initialized")
	return nil
}

// LoadSource compiles project source and loads the result. On a compile or
// metadata failure the error goes both to the caller and the error channel,
// and the state remains loading so the caller can retry.
func (c *Controller) LoadSource(source string) error {
	c.mu.Lock()
	if err := c.canLoadLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	notes := c.setStateLocked(StateLoading)

	p, err := c.renderer.Compile(source)
	if err != nil {
		err = fmt.Errorf("load: %w", err)
		notes = append(notes, c.noteError(err))
		c.mu.Unlock()
		run(notes)
		return err
	}
	notes = append(notes, c.finishLoadLocked(p)...)
	c.mu.Unlock()
	run(notes)
	return nil
}

// LoadCompiled loads an already-compiled project, skipping the compile step.
func (c *Controller) LoadCompiled(p *renderer.Project) error {
	c.mu.Lock()
	if err := c.canLoadLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	notes := c.setStateLocked(StateLoading)

	if p == nil {
		err := fmt.Errorf("load: %w", renderer.ErrNilProject)
		notes = append(notes, c.noteError(err))
		c.mu.Unlock()
		run(notes)
		return err
	}
	notes = append(notes, c.finishLoadLocked(p)...)
	c.mu.Unlock()
	run(notes)
	return nil
}

func (c *Controller) canLoadLocked() error {
	if !c.initialized {
		return ErrNotInitialized
	}
	switch c.state {
	case StateIdle, StateStopped, StatePaused, StateLoading:
		return nil
	}
	return fmt.Errorf("%w: cannot load while %s", ErrInvalidState, c.state)
}

// finishLoadLocked resolves metadata, renders the first frame so the surface
// is never blank, and moves loading → paused.
func (c *Controller) finishLoadLocked(p *renderer.Project) []func() {
	c.project = p
	c.meta = c.renderer.Metadata(p)
	c.frame = 0

	if c.sink != nil {
		c.sink.ProjectLoaded(p, c.meta)
	}

	notes := c.setStateLocked(StatePaused)
	notes = append(notes, c.renderCurrentLocked()...)

	meta := c.meta
	obs := c.obs
	notes = append(notes, func() { obs.OnReady(meta) })

	c.log.Info("project loaded",
		slog.Int("total_frames", c.meta.TotalFrames),
		slog.Float64("fps", c.meta.FPS),
		slog.Int("scenes", c.meta.SceneCount),
	)
	return notes
}

// Play starts advancing frames. Valid from paused and stopped; a playing
// engine stays playing.
func (c *Controller) Play() error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if c.state == StateLoading || c.state == StateIdle {
		err := fmt.Errorf("%w: cannot play while %s", ErrInvalidState, c.state)
		c.mu.Unlock()
		return err
	}
	if c.state == StatePlaying {
		c.mu.Unlock()
		return nil
	}

	notes := c.setStateLocked(StatePlaying)
	// Backdate the last accepted frame so the first tick advances
	// immediately.
	c.lastAdvance = c.clock.Now().Add(-c.frameInterval())
	c.scheduleLocked()
	c.mu.Unlock()
	run(notes)
	return nil
}

// Pause stops frame advancement. The pending tick request is cancelled, not
// merely ignored: a paused engine never renders on its own initiative.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if c.state != StatePlaying {
		c.mu.Unlock()
		return nil
	}
	c.breakTickChainLocked()
	notes := c.setStateLocked(StatePaused)
	c.mu.Unlock()
	run(notes)
	return nil
}

// Stop halts playback, resets the frame index to 0, and re-renders so the
// surface shows the first frame.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if !c.state.Loaded() {
		c.mu.Unlock()
		return ErrNoProject
	}
	c.breakTickChainLocked()
	c.frame = 0
	notes := c.setStateLocked(StateStopped)
	notes = append(notes, c.renderCurrentLocked()...)
	c.mu.Unlock()
	run(notes)
	return nil
}

// SeekToFrame clamps f to the valid range, updates the frame index, renders
// immediately regardless of play state, and notifies observers. Seeking is
// synchronous and has no animation.
func (c *Controller) SeekToFrame(f int) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if !c.state.Loaded() {
		c.mu.Unlock()
		return ErrNoProject
	}

	if f < 0 {
		f = 0
	}
	if f > c.meta.TotalFrames-1 {
		f = c.meta.TotalFrames - 1
	}
	c.frame = f
	// Restart the throttle window so a seek during playback does not cause
	// an instant extra advance.
	c.lastAdvance = c.clock.Now()
	if c.met != nil {
		c.met.IncSeeks()
	}
	notes := c.renderCurrentLocked()
	c.mu.Unlock()
	run(notes)
	return nil
}

// SeekToTime converts a timeline time in seconds to a frame index via
// floor(t * fps) and delegates to SeekToFrame.
func (c *Controller) SeekToTime(t float64) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if !c.state.Loaded() {
		c.mu.Unlock()
		return ErrNoProject
	}
	f := 0
	if t > 0 {
		// Clamp in float space first: a huge t would overflow the int
		// conversion and dodge the frame-range clamp.
		tf := t * c.meta.FPS
		if last := float64(c.meta.TotalFrames - 1); tf > last {
			tf = last
		}
		f = int(tf)
	}
	c.mu.Unlock()
	return c.SeekToFrame(f)
}

// LoadAsset registers raw asset bytes in the renderer's shared cache.
func (c *Controller) LoadAsset(id string, data []byte) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	r := c.renderer
	c.mu.Unlock()
	return r.LoadAsset(id, data)
}

// CurrentFrame returns the frame index the output currently shows.
func (c *Controller) CurrentFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// CurrentTime returns the timeline time of the current frame in seconds.
func (c *Controller) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.meta.FPS <= 0 {
		return 0
	}
	return float64(c.frame) / c.meta.FPS
}

// State returns the current playback state.
func (c *Controller) State() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Metadata returns the loaded project's metadata; ok is false when no
// project is loaded.
func (c *Controller) Metadata() (meta renderer.ProjectMetadata, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta, c.state.Loaded()
}

// SetVar sets a numeric runtime state variable on the renderer.
func (c *Controller) SetVar(name string, value float64) error {
	sv, err := c.stateVars()
	if err != nil {
		return err
	}
	sv.SetVar(name, value)
	return nil
}

// Var reads a numeric runtime state variable from the renderer.
func (c *Controller) Var(name string) (float64, bool, error) {
	sv, err := c.stateVars()
	if err != nil {
		return 0, false, err
	}
	v, ok := sv.Var(name)
	return v, ok, nil
}

// VarsSnapshot returns a copy of all renderer state variables, or an empty
// map when the renderer keeps none.
func (c *Controller) VarsSnapshot() map[string]float64 {
	sv, err := c.stateVars()
	if err != nil {
		return map[string]float64{}
	}
	return sv.VarsSnapshot()
}

// SetMousePosition updates the renderer's pointer position for interactive
// expressions.
func (c *Controller) SetMousePosition(x, y float64) error {
	ps, err := c.pointerState()
	if err != nil {
		return err
	}
	ps.SetMousePosition(x, y)
	return nil
}

// MousePosition reads the renderer's last set pointer position.
func (c *Controller) MousePosition() (x, y float64, err error) {
	ps, err := c.pointerState()
	if err != nil {
		return 0, 0, err
	}
	x, y = ps.MousePosition()
	return x, y, nil
}

func (c *Controller) pointerState() (renderer.PointerState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	ps, ok := c.renderer.(renderer.PointerState)
	if !ok {
		return nil, ErrUnsupported
	}
	return ps, nil
}

func (c *Controller) stateVars() (renderer.StateVars, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	sv, ok := c.renderer.(renderer.StateVars)
	if !ok {
		return nil, ErrUnsupported
	}
	return sv, nil
}

// DispatchClick hit-tests a click at native pixel coordinates against the
// current frame's layer stack.
func (c *Controller) DispatchClick(x, y float64) (layerID string, handled bool, err error) {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return "", false, ErrNotInitialized
	}
	if !c.state.Loaded() {
		c.mu.Unlock()
		return "", false, ErrNoProject
	}
	cd, ok := c.renderer.(renderer.ClickDispatcher)
	if !ok {
		c.mu.Unlock()
		return "", false, ErrUnsupported
	}
	p, f := c.project, c.frame
	c.mu.Unlock()

	id, hit := cd.DispatchClick(p, f, x, y)
	return id, hit, nil
}

// ApplyCaptionSegments materializes an autocaption layer with
// externally-transcribed segments, mutating the loaded project in place.
func (c *Controller) ApplyCaptionSegments(layerID string, segments []renderer.CaptionSegment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return ErrNotInitialized
	}
	if !c.state.Loaded() {
		return ErrNoProject
	}
	return renderer.MaterializeAutoCaption(c.project, layerID, segments)
}

// ApplyRemoveBackground swaps an image layer's asset for its processed
// variant, mutating the loaded project in place.
func (c *Controller) ApplyRemoveBackground(layerID, newAssetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return ErrNotInitialized
	}
	if !c.state.Loaded() {
		return ErrNoProject
	}
	return renderer.ApplyRemoveBackgroundPatch(c.project, layerID, newAssetID)
}

// tick is one display-refresh opportunity. It advances at most one frame,
// governed by wall-clock elapsed time rather than invocation frequency, and
// re-requests itself while playing. The generation guard keeps a tick that
// was already in flight when the chain was broken from resurrecting it.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.tickGen || c.state != StatePlaying {
		c.mu.Unlock()
		return
	}

	var notes []func()
	now := c.clock.Now()
	interval := c.frameInterval()
	if now.Sub(c.lastAdvance) >= interval {
		notes = c.renderCurrentLocked()
		c.frame++
		if c.frame >= c.meta.TotalFrames {
			c.frame = 0
		}
		// Elapsed time is measured from the last accepted frame, so two
		// advances are never closer than one frame duration.
		c.lastAdvance = now
	} else if c.met != nil {
		c.met.IncTicksSkipped()
	}

	c.scheduleLocked()
	c.mu.Unlock()
	run(notes)
}

// renderCurrentLocked renders the current frame, blits it, and feeds the
// compositor. Renderer failures never escape: they become OnError
// notifications and playback state is untouched.
func (c *Controller) renderCurrentLocked() []func() {
	frame := c.frame
	pix, err := c.renderer.Render(c.project, frame)
	if err != nil {
		if c.met != nil {
			c.met.IncRenderErrors()
		}
		c.log.Warn("render failed", slog.Int("frame", frame), slog.String("error", err.Error()))
		return []func(){c.noteError(err)}
	}

	if c.met != nil {
		c.met.IncFramesRendered()
	}
	if err := c.out.Blit(pix, c.meta.Width, c.meta.Height); err != nil {
		c.log.Warn("blit failed", slog.Int("frame", frame), slog.String("error", err.Error()))
		return []func(){c.noteError(err)}
	}
	if c.sink != nil {
		c.sink.FrameRendered(frame)
	}

	t := float64(frame) / c.meta.FPS
	obs := c.obs
	return []func(){func() { obs.OnFrame(frame, t) }}
}

func (c *Controller) frameInterval() time.Duration {
	if c.meta.FPS <= 0 {
		return time.Second / 30
	}
	return time.Duration(float64(time.Second) / c.meta.FPS)
}

// scheduleLocked re-requests the tick callback for the next refresh
// opportunity.
func (c *Controller) scheduleLocked() {
	gen := c.tickGen
	c.cancelTick = c.sched.Request(func() { c.tick(gen) })
}

// breakTickChainLocked cancels the pending tick request and invalidates the
// current generation so no further scheduled tick can execute.
func (c *Controller) breakTickChainLocked() {
	c.tickGen++
	if c.cancelTick != nil {
		c.cancelTick()
		c.cancelTick = nil
	}
}

func (c *Controller) setStateLocked(next PlaybackState) []func() {
	old := c.state
	if old == next {
		return nil
	}
	c.state = next
	obs := c.obs
	return []func(){func() { obs.OnStateChange(old, next) }}
}

func (c *Controller) noteError(err error) func() {
	obs := c.obs
	return func() { obs.OnError(err) }
}

func run(notes []func()) {
	for _, n := range notes {
		n()
	}
}
