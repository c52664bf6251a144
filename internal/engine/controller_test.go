package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"vidra-player/internal/renderer"
)

// stubRenderer gives tests full control over metadata and render outcomes.
type stubRenderer struct {
	meta       renderer.ProjectMetadata
	compileErr error
	failFrames map[int]error
}

func (s *stubRenderer) Compile(source string) (*renderer.Project, error) {
	if s.compileErr != nil {
		return nil, s.compileErr
	}
	return &renderer.Project{}, nil
}

func (s *stubRenderer) Metadata(p *renderer.Project) renderer.ProjectMetadata {
	return s.meta
}

func (s *stubRenderer) Render(p *renderer.Project, frame int) ([]byte, error) {
	if err, ok := s.failFrames[frame]; ok {
		return nil, err
	}
	return make([]byte, s.meta.Width*s.meta.Height*4), nil
}

func (s *stubRenderer) LoadAsset(id string, data []byte) error { return nil }

func (s *stubRenderer) WebLayerPlacements(p *renderer.Project, frame int) []renderer.WebLayerPlacement {
	return nil
}

// recorder captures observer events for assertions.
type recorder struct {
	mu     sync.Mutex
	frames []int
	states [][2]PlaybackState
	errs   []error
	ready  int
}

func (r *recorder) OnReady(meta renderer.ProjectMetadata) {
	r.mu.Lock()
	r.ready++
	r.mu.Unlock()
}

func (r *recorder) OnFrame(frame int, time float64) {
	r.mu.Lock()
	r.frames = append(r.frames, frame)
	r.mu.Unlock()
}

func (r *recorder) OnStateChange(old, new PlaybackState) {
	r.mu.Lock()
	r.states = append(r.states, [2]PlaybackState{old, new})
	r.mu.Unlock()
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recorder) frameLog() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.frames...)
}

func (r *recorder) errCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

type fixture struct {
	ctrl  *Controller
	rend  *stubRenderer
	clock *ManualClock
	sched *ManualScheduler
	obs   *recorder
}

func newFixture(t *testing.T, fps float64, totalFrames int) *fixture {
	t.Helper()
	rend := &stubRenderer{
		meta: renderer.ProjectMetadata{
			Width:       8,
			Height:      8,
			FPS:         fps,
			TotalFrames: totalFrames,
		},
	}
	clock := NewManualClock(time.Unix(1000, 0))
	sched := NewManualScheduler()
	obs := &recorder{}
	ctrl := NewController(Options{
		Loader:    func(ctx context.Context) (renderer.FrameRenderer, error) { return rend, nil },
		Clock:     clock,
		Scheduler: sched,
		Observer:  obs,
	})
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return &fixture{ctrl: ctrl, rend: rend, clock: clock, sched: sched, obs: obs}
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	if err := f.ctrl.LoadSource("{}"); err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
}

func TestController_operations_before_init(t *testing.T) {
	ctrl := NewController(Options{
		Loader: func(ctx context.Context) (renderer.FrameRenderer, error) { return &stubRenderer{}, nil },
	})

	if err := ctrl.Play(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Play before Init: got %v, want ErrNotInitialized", err)
	}
	if err := ctrl.Pause(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Pause before Init: got %v, want ErrNotInitialized", err)
	}
	if err := ctrl.Stop(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Stop before Init: got %v, want ErrNotInitialized", err)
	}
	if err := ctrl.SeekToFrame(3); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SeekToFrame before Init: got %v, want ErrNotInitialized", err)
	}
	if err := ctrl.LoadSource("{}"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("LoadSource before Init: got %v, want ErrNotInitialized", err)
	}
}

func TestController_init_idempotent(t *testing.T) {
	calls := 0
	ctrl := NewController(Options{
		Loader: func(ctx context.Context) (renderer.FrameRenderer, error) {
			calls++
			return &stubRenderer{}, nil
		},
	})
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestController_load_renders_first_frame_and_pauses(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)

	if got := f.ctrl.State(); got != StatePaused {
		t.Errorf("state after load: got %s, want paused", got)
	}
	if got := f.ctrl.CurrentFrame(); got != 0 {
		t.Errorf("frame after load: got %d, want 0", got)
	}
	frames := f.obs.frameLog()
	if len(frames) != 1 || frames[0] != 0 {
		t.Errorf("expected single OnFrame(0) after load, got %v", frames)
	}
	if f.obs.ready != 1 {
		t.Errorf("expected one OnReady, got %d", f.obs.ready)
	}
	want := [][2]PlaybackState{{StateIdle, StateLoading}, {StateLoading, StatePaused}}
	if len(f.obs.states) != len(want) {
		t.Fatalf("state transitions: got %v, want %v", f.obs.states, want)
	}
	for i := range want {
		if f.obs.states[i] != want[i] {
			t.Errorf("transition %d: got %v, want %v", i, f.obs.states[i], want[i])
		}
	}
}

func TestController_load_failure_stays_loading(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.rend.compileErr = fmt.Errorf("bad source")

	err := f.ctrl.LoadSource("nonsense")
	if err == nil {
		t.Fatal("expected compile error")
	}
	if got := f.ctrl.State(); got != StateLoading {
		t.Errorf("state after failed load: got %s, want loading", got)
	}
	if f.obs.errCount() != 1 {
		t.Errorf("expected 1 OnError, got %d", f.obs.errCount())
	}
	if err := f.ctrl.Play(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Play while loading: got %v, want ErrInvalidState", err)
	}

	// A retry from the loading state must succeed.
	f.rend.compileErr = nil
	if err := f.ctrl.LoadSource("{}"); err != nil {
		t.Fatalf("retry load: %v", err)
	}
	if got := f.ctrl.State(); got != StatePaused {
		t.Errorf("state after retry: got %s, want paused", got)
	}
}

func TestController_play_requires_loaded_project(t *testing.T) {
	f := newFixture(t, 30, 90)
	if err := f.ctrl.Play(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Play while idle: got %v, want ErrInvalidState", err)
	}
}

func TestController_play_idempotent(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)

	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("second Play: %v", err)
	}
	if got := f.ctrl.State(); got != StatePlaying {
		t.Errorf("state: got %s, want playing", got)
	}
	if !f.sched.Pending() {
		t.Error("expected a pending tick request")
	}
}

func TestController_first_tick_advances_immediately(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	if !f.sched.Fire() {
		t.Fatal("expected pending tick")
	}
	if got := f.ctrl.CurrentFrame(); got != 1 {
		t.Errorf("frame after first tick: got %d, want 1", got)
	}
}

func TestController_tick_throttles_to_frame_duration(t *testing.T) {
	f := newFixture(t, 30, 90) // frame interval 33.3ms
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.sched.Fire() // immediate first advance, frame = 1

	// Refresh opportunities every 1ms: frames must advance only when a full
	// frame duration has elapsed.
	for i := 0; i < 32; i++ {
		f.clock.Advance(time.Millisecond)
		f.sched.Fire()
	}
	if got := f.ctrl.CurrentFrame(); got != 1 {
		t.Errorf("frame after 32ms: got %d, want 1", got)
	}

	f.clock.Advance(2 * time.Millisecond) // 34ms elapsed
	f.sched.Fire()
	if got := f.ctrl.CurrentFrame(); got != 2 {
		t.Errorf("frame after 34ms: got %d, want 2", got)
	}
}

func TestController_effective_rate_matches_fps(t *testing.T) {
	f := newFixture(t, 24, 480) // 20s timeline at 24 fps
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.sched.Fire() // frame = 1

	// Simulate one second of 1 kHz refresh opportunities.
	for i := 0; i < 1000; i++ {
		f.clock.Advance(time.Millisecond)
		f.sched.Fire()
	}
	got := f.ctrl.CurrentFrame()
	if got < 23 || got > 25 {
		t.Errorf("frame after 1s at 24 fps: got %d, want ~24", got)
	}
}

func TestController_advances_never_closer_than_frame_duration(t *testing.T) {
	// A 50 Hz refresh does not divide the 33.3ms frame interval at 30 fps:
	// the throttle must hold each advance until a full interval has elapsed
	// since the previous one, never bunching advances to catch up.
	f := newFixture(t, 30, 90)
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	interval := time.Second / 30
	last := f.ctrl.CurrentFrame()
	var prev time.Duration
	advanced := false
	for elapsed := time.Duration(0); elapsed <= time.Second; elapsed += 20 * time.Millisecond {
		f.sched.Fire()
		if got := f.ctrl.CurrentFrame(); got != last {
			if advanced && elapsed-prev < interval {
				t.Errorf("advances at %v and %v are only %v apart, want >= %v",
					prev, elapsed, elapsed-prev, interval)
			}
			last, prev, advanced = got, elapsed, true
		}
		f.clock.Advance(20 * time.Millisecond)
	}
	if !advanced {
		t.Fatal("no frame advances observed")
	}
}

func TestController_wraps_to_frame_zero(t *testing.T) {
	f := newFixture(t, 30, 3)
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	for i := 0; i < 4; i++ {
		f.clock.Advance(40 * time.Millisecond)
		if !f.sched.Fire() {
			t.Fatalf("tick %d: nothing pending", i)
		}
	}
	if got := f.ctrl.State(); got != StatePlaying {
		t.Errorf("state after wrap: got %s, want playing", got)
	}
	frames := f.obs.frameLog()
	// Load renders 0, then playback renders 0,1,2,0 while advancing.
	want := []int{0, 0, 1, 2, 0}
	if len(frames) != len(want) {
		t.Fatalf("frame log: got %v, want %v", frames, want)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("frame log[%d]: got %d, want %d", i, frames[i], want[i])
		}
	}
}

func TestController_pause_breaks_tick_chain(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.sched.Fire()

	if err := f.ctrl.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if f.sched.Pending() {
		t.Error("pending tick request should be cancelled by Pause")
	}
	frameAtPause := f.ctrl.CurrentFrame()

	f.clock.Advance(time.Second)
	if f.sched.Fire() {
		t.Error("no tick should run after Pause")
	}
	if got := f.ctrl.CurrentFrame(); got != frameAtPause {
		t.Errorf("frame advanced while paused: got %d, want %d", got, frameAtPause)
	}
	if got := f.ctrl.State(); got != StatePaused {
		t.Errorf("state: got %s, want paused", got)
	}
}

func TestController_pause_right_after_play(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := f.ctrl.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	f.clock.Advance(time.Second)
	if f.sched.Fire() {
		t.Error("no tick should survive an immediate pause")
	}
	if got := f.ctrl.CurrentFrame(); got != 0 {
		t.Errorf("frame must not advance: got %d, want 0", got)
	}
}

func TestController_playback_scenario(t *testing.T) {
	// A 2.0s project at 24 fps: 48 frames total. One simulated second of
	// playback lands near frame 24, and Stop resets to a freshly rendered
	// frame 0.
	f := newFixture(t, 24, 48)
	f.load(t)
	if meta, _ := f.ctrl.Metadata(); meta.TotalFrames != 48 {
		t.Fatalf("total frames: got %d, want 48", meta.TotalFrames)
	}

	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.sched.Fire()
	for i := 0; i < 1000; i++ { // 1.0s of 1 kHz refresh
		f.clock.Advance(time.Millisecond)
		f.sched.Fire()
	}
	got := f.ctrl.CurrentFrame()
	if got < 23 || got > 25 {
		t.Errorf("frame after 1.0s: got %d, want ~24", got)
	}

	if err := f.ctrl.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := f.ctrl.CurrentFrame(); got != 0 {
		t.Errorf("frame after Stop: got %d, want 0", got)
	}
	frames := f.obs.frameLog()
	if frames[len(frames)-1] != 0 {
		t.Errorf("Stop must immediately render frame 0, last was %d", frames[len(frames)-1])
	}
}

func TestController_pause_when_not_playing_is_noop(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)
	if err := f.ctrl.Pause(); err != nil {
		t.Errorf("Pause while paused: %v", err)
	}
	if got := f.ctrl.State(); got != StatePaused {
		t.Errorf("state: got %s, want paused", got)
	}
}

func TestController_stop_resets_and_rerenders(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.sched.Fire()
	f.clock.Advance(40 * time.Millisecond)
	f.sched.Fire()
	if f.ctrl.CurrentFrame() == 0 {
		t.Fatal("expected playback to have advanced")
	}

	if err := f.ctrl.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := f.ctrl.CurrentFrame(); got != 0 {
		t.Errorf("frame after Stop: got %d, want 0", got)
	}
	if got := f.ctrl.State(); got != StateStopped {
		t.Errorf("state after Stop: got %s, want stopped", got)
	}
	if f.sched.Pending() {
		t.Error("pending tick request should be cancelled by Stop")
	}
	frames := f.obs.frameLog()
	if frames[len(frames)-1] != 0 {
		t.Errorf("Stop must re-render frame 0, last rendered frame was %d", frames[len(frames)-1])
	}

	// Stopped is a resumable state.
	if err := f.ctrl.Play(); err != nil {
		t.Errorf("Play from stopped: %v", err)
	}
}

func TestController_stop_without_project(t *testing.T) {
	f := newFixture(t, 30, 90)
	if err := f.ctrl.Stop(); !errors.Is(err, ErrNoProject) {
		t.Errorf("Stop without project: got %v, want ErrNoProject", err)
	}
}

func TestController_seek_clamps(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)

	tests := []struct {
		name   string
		target int
		want   int
	}{
		{"negative", -5, 0},
		{"zero", 0, 0},
		{"in range", 42, 42},
		{"last frame", 89, 89},
		{"past end", 95, 89},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.ctrl.SeekToFrame(tt.target); err != nil {
				t.Fatalf("SeekToFrame(%d): %v", tt.target, err)
			}
			if got := f.ctrl.CurrentFrame(); got != tt.want {
				t.Errorf("SeekToFrame(%d): frame %d, want %d", tt.target, got, tt.want)
			}
		})
	}
}

func TestController_seek_renders_while_paused(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)

	before := len(f.obs.frameLog())
	if err := f.ctrl.SeekToFrame(10); err != nil {
		t.Fatalf("SeekToFrame: %v", err)
	}
	frames := f.obs.frameLog()
	if len(frames) != before+1 || frames[len(frames)-1] != 10 {
		t.Errorf("seek must render immediately: frame log %v", frames)
	}
	if got := f.ctrl.State(); got != StatePaused {
		t.Errorf("seek must not change state: got %s", got)
	}
}

func TestController_seek_without_project(t *testing.T) {
	f := newFixture(t, 30, 90)
	if err := f.ctrl.SeekToFrame(0); !errors.Is(err, ErrNoProject) {
		t.Errorf("SeekToFrame without project: got %v, want ErrNoProject", err)
	}
	if err := f.ctrl.SeekToTime(1); !errors.Is(err, ErrNoProject) {
		t.Errorf("SeekToTime without project: got %v, want ErrNoProject", err)
	}
}

func TestController_seek_to_time(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)

	tests := []struct {
		name string
		t    float64
		want int
	}{
		{"negative", -1, 0},
		{"zero", 0, 0},
		{"half second", 0.5, 15},
		{"floors fractional frame", 0.999, 29},
		{"past end clamps", 100, 89},
		{"huge time clamps without overflow", 1e18, 89},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.ctrl.SeekToTime(tt.t); err != nil {
				t.Fatalf("SeekToTime(%v): %v", tt.t, err)
			}
			if got := f.ctrl.CurrentFrame(); got != tt.want {
				t.Errorf("SeekToTime(%v): frame %d, want %d", tt.t, got, tt.want)
			}
		})
	}
}

func TestController_seek_restarts_throttle_window(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.sched.Fire()

	f.clock.Advance(30 * time.Millisecond)
	if err := f.ctrl.SeekToFrame(50); err != nil {
		t.Fatalf("SeekToFrame: %v", err)
	}
	// The next refresh opportunity arrives right after the seek; a full
	// frame duration has not elapsed since it, so no advance.
	f.sched.Fire()
	if got := f.ctrl.CurrentFrame(); got != 50 {
		t.Errorf("frame right after mid-playback seek: got %d, want 50", got)
	}

	f.clock.Advance(40 * time.Millisecond)
	f.sched.Fire()
	if got := f.ctrl.CurrentFrame(); got != 51 {
		t.Errorf("frame one interval after seek: got %d, want 51", got)
	}
}

func TestController_render_errors_do_not_stop_playback(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.rend.failFrames = map[int]error{2: fmt.Errorf("corrupt frame")}
	f.load(t)
	if err := f.ctrl.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	for i := 0; i < 4; i++ {
		f.clock.Advance(40 * time.Millisecond)
		f.sched.Fire()
	}
	if f.obs.errCount() != 1 {
		t.Errorf("expected 1 OnError from the failing frame, got %d", f.obs.errCount())
	}
	if got := f.ctrl.State(); got != StatePlaying {
		t.Errorf("render failure must not change state: got %s", got)
	}
	if got := f.ctrl.CurrentFrame(); got != 4 {
		t.Errorf("frame index must keep advancing past failures: got %d, want 4", got)
	}
}

func TestController_current_time(t *testing.T) {
	f := newFixture(t, 24, 480)
	f.load(t)
	if err := f.ctrl.SeekToFrame(12); err != nil {
		t.Fatalf("SeekToFrame: %v", err)
	}
	if got := f.ctrl.CurrentTime(); got != 0.5 {
		t.Errorf("CurrentTime at frame 12 of 24 fps: got %v, want 0.5", got)
	}
}

func TestController_metadata(t *testing.T) {
	f := newFixture(t, 30, 90)
	if _, ok := f.ctrl.Metadata(); ok {
		t.Error("Metadata before load: ok should be false")
	}
	f.load(t)
	meta, ok := f.ctrl.Metadata()
	if !ok {
		t.Fatal("Metadata after load: ok false")
	}
	if meta.TotalFrames != 90 || meta.FPS != 30 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestController_vars_unsupported(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)
	if err := f.ctrl.SetVar("score", 1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetVar on renderer without state vars: got %v, want ErrUnsupported", err)
	}
	if _, _, err := f.ctrl.Var("score"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Var on renderer without state vars: got %v, want ErrUnsupported", err)
	}
	if vars := f.ctrl.VarsSnapshot(); len(vars) != 0 {
		t.Errorf("VarsSnapshot should be empty, got %v", vars)
	}
}

func TestController_vars_with_software_renderer(t *testing.T) {
	rend := renderer.NewSoftware(nil)
	ctrl := NewController(Options{
		Loader:    func(ctx context.Context) (renderer.FrameRenderer, error) { return rend, nil },
		Scheduler: NewManualScheduler(),
	})
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := ctrl.SetVar("score", 42); err != nil {
		t.Fatalf("SetVar: %v", err)
	}
	v, ok, err := ctrl.Var("score")
	if err != nil || !ok || v != 42 {
		t.Errorf("Var: got (%v, %v, %v), want (42, true, nil)", v, ok, err)
	}
	if _, ok, _ := ctrl.Var("missing"); ok {
		t.Error("Var on unset name: ok should be false")
	}
}

func TestController_mouse_position_unsupported(t *testing.T) {
	f := newFixture(t, 30, 90)
	f.load(t)
	if err := f.ctrl.SetMousePosition(1, 2); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetMousePosition on renderer without pointer state: got %v, want ErrUnsupported", err)
	}
	if _, _, err := f.ctrl.MousePosition(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("MousePosition on renderer without pointer state: got %v, want ErrUnsupported", err)
	}
}

func TestController_mouse_position_with_software_renderer(t *testing.T) {
	rend := renderer.NewSoftware(nil)
	ctrl := NewController(Options{
		Loader:    func(ctx context.Context) (renderer.FrameRenderer, error) { return rend, nil },
		Scheduler: NewManualScheduler(),
	})
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	x, y, err := ctrl.MousePosition()
	if err != nil || x != 0 || y != 0 {
		t.Errorf("initial position: got (%v, %v, %v), want (0, 0, nil)", x, y, err)
	}
	if err := ctrl.SetMousePosition(320, 180); err != nil {
		t.Fatalf("SetMousePosition: %v", err)
	}
	x, y, err = ctrl.MousePosition()
	if err != nil || x != 320 || y != 180 {
		t.Errorf("position after set: got (%v, %v, %v), want (320, 180, nil)", x, y, err)
	}
}
