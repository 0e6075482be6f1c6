// Package ui renders a static sphere scene into a live window using
// stochastic ray tracing. The render runs as a cancellable background job
// that continuously re-estimates how many pixels it can trace per frame, so
// the window stays responsive while the image progressively sharpens.
package ui

import (
	"log"
	"sync"

	"github.com/anat0lius/trace-ui/internal"
	"github.com/anat0lius/trace-ui/trace"
	"github.com/barkimedes/go-deepcopy"
	"github.com/deadsy/sdfx/vec/v2i"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/subchen/go-trylock/v2"
)

// Renderer owns the preview window and the background render job that keeps
// its frame buffer up to date. Build one with NewRenderer and start the
// blocking event loop with Run.
type Renderer struct {
	scene *trace.Scene

	state      *internal.ViewState
	stateLock  sync.RWMutex
	screenSize v2i.Vec // Only mutated by Layout (under stateLock)

	// frame is the shared RGBA surface (len == width*height*4). frameLock is
	// held only while flushing a batch or uploading to the screen, never
	// while sampling.
	frame     []byte
	frameLock sync.Mutex

	tex     *ebiten.Image // Cached upload target for the frame buffer
	texSize v2i.Vec

	job     *renderJob
	jobLock sync.Mutex

	renderingLock trylock.TryLocker // Write-held by the job for its whole run

	redraw     func() // Called once per fully successful render
	watchPaths []string
}

// Option configures a Renderer before it starts.
type Option func(*Renderer)

// OptUpdateRate sets the target frame-buffer flush rate per row worker in
// flushes per second (default 60). It sizes the adaptive pixel batches.
func OptUpdateRate(perSecond float64) Option {
	return func(r *Renderer) {
		if perSecond > 0 {
			r.state.UpdateRate = perSecond
		}
	}
}

// OptSamplesPerPixel sets the anti-aliasing sample count (default 16).
func OptSamplesPerPixel(n int) Option {
	return func(r *Renderer) {
		if n >= 1 {
			r.state.SamplesPerPixel = n
		}
	}
}

// OptMaxDepth sets the shading recursion budget (default 50).
func OptMaxDepth(n int) Option {
	return func(r *Renderer) {
		if n >= 1 {
			r.state.MaxDepth = n
		}
	}
}

// OptCamera places the pinhole camera (default: origin, focal length 1).
func OptCamera(origin v3.Vec, focalLength float64) Option {
	return func(r *Renderer) {
		r.state.Origin = origin
		if focalLength > 0 {
			r.state.FocalLength = focalLength
		}
	}
}

// NewRenderer builds a live renderer for the given scene. The scene is read
// only once rendering starts and must not be mutated afterwards.
func NewRenderer(scene *trace.Scene, opts ...Option) *Renderer {
	r := &Renderer{
		scene:         scene,
		state:         internal.DefaultViewState(),
		renderingLock: trylock.New(),
		redraw:        ebiten.ScheduleFrame,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run opens the window and blocks until it is closed or the background job
// fails with an unexpected error.
func (r *Renderer) Run() error {
	if len(r.watchPaths) > 0 {
		stop, err := r.watchAndRerender(r.watchPaths)
		if err != nil {
			return err
		}
		defer stop()
	}
	defer r.stopRender()
	return ebiten.RunGame(rendererEbitenGame{r})
}

// rerender cancels any in-flight render, waits for it to exit, and starts a
// new one bound to the current surface size and a snapshot of the view state.
// Never runs two jobs concurrently. callbacks run when the new job ends.
func (r *Renderer) rerender(callbacks ...func(error)) {
	r.jobLock.Lock()
	defer r.jobLock.Unlock()
	if r.job != nil {
		if err := r.job.cancelAndJoin(); err != nil {
			log.Println("[trace-ui] previous render job failed:", err)
		}
	}

	r.stateLock.RLock()
	state := deepcopy.MustAnything(r.state).(*internal.ViewState)
	size := r.screenSize
	r.stateLock.RUnlock()
	if size.X <= 0 || size.Y <= 0 {
		return // No surface yet: the first Layout call retriggers this
	}
	r.job = startRender(r, r.scene, state, size, callbacks)
}

// stopRender cancels and joins the current job, if any.
func (r *Renderer) stopRender() {
	r.jobLock.Lock()
	defer r.jobLock.Unlock()
	if r.job != nil {
		if err := r.job.cancelAndJoin(); err != nil {
			log.Println("[trace-ui] render job failed during shutdown:", err)
		}
		r.job = nil
	}
}

// jobFailure reaps a finished job and reports its error if it ended with an
// unexpected defect. Cancels and resizes are normal outcomes, not failures.
func (r *Renderer) jobFailure() error {
	r.jobLock.Lock()
	defer r.jobLock.Unlock()
	if r.job == nil || r.job.isRunning() {
		return nil
	}
	err := r.job.failure()
	if err != nil {
		r.job = nil
	}
	return err
}

// renderDone is called by the job on full successful completion; it asks the
// host for one repaint so the finished buffer is presented even when the
// event loop is idle.
func (r *Renderer) renderDone() {
	r.redraw()
}
