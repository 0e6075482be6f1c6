package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/anat0lius/trace-ui/internal"
	"github.com/anat0lius/trace-ui/trace"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/deadsy/sdfx/vec/v2i"
)

// Internal control signals: both end a render early but neither is a failure.
var (
	errRenderCancelled = errors.New("render cancelled")
	errRenderResized   = errors.New("render target resized")
)

// renderJob is a single background render bound to one surface size and one
// view state snapshot. At most one job is active per Renderer: callers must
// cancelAndJoin the previous job before starting the next.
type renderJob struct {
	r     *Renderer
	scene *trace.Scene
	state *internal.ViewState
	size  v2i.Vec

	cancel context.CancelFunc
	ctx    context.Context

	done      chan struct{} // closed after err is set
	err       error
	callbacks []func(error)
}

// startRender spawns the background computation. It begins consuming CPU
// across the row worker pool immediately.
func startRender(r *Renderer, scene *trace.Scene, state *internal.ViewState, size v2i.Vec, callbacks []func(error)) *renderJob {
	ctx, cancel := context.WithCancel(context.Background())
	j := &renderJob{
		r:         r,
		scene:     scene,
		state:     state,
		size:      size,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		callbacks: callbacks,
	}
	go func() {
		j.err = j.run()
		close(j.done)
		for _, cb := range j.callbacks {
			cb(j.err)
		}
	}()
	return j
}

// isRunning reports whether the background computation is still active.
func (j *renderJob) isRunning() bool {
	select {
	case <-j.done:
		return false
	default:
		return true
	}
}

// join blocks until the job has exited and returns its raw outcome
// (nil, a control signal, or a real failure).
func (j *renderJob) join() error {
	<-j.done
	return j.err
}

// cancelAndJoin requests cancellation and blocks until the job has exited.
// It returns only unexpected failures: cancel/resize outcomes map to nil.
func (j *renderJob) cancelAndJoin() error {
	j.cancel()
	j.join()
	return j.failure()
}

// failure returns the job's error if it ended with an unexpected defect.
// A still-running job, a success, a cancel or a resize all return nil.
func (j *renderJob) failure() error {
	select {
	case <-j.done:
	default:
		return nil
	}
	if errors.Is(j.err, errRenderCancelled) || errors.Is(j.err, errRenderResized) {
		return nil
	}
	return j.err
}

// run drives the whole render: calibration, then one adaptive task per row
// over a fixed worker pool. Panics are turned into errors so that a defect in
// the math surfaces on the next lifecycle call instead of killing the process.
func (j *renderJob) run() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render job panic: %v", p)
		}
	}()

	j.r.renderingLock.Lock()
	defer j.r.renderingLock.Unlock()

	begin := time.Now()
	width, height := j.size.X, j.size.Y
	log.Printf("[render] starting %dx%d render (%d samples/pixel, depth %d)",
		width, height, j.state.SamplesPerPixel, j.state.MaxDepth)

	shape := v2.Vec{X: float64(width), Y: float64(height)}
	pixelShape := v2.Vec{X: 1, Y: 1}.Div(shape)
	viewportShape := shape.MulScalar(2).DivScalar(shape.Y)
	updateInterval := time.Duration(float64(time.Second) / j.state.UpdateRate)

	// All rows start from the same calibrated throughput estimate and adapt
	// independently from there.
	pixelsPerFrame := j.calibrate(updateInterval)

	rows := make(chan int)
	rowCtx, abortRows := context.WithCancel(j.ctx)
	defer abortRows()

	var wg sync.WaitGroup
	fedAll := false
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(rows)
		for row := 0; row < height; row++ {
			select {
			case <-rowCtx.Done():
				return
			case rows <- row:
			}
		}
		fedAll = true
	}()

	workers := runtime.NumCPU()
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rowBuf := make([]byte, width*4)
			batch := pixelsPerFrame
			for row := range rows {
				// Fresh entropy per row: renders are not reproducible.
				rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
				if err := j.renderRow(row, rng, rowBuf, &batch, shape, pixelShape, viewportShape, updateInterval); err != nil {
					select {
					case errCh <- err:
					default:
					}
					abortRows()
					return
				}
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
	}
	if !fedAll {
		return errRenderCancelled
	}

	log.Printf("[render] finished in %v", time.Since(begin))
	j.r.renderDone()
	return nil
}

// renderRow covers one scanline, repeatedly sampling a batch of columns into
// a private buffer, rescaling the batch from the measured duration, and
// flushing it into the shared frame buffer. Row 0 samples the top of the
// viewport, i.e. viewport y = height-1.
func (j *renderJob) renderRow(row int, rng *rand.Rand, rowBuf []byte, batch *int,
	shape, pixelShape, viewportShape v2.Vec, updateInterval time.Duration) error {
	width := j.size.X
	y := shape.Y - float64(row) - 1

	start, end := 0, min(*batch, width)
	for {
		t0 := time.Now()
		for col := start; col < end; col++ {
			uv := v2.Vec{X: float64(col), Y: y}.Div(shape)
			px := sampledColor(j.scene, rng, j.state, uv, pixelShape, viewportShape)
			copy(rowBuf[col*4:], px[:])
		}
		*batch = nextBatchSize(end-start, updateInterval, time.Since(t0))

		j.r.frameLock.Lock()
		if j.ctx.Err() != nil {
			j.r.frameLock.Unlock()
			return errRenderCancelled
		}
		frame := j.r.frame
		if len(frame) != width*j.size.Y*4 {
			// The host surface changed under us: leave the new buffer alone.
			j.r.frameLock.Unlock()
			return errRenderResized
		}
		copy(frame[(row*width+start)*4:(row*width+end)*4], rowBuf[start*4:end*4])
		j.r.frameLock.Unlock()

		start = end
		end = start + *batch
		if end > width {
			return nil
		}
	}
}

// nextBatchSize rescales a batch so the next one takes about one update
// interval, tracking machine speed changes batch by batch. The result is
// never below one pixel, and a zero-duration measurement (timer resolution
// coarser than the batch) is treated as a single clock tick.
func nextBatchSize(batchLen int, target, elapsed time.Duration) int {
	if elapsed < time.Nanosecond {
		elapsed = time.Nanosecond
	}
	next := int(float64(batchLen) * (float64(target) / float64(elapsed)))
	if next < 1 {
		return 1
	}
	return next
}

// calibrationSink keeps the calibration sample from being optimized away.
var calibrationSink [4]byte

// calibrate times a single throwaway pixel sample and derives the initial
// pixels-per-frame estimate shared by all rows. Unusable measurements fall
// back to one pixel per frame.
func (j *renderJob) calibrate(updateInterval time.Duration) int {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	t0 := time.Now()
	calibrationSink = sampledColor(j.scene, rng, j.state, v2.Vec{}, v2.Vec{X: 1, Y: 1}, v2.Vec{X: 2, Y: 2})
	elapsed := time.Since(t0)
	if elapsed <= 0 {
		return 1
	}
	ppf := int(float64(updateInterval) / float64(elapsed))
	if ppf < 1 {
		return 1
	}
	return ppf
}
