package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/anat0lius/trace-ui/trace"
	"github.com/deadsy/sdfx/vec/v2i"
)

// testRenderer builds a Renderer with an allocated frame buffer and no window.
func testRenderer(width, height int, scene *trace.Scene, opts ...Option) *Renderer {
	r := NewRenderer(scene, opts...)
	r.redraw = func() {}
	r.resizeFrame(v2i.Vec{X: width, Y: height})
	return r
}

// slowRenderer is expensive enough that tests can reliably interrupt it.
func slowRenderer() *Renderer {
	return testRenderer(256, 256, trace.DefaultScene(),
		OptSamplesPerPixel(128), OptMaxDepth(50), OptUpdateRate(240))
}

func waitOutcome(t *testing.T, outcome <-chan error) error {
	t.Helper()
	select {
	case err := <-outcome:
		return err
	case <-time.After(60 * time.Second):
		t.Fatal("render job did not finish in time")
		return nil
	}
}

func TestNextBatchSize(t *testing.T) {
	tests := []struct {
		name     string
		batchLen int
		target   time.Duration
		elapsed  time.Duration
		want     int
	}{
		{"on target keeps the batch", 10, 100 * time.Millisecond, 100 * time.Millisecond, 10},
		{"twice as fast doubles", 10, 100 * time.Millisecond, 50 * time.Millisecond, 20},
		{"four times too slow shrinks", 10, 100 * time.Millisecond, 400 * time.Millisecond, 2},
		{"floors fractional results", 3, 100 * time.Millisecond, 70 * time.Millisecond, 4},
		{"never drops below one pixel", 10, 100 * time.Millisecond, 10 * time.Second, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextBatchSize(tt.batchLen, tt.target, tt.elapsed); got != tt.want {
				t.Errorf("nextBatchSize(%d, %v, %v) = %d, want %d",
					tt.batchLen, tt.target, tt.elapsed, got, tt.want)
			}
		})
	}

	// Zero-duration measurements must not divide by zero or produce a
	// batch size below one.
	if got := nextBatchSize(10, 100*time.Millisecond, 0); got < 1 {
		t.Errorf("nextBatchSize with zero elapsed = %d, want >= 1", got)
	}
}

func TestCalibrateAtLeastOnePixel(t *testing.T) {
	j := &renderJob{scene: trace.NewScene(), state: testView(1, 1)}
	if got := j.calibrate(time.Nanosecond); got < 1 {
		t.Errorf("calibrate(1ns) = %d, want >= 1", got)
	}
	if got := j.calibrate(time.Second); got < 1 {
		t.Errorf("calibrate(1s) = %d, want >= 1", got)
	}
}

func TestRenderCompletes(t *testing.T) {
	const width, height = 16, 12
	redraws := 0
	r := testRenderer(width, height, trace.DefaultScene(),
		OptSamplesPerPixel(2), OptMaxDepth(8), OptUpdateRate(1))
	r.redraw = func() { redraws++ }

	outcome := make(chan error, 1)
	r.rerender(func(err error) { outcome <- err })
	if err := waitOutcome(t, outcome); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if redraws != 1 {
		t.Errorf("redraw called %d times, want 1", redraws)
	}

	// Frame row height/2 at the horizontal center looks straight at the
	// small sphere: attenuated, clearly not background.
	center := (height/2*width + width/2) * 4
	if r.frame[center] > 200 || r.frame[center+1] > 200 || r.frame[center+2] > 200 {
		t.Errorf("center pixel %v does not look like a sphere hit", r.frame[center:center+4])
	}
	if r.frame[center+3] != 255 {
		t.Errorf("center alpha = %d, want 255", r.frame[center+3])
	}

	// Frame row 0 is the top of the viewport; its first column aims well
	// above the horizon and must be sky gradient with saturated blue.
	if r.frame[2] != 255 {
		t.Errorf("corner pixel %v is not background sky", r.frame[0:4])
	}
}

func TestCancelAndJoinStopsQuickly(t *testing.T) {
	r := slowRenderer()
	r.rerender()
	j := r.job
	if j == nil || !j.isRunning() {
		t.Fatal("expected a running job after rerender")
	}

	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	if err := j.cancelAndJoin(); err != nil {
		t.Fatalf("cancelAndJoin returned a failure: %v", err)
	}
	// Cooperative cancellation is observed within about one batch.
	if d := time.Since(start); d > 2*time.Second {
		t.Errorf("cancellation took %v", d)
	}
	if !errors.Is(j.err, errRenderCancelled) {
		t.Errorf("job ended with %v, want errRenderCancelled", j.err)
	}
	if j.isRunning() {
		t.Error("job still running after cancelAndJoin")
	}
}

func TestResizeAbortsWithoutWriting(t *testing.T) {
	r := testRenderer(200, 200, trace.DefaultScene(),
		OptSamplesPerPixel(64), OptMaxDepth(50), OptUpdateRate(240))
	redraws := 0
	r.redraw = func() { redraws++ }

	outcome := make(chan error, 1)
	r.rerender(func(err error) { outcome <- err })
	time.Sleep(30 * time.Millisecond) // Let some batches flush

	newSize := v2i.Vec{X: 64, Y: 48}
	r.resizeFrame(newSize)

	if err := waitOutcome(t, outcome); !errors.Is(err, errRenderResized) {
		t.Fatalf("job ended with %v, want errRenderResized", err)
	}
	if redraws != 0 {
		t.Errorf("redraw called %d times after resize abort, want 0", redraws)
	}
	// The job bound to the old size must never touch the new buffer.
	for i, b := range r.frame {
		want := byte(0)
		if i%4 == 3 {
			want = 255
		}
		if b != want {
			t.Fatalf("frame[%d] = %d after resize, want %d", i, b, want)
		}
	}
}

func TestRestartNeverOverlaps(t *testing.T) {
	r := slowRenderer()
	r.rerender()
	j1 := r.job
	r.rerender()
	j2 := r.job
	defer r.stopRender()

	if j1 == j2 {
		t.Fatal("rerender reused the previous job")
	}
	if j1.isRunning() {
		t.Error("previous job still running after restart")
	}
	if !errors.Is(j1.err, errRenderCancelled) {
		t.Errorf("previous job ended with %v, want errRenderCancelled", j1.err)
	}
	if !j2.isRunning() {
		t.Error("expected the new job to be running")
	}
}

func TestJobFailureSurfaces(t *testing.T) {
	// A nil scene makes the shader panic; the job must turn that into an
	// error instead of crashing the process, and the next status check must
	// surface it exactly once.
	r := testRenderer(8, 8, nil, OptSamplesPerPixel(1), OptMaxDepth(2))
	r.rerender()
	r.job.join()

	err := r.jobFailure()
	if err == nil {
		t.Fatal("expected a propagated job failure")
	}
	if errors.Is(err, errRenderCancelled) || errors.Is(err, errRenderResized) {
		t.Fatalf("failure %v should not be a control signal", err)
	}
	if err := r.jobFailure(); err != nil {
		t.Errorf("failure reported twice: %v", err)
	}
}
