package ui

import (
	"github.com/deadsy/sdfx/vec/v2i"
	"github.com/hajimehoshi/ebiten/v2"
)

// rendererEbitenGame hides the ebiten.Game implementation while behaving like
// a *Renderer internally.
type rendererEbitenGame struct {
	*Renderer
}

func (r rendererEbitenGame) Update() error {
	if err := r.jobFailure(); err != nil {
		return err // An unexpected defect in the job ends the event loop
	}
	r.onUpdateInputs()
	return nil
}

func (r rendererEbitenGame) Draw(screen *ebiten.Image) {
	r.drawFrame(screen)
	r.drawUI(screen)
}

// Layout binds the renderer to the host surface size. A size change swaps in
// a fresh frame buffer and restarts the render; the job bound to the old size
// notices the swap on its next flush and exits quietly.
func (r rendererEbitenGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	newSize := v2i.Vec{X: outsideWidth, Y: outsideHeight}
	if newSize.X > 0 && newSize.Y > 0 && r.screenSize != newSize {
		r.resizeFrame(newSize)
		r.rerender()
	}
	return outsideWidth, outsideHeight // Use all available pixels, no re-scaling
}

// resizeFrame replaces the shared frame buffer with one matching the new
// surface size, opaque black until rendered rows land in it.
func (r *Renderer) resizeFrame(size v2i.Vec) {
	r.stateLock.Lock()
	r.screenSize = size
	r.stateLock.Unlock()

	buf := make([]byte, size.X*size.Y*4)
	for i := 3; i < len(buf); i += 4 {
		buf[i] = 255
	}
	r.frameLock.Lock()
	r.frame = buf
	r.frameLock.Unlock()
}

// drawFrame uploads the shared frame buffer to the screen.
func (r *Renderer) drawFrame(screen *ebiten.Image) {
	r.stateLock.RLock()
	size := r.screenSize
	r.stateLock.RUnlock()

	r.frameLock.Lock()
	defer r.frameLock.Unlock()
	if len(r.frame) != size.X*size.Y*4 || len(r.frame) == 0 {
		return // Mid-resize, skip this frame
	}
	if r.tex == nil || r.texSize != size {
		if r.tex != nil {
			r.tex.Deallocate()
		}
		r.tex = ebiten.NewImage(size.X, size.Y)
		r.texSize = size
	}
	r.tex.WritePixels(r.frame)
	screen.DrawImage(r.tex, nil)
}
