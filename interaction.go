package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// onUpdateInputs handles inputs. Configuration edits only affect the next
// job: the running one stays bound to its snapshot until restarted.
func (r *Renderer) onUpdateInputs() {
	// Sampling quality
	if inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		r.stateLock.Lock()
		r.state.SamplesPerPixel *= 2
		if r.state.SamplesPerPixel > 1024 {
			r.state.SamplesPerPixel = 1024
		}
		r.stateLock.Unlock()
		r.rerender()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		r.stateLock.Lock()
		r.state.SamplesPerPixel /= 2
		if r.state.SamplesPerPixel < 1 {
			r.state.SamplesPerPixel = 1
		}
		r.stateLock.Unlock()
		r.rerender()
	}
	// Restart the render from scratch
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		r.rerender()
	}
}

// drawUI overlays the render status and the controls help text.
func (r *Renderer) drawUI(screen *ebiten.Image) {
	// Notify when rendering
	ctx, cancelFunc := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancelFunc()
	if r.renderingLock.RTryLock(ctx) {
		r.renderingLock.RUnlock()
	} else {
		ebitenutil.DebugPrintAt(screen, "Rendering...", 5, 5)
	}

	r.stateLock.RLock()
	msg := fmt.Sprintf("TPS: %0.2f\nSamples/pixel: %d [+/-]\nRestart render [R]",
		ebiten.ActualTPS(), r.state.SamplesPerPixel)
	height := r.screenSize.Y
	r.stateLock.RUnlock()
	ebitenutil.DebugPrintAt(screen, msg, 5, height-56)
}
