package ui

import (
	"math"
	"math/rand/v2"

	"github.com/anat0lius/trace-ui/internal"
	"github.com/anat0lius/trace-ui/trace"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// sampledColor estimates the display-space color of one pixel by averaging
// several jittered sub-pixel samples. uv is the pixel's normalized screen
// coordinate, pixelShape the footprint of one pixel in uv space and
// viewportShape the world-space viewport extent at the focal plane.
func sampledColor(scene *trace.Scene, rng *rand.Rand, view *internal.ViewState,
	uv, pixelShape, viewportShape v2.Vec) [4]byte {
	var sum v3.Vec
	for i := 0; i < view.SamplesPerPixel; i++ {
		jittered := uv.Add(v2.Vec{X: rng.Float64(), Y: rng.Float64()}.Mul(pixelShape))
		screen := jittered.SubScalar(0.5).Mul(viewportShape)
		ray := trace.Ray{
			Origin:    view.Origin,
			Direction: view.Origin.Add(v3.Vec{X: screen.X, Y: screen.Y, Z: -view.FocalLength}),
		}
		// Clamp before accumulating so HDR-range samples cannot push the
		// average past 1.
		sum = sum.Add(clamp01(scene.Color(rng, ray, view.MaxDepth)))
	}
	avg := sum.MulScalar(1 / float64(view.SamplesPerPixel))
	return [4]byte{
		linearToSRGB(avg.X),
		linearToSRGB(avg.Y),
		linearToSRGB(avg.Z),
		linearToSRGB(1), // alpha is always 1
	}
}

func clamp01(v v3.Vec) v3.Vec {
	return v3.Vec{
		X: math.Min(1, math.Max(0, v.X)),
		Y: math.Min(1, math.Max(0, v.Y)),
		Z: math.Min(1, math.Max(0, v.Z)),
	}
}

// linearToSRGB converts one linear channel to display space with the standard
// piecewise sRGB transfer function and truncates to a byte. The scale is 256
// rather than 255, clamped, so that 1.0 saturates exactly.
func linearToSRGB(c float64) byte {
	s := 12.92 * c
	if c > 0.0031308 {
		s = 1.055*math.Pow(c, 1/2.4) - 0.055
	}
	s *= 256
	if s < 0 {
		s = 0
	} else if s > 255 {
		s = 255
	}
	return byte(s)
}
