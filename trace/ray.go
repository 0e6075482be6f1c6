// Package trace implements the ray-tracing core: a static scene of spheres,
// nearest-hit queries and the recursive Monte-Carlo diffuse shader. It is
// independent of the UI layer and renders nothing by itself.
package trace

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Ray is a half-line through the scene. Direction is not required to be unit
// length (intersection math normalizes where needed).
type Ray struct {
	Origin    v3.Vec
	Direction v3.Vec
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) v3.Vec {
	return r.Origin.Add(r.Direction.MulScalar(t))
}
