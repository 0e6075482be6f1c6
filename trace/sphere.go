package trace

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Sphere is the only scene primitive: a center and a positive radius.
type Sphere struct {
	Center v3.Vec
	Radius float64
}

// Hit solves the ray-sphere quadratic and reports the nearest intersection
// with parameter in [tMin, tMax). Only the near root is tested: a ray whose
// origin is inside the sphere (near root behind tMin) misses entirely rather
// than hitting the far side. The camera is never placed inside geometry.
func (s Sphere) Hit(ray Ray, tMin, tMax float64) (HitReport, bool) {
	oc := ray.Origin.Sub(s.Center)
	a := ray.Direction.Dot(ray.Direction)
	b := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - a*c
	if disc < 0 {
		return HitReport{}, false
	}

	t := (-b - math.Sqrt(disc)) / a
	if t < tMin || t >= tMax {
		return HitReport{}, false
	}

	at := ray.At(t)
	h := HitReport{
		T:      t,
		At:     at,
		Normal: at.Sub(s.Center).MulScalar(1 / s.Radius),
		Face:   FaceFront,
	}
	return h.correctFace(ray), true
}
