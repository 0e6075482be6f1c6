package trace

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Scene is a static, read-only list of spheres. It is constructed once before
// a render starts and shared by every row worker.
type Scene struct {
	Spheres []Sphere
}

// NewScene builds a scene from the given spheres.
func NewScene(spheres ...Sphere) *Scene {
	return &Scene{Spheres: spheres}
}

// DefaultScene is the classic two-sphere setup: a small sphere resting on a
// huge ground sphere.
func DefaultScene() *Scene {
	return NewScene(
		Sphere{Center: v3.Vec{X: 0, Y: -100.5, Z: -1}, Radius: 100},
		Sphere{Center: v3.Vec{X: 0, Y: 0, Z: -1}, Radius: 0.5},
	)
}

// Hit scans every sphere and returns the hit with the smallest parameter in
// [tMin, tMax). The upper bound shrinks to the best hit found so far, which
// makes the linear scan an effective nearest-hit search without sorting.
func (s *Scene) Hit(ray Ray, tMin, tMax float64) (HitReport, bool) {
	var best HitReport
	found := false
	for _, sp := range s.Spheres {
		if h, ok := sp.Hit(ray, tMin, tMax); ok {
			best = h
			tMax = h.T
			found = true
		}
	}
	return best, found
}
