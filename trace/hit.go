package trace

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Face tells which side of a surface a ray struck.
type Face int

const (
	// FaceFront means the ray hit the outward face of the surface.
	FaceFront Face = iota
	// FaceBack means the ray hit the surface from the inside.
	FaceBack
)

func (f Face) flip() Face {
	if f == FaceFront {
		return FaceBack
	}
	return FaceFront
}

// HitReport describes the nearest valid intersection of a ray with the scene.
// Normal is unit length and always oriented toward the incoming ray.
type HitReport struct {
	T      float64 // Ray parameter of the intersection
	At     v3.Vec  // Intersection point
	Normal v3.Vec
	Face   Face
}

// correctFace flips the normal (and the face flag) when the outward normal
// points along the ray, so that Normal·ray.Direction <= 0 always holds.
func (h HitReport) correctFace(ray Ray) HitReport {
	if h.Normal.Dot(ray.Direction) > 0 {
		h.Normal = h.Normal.MulScalar(-1)
		h.Face = h.Face.flip()
	}
	return h
}
