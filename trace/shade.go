package trace

import (
	"math"
	"math/rand/v2"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Shading constants: diffuse surfaces reflect half the incoming light, and
// bounce origins are offset past t=0 to avoid immediate self-intersection.
const (
	diffuseReflectance = 0.5
	selfHitEpsilon     = 0.001
)

// Background gradient endpoints (linear space).
var (
	skyWhite = v3.Vec{X: 1, Y: 1, Z: 1}
	skyBlue  = v3.Vec{X: 0.25, Y: 0.49, Z: 1.0}
)

// Color estimates the linear-space color arriving along ray, bouncing at most
// depth times. Alpha is implicitly 1 on every path. Rays that escape the
// scene pick up a vertical white-to-blue gradient; exhausting the recursion
// budget yields black (not an error).
func (s *Scene) Color(rng *rand.Rand, ray Ray, depth int) v3.Vec {
	if depth <= 0 {
		return v3.Vec{}
	}

	hit, ok := s.Hit(ray, selfHitEpsilon, math.Inf(1))
	if !ok {
		t := 0.5 * (normalizeOrZero(ray.Direction).Y + 1)
		return lerp(skyWhite, skyBlue, t)
	}

	// Approximate cosine-weighted diffuse scatter: bounce toward the normal
	// displaced by a random point on the unit sphere surface.
	next := Ray{
		Origin:    hit.At,
		Direction: hit.Normal.Add(randUnitVector(rng)),
	}
	return s.Color(rng, next, depth-1).MulScalar(diffuseReflectance)
}

// randUnitVector returns a uniformly random point on the unit sphere surface.
func randUnitVector(rng *rand.Rand) v3.Vec {
	for {
		v := v3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		l2 := v.Dot(v)
		if l2 > 1e-12 {
			return v.MulScalar(1 / math.Sqrt(l2))
		}
	}
}

func normalizeOrZero(v v3.Vec) v3.Vec {
	l2 := v.Dot(v)
	if l2 == 0 {
		return v3.Vec{}
	}
	return v.MulScalar(1 / math.Sqrt(l2))
}

func lerp(a, b v3.Vec, t float64) v3.Vec {
	return a.MulScalar(1 - t).Add(b.MulScalar(t))
}
