package geom

import "math"

// Rect is an axis-aligned bounding box identified by its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point p lies inside the rect (inclusive edges).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// closestPoint returns the point on (or in) the rect nearest to p.
func (r Rect) closestPoint(p Vec2) Vec2 {
	return Vec2{
		X: Clamp(p.X, r.X, r.X+r.W),
		Y: Clamp(p.Y, r.Y, r.Y+r.H),
	}
}

// CircleOverlapsRect reports whether a circle at center with the given radius
// overlaps the rect.
func CircleOverlapsRect(center Vec2, radius float64, r Rect) bool {
	d := center.Sub(r.closestPoint(center))
	return d.Dot(d) <= radius*radius
}

// SweptCircleRect tests a moving circle against a rect using the segment from
// the circle's previous to current center. This is what keeps a fast ball from
// tunneling through a thin paddle in a single tick: even when neither endpoint
// overlaps, an intermediate position may.
//
// Returns the fraction t in [0,1] along the sweep at first contact, and
// whether contact happened at all.
func SweptCircleRect(from, to Vec2, radius float64, r Rect) (float64, bool) {
	// Inflate the rect by the radius; the circle center then becomes a point.
	inflated := Rect{
		X: r.X - radius,
		Y: r.Y - radius,
		W: r.W + 2*radius,
		H: r.H + 2*radius,
	}

	if inflated.Contains(from) {
		return 0, true
	}

	return segmentRect(from, to, inflated)
}

// segmentRect is a slab-method segment vs AABB intersection. Returns the entry
// fraction along from->to, or false when the segment misses the rect.
func segmentRect(from, to Vec2, r Rect) (float64, bool) {
	d := to.Sub(from)

	tEnter := 0.0
	tExit := 1.0

	// One axis at a time.
	for axis := 0; axis < 2; axis++ {
		var origin, delta, lo, hi float64
		if axis == 0 {
			origin, delta, lo, hi = from.X, d.X, r.X, r.X+r.W
		} else {
			origin, delta, lo, hi = from.Y, d.Y, r.Y, r.Y+r.H
		}

		if delta == 0 {
			if origin < lo || origin > hi {
				return 0, false
			}
			continue
		}

		t1 := (lo - origin) / delta
		t2 := (hi - origin) / delta
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tEnter = math.Max(tEnter, t1)
		tExit = math.Min(tExit, t2)
		if tEnter > tExit {
			return 0, false
		}
	}

	return tEnter, true
}
