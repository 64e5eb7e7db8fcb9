package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// ClosestPointSegmentPoint takes a line segment defined by two points and a third point, and returns the
// closest point on the segment to the third point.
func ClosestPointSegmentPoint(segA, segB, pt r3.Vector) r3.Vector {
	ab := segB.Sub(segA)
	denom := ab.Norm2()
	if denom < floatEpsilon*floatEpsilon {
		return segA
	}
	t := pt.Sub(segA).Dot(ab) / denom
	t = math.Max(0, math.Min(1, t))
	return segA.Add(ab.Mul(t))
}

// ClosestPointsSegmentSegment returns the closest pair of points between segments [p1, q1] and [p2, q2].
// Ericson, "Real-Time Collision Detection", 5.1.9.
func ClosestPointsSegmentSegment(p1, q1, p2, q2 r3.Vector) (r3.Vector, r3.Vector) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Norm2()
	e := d2.Norm2()
	f := d2.Dot(r)

	const eps = 1e-12
	var s, t float64
	switch {
	case a <= eps && e <= eps:
		return p1, p2
	case a <= eps:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// SegmentDistanceToSegment returns the minimum distance between two line segments.
func SegmentDistanceToSegment(p1, q1, p2, q2 r3.Vector) float64 {
	c1, c2 := ClosestPointsSegmentSegment(p1, q1, p2, q2)
	return c1.Sub(c2).Norm()
}

// PlaneNormal returns the unit normal of the plane through the three points, oriented by the right hand rule.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
