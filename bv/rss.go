package bv

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// RSS is a rectangle swept sphere: the set of points within Radius of a rectangle centered at Pos, spanned
// by Axes[0] and Axes[1] with half lengths HalfLen. Axes[2] is the rectangle normal.
type RSS struct {
	Pos     r3.Vector
	Axes    [3]r3.Vector
	HalfLen [2]float64
	Radius  float64
}

// Kind returns BVRSS.
func (RSS) Kind() geometry.NodeType { return geometry.BVRSS }

// Fit places the rectangle in the plane of the two largest principal axes and sweeps it by half the
// thickness along the third.
func (RSS) Fit(points []r3.Vector) RSS {
	axes := principalAxes(points)
	return fitRSSAlong(points, axes)
}

func fitRSSAlong(points []r3.Vector, axes [3]r3.Vector) RSS {
	if len(points) == 0 {
		return RSS{Axes: axes}
	}
	lo, hi := projectExtents(points, &axes)
	radius := (hi[2] - lo[2]) / 2
	var center r3.Vector
	for i, a := range axes {
		center = center.Add(a.Mul((lo[i] + hi[i]) / 2))
	}
	return RSS{
		Pos:     center,
		Axes:    axes,
		HalfLen: [2]float64{(hi[0] - lo[0]) / 2, (hi[1] - lo[1]) / 2},
		Radius:  radius,
	}
}

// corners returns the rectangle corners in order around its boundary.
func (r RSS) corners() [4]r3.Vector {
	u := r.Axes[0].Mul(r.HalfLen[0])
	v := r.Axes[1].Mul(r.HalfLen[1])
	return [4]r3.Vector{
		r.Pos.Sub(u).Sub(v),
		r.Pos.Add(u).Sub(v),
		r.Pos.Add(u).Add(v),
		r.Pos.Sub(u).Add(v),
	}
}

// segmentDistance is the distance from segment [p, q] to the filled rectangle.
func (r RSS) segmentDistance(p, q r3.Vector) float64 {
	local := func(x r3.Vector) r3.Vector {
		d := x.Sub(r.Pos)
		return r3.Vector{X: d.Dot(r.Axes[0]), Y: d.Dot(r.Axes[1]), Z: d.Dot(r.Axes[2])}
	}
	inside := func(l r3.Vector) bool {
		return math.Abs(l.X) <= r.HalfLen[0] && math.Abs(l.Y) <= r.HalfLen[1]
	}
	lp, lq := local(p), local(q)
	if lp.Z*lq.Z <= 0 && lp.Z != lq.Z {
		t := lp.Z / (lp.Z - lq.Z)
		if inside(lp.Add(lq.Sub(lp).Mul(t))) {
			return 0
		}
	}
	best := math.Inf(1)
	for _, l := range []r3.Vector{lp, lq} {
		if inside(l) {
			best = math.Min(best, math.Abs(l.Z))
		}
	}
	c := r.corners()
	for i := range c {
		best = math.Min(best, spatialmath.SegmentDistanceToSegment(p, q, c[i], c[(i+1)%4]))
	}
	return best
}

// rectDistance is the distance between the two filled rectangles. Disjoint convex polygons reach their
// minimum distance on a boundary edge of one of them, and intersecting ones have an edge crossing the other.
func (r RSS) rectDistance(b RSS) float64 {
	best := math.Inf(1)
	ca, cb := r.corners(), b.corners()
	for i := range ca {
		best = math.Min(best, b.segmentDistance(ca[i], ca[(i+1)%4]))
		best = math.Min(best, r.segmentDistance(cb[i], cb[(i+1)%4]))
		if best == 0 {
			return 0
		}
	}
	return best
}

// Overlap reports whether the swept volumes come within margin.
func (r RSS) Overlap(b RSS, margin float64) bool {
	return r.rectDistance(b) <= r.Radius+b.Radius+margin
}

// Distance returns the exact distance between the swept volumes.
func (r RSS) Distance(b RSS) float64 {
	return math.Max(0, r.rectDistance(b)-r.Radius-b.Radius)
}

// Center returns the rectangle center.
func (r RSS) Center() r3.Vector { return r.Pos }

// Size returns the squared diagonal of the swept volume.
func (r RSS) Size() float64 {
	h := r.HalfLen[0]*r.HalfLen[0] + r.HalfLen[1]*r.HalfLen[1]
	return 4 * (h + r.Radius*r.Radius)
}

// Interval projects the volume onto axis.
func (r RSS) Interval(axis r3.Vector) (float64, float64) {
	c := r.Pos.Dot(axis)
	ext := r.HalfLen[0]*math.Abs(r.Axes[0].Dot(axis)) + r.HalfLen[1]*math.Abs(r.Axes[1].Dot(axis)) + r.Radius*axis.Norm()
	return c - ext, c + ext
}

// Bounds returns the axis-aligned box containing the volume.
func (r RSS) Bounds() (r3.Vector, r3.Vector) {
	ext := absVec(r.Axes[0]).Mul(r.HalfLen[0]).Add(absVec(r.Axes[1]).Mul(r.HalfLen[1])).
		Add(r3.Vector{X: r.Radius, Y: r.Radius, Z: r.Radius})
	return r.Pos.Sub(ext), r.Pos.Add(ext)
}

// Transform moves the volume by x' = rot*x + trans.
func (r RSS) Transform(rot *spatialmath.RotationMatrix, trans r3.Vector) RSS {
	return RSS{Pos: rot.Mul(r.Pos).Add(trans), Axes: rotateAxes(rot, r.Axes), HalfLen: r.HalfLen, Radius: r.Radius}
}
