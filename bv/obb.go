package bv

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// OBB is an oriented bounding box: a center, three orthonormal axes and the half extents along them.
type OBB struct {
	Pos    r3.Vector
	Axes   [3]r3.Vector
	Extent r3.Vector
}

// NewOBB builds an OBB from its parts.
func NewOBB(center r3.Vector, axes [3]r3.Vector, extent r3.Vector) OBB {
	return OBB{Pos: center, Axes: axes, Extent: extent}
}

// Kind returns BVOBB.
func (OBB) Kind() geometry.NodeType { return geometry.BVOBB }

// Fit aligns the box with the principal axes of the points.
func (OBB) Fit(points []r3.Vector) OBB {
	axes := principalAxes(points)
	return fitOBBAlong(points, axes)
}

func fitOBBAlong(points []r3.Vector, axes [3]r3.Vector) OBB {
	if len(points) == 0 {
		return OBB{Axes: axes}
	}
	lo, hi := projectExtents(points, &axes)
	var center r3.Vector
	for i, a := range axes {
		center = center.Add(a.Mul((lo[i] + hi[i]) / 2))
	}
	return OBB{
		Pos:    center,
		Axes:   axes,
		Extent: r3.Vector{X: (hi[0] - lo[0]) / 2, Y: (hi[1] - lo[1]) / 2, Z: (hi[2] - lo[2]) / 2},
	}
}

// separation is the SAT gap between the boxes; positive when separated.
func (o OBB) separation(b OBB) float64 {
	return spatialmath.OBBSeparation(&o.Axes, &b.Axes, o.Extent, b.Extent, b.Pos.Sub(o.Pos))
}

// Overlap reports whether no separating axis shows a gap larger than margin.
func (o OBB) Overlap(b OBB, margin float64) bool {
	return o.separation(b) <= margin
}

// Distance returns the largest SAT gap, which bounds the true distance from below.
func (o OBB) Distance(b OBB) float64 {
	return math.Max(0, o.separation(b))
}

// Center returns the box center.
func (o OBB) Center() r3.Vector { return o.Pos }

// Size returns the squared diagonal.
func (o OBB) Size() float64 { return o.Extent.Mul(2).Norm2() }

// Interval projects the box onto axis.
func (o OBB) Interval(axis r3.Vector) (float64, float64) {
	c := o.Pos.Dot(axis)
	r := o.Extent.X*math.Abs(o.Axes[0].Dot(axis)) + o.Extent.Y*math.Abs(o.Axes[1].Dot(axis)) +
		o.Extent.Z*math.Abs(o.Axes[2].Dot(axis))
	return c - r, c + r
}

// Bounds returns the axis-aligned box containing the OBB.
func (o OBB) Bounds() (r3.Vector, r3.Vector) {
	r := absVec(o.Axes[0]).Mul(o.Extent.X).Add(absVec(o.Axes[1]).Mul(o.Extent.Y)).Add(absVec(o.Axes[2]).Mul(o.Extent.Z))
	return o.Pos.Sub(r), o.Pos.Add(r)
}

// Transform moves the box by x' = rot*x + trans.
func (o OBB) Transform(rot *spatialmath.RotationMatrix, trans r3.Vector) OBB {
	return OBB{Pos: rot.Mul(o.Pos).Add(trans), Axes: rotateAxes(rot, o.Axes), Extent: o.Extent}
}

// OBBFromAABB returns the OBB equal to an axis-aligned box.
func OBBFromAABB(minPt, maxPt r3.Vector) OBB {
	return OBB{Pos: minPt.Add(maxPt).Mul(0.5), Axes: identityAxes, Extent: maxPt.Sub(minPt).Mul(0.5)}
}
