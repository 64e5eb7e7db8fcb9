package bv

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max r3.Vector
}

// NewAABB returns the box spanned by two corners in any order.
func NewAABB(a, b r3.Vector) AABB {
	return AABB{}.Fit([]r3.Vector{a, b})
}

// Kind returns BVAABB.
func (AABB) Kind() geometry.NodeType { return geometry.BVAABB }

// Fit returns the tightest AABB around the points.
func (AABB) Fit(points []r3.Vector) AABB {
	minPt, maxPt := boundsOf(points)
	return AABB{minPt, maxPt}
}

// Overlap reports whether the boxes are within margin on every axis.
func (a AABB) Overlap(b AABB, margin float64) bool {
	return a.Min.X <= b.Max.X+margin && b.Min.X <= a.Max.X+margin &&
		a.Min.Y <= b.Max.Y+margin && b.Min.Y <= a.Max.Y+margin &&
		a.Min.Z <= b.Max.Z+margin && b.Min.Z <= a.Max.Z+margin
}

// Distance returns the Euclidean distance between the boxes.
func (a AABB) Distance(b AABB) float64 {
	gap := func(aMin, aMax, bMin, bMax float64) float64 {
		return math.Max(0, math.Max(bMin-aMax, aMin-bMax))
	}
	return r3.Vector{
		X: gap(a.Min.X, a.Max.X, b.Min.X, b.Max.X),
		Y: gap(a.Min.Y, a.Max.Y, b.Min.Y, b.Max.Y),
		Z: gap(a.Min.Z, a.Max.Z, b.Min.Z, b.Max.Z),
	}.Norm()
}

// Center returns the midpoint of the box.
func (a AABB) Center() r3.Vector { return a.Min.Add(a.Max).Mul(0.5) }

// Size returns the squared diagonal.
func (a AABB) Size() float64 { return a.Max.Sub(a.Min).Norm2() }

// Interval projects the box onto axis.
func (a AABB) Interval(axis r3.Vector) (float64, float64) {
	c := a.Center().Dot(axis)
	r := a.Max.Sub(a.Min).Mul(0.5).Dot(absVec(axis))
	return c - r, c + r
}

// Bounds returns the box itself.
func (a AABB) Bounds() (r3.Vector, r3.Vector) { return a.Min, a.Max }

// Union returns the smallest box containing both.
func (a AABB) Union(b AABB) AABB {
	return AABB{}.Fit([]r3.Vector{a.Min, a.Max, b.Min, b.Max})
}

// Contains reports whether pt lies inside the box.
func (a AABB) Contains(pt r3.Vector) bool {
	return pt.X >= a.Min.X && pt.X <= a.Max.X && pt.Y >= a.Min.Y && pt.Y <= a.Max.Y && pt.Z >= a.Min.Z && pt.Z <= a.Max.Z
}
