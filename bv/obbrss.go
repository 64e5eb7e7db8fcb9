package bv

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// OBBRSS pairs an OBB, used for overlap tests, with an RSS sharing its axes, used for distances.
type OBBRSS struct {
	OBB OBB
	RSS RSS
}

// Kind returns BVOBBRSS.
func (OBBRSS) Kind() geometry.NodeType { return geometry.BVOBBRSS }

// Fit fits both volumes along the same principal axes.
func (OBBRSS) Fit(points []r3.Vector) OBBRSS {
	axes := principalAxes(points)
	return OBBRSS{OBB: fitOBBAlong(points, axes), RSS: fitRSSAlong(points, axes)}
}

// Overlap tests the OBBs.
func (o OBBRSS) Overlap(b OBBRSS, margin float64) bool {
	return o.OBB.Overlap(b.OBB, margin)
}

// Distance returns the larger of the RSS distance and the OBB gap.
func (o OBBRSS) Distance(b OBBRSS) float64 {
	return math.Max(o.RSS.Distance(b.RSS), o.OBB.Distance(b.OBB))
}

// Center returns the OBB center.
func (o OBBRSS) Center() r3.Vector { return o.OBB.Pos }

// Size returns the squared OBB diagonal.
func (o OBBRSS) Size() float64 { return o.OBB.Size() }

// Interval intersects the projections of both volumes.
func (o OBBRSS) Interval(axis r3.Vector) (float64, float64) {
	lo1, hi1 := o.OBB.Interval(axis)
	lo2, hi2 := o.RSS.Interval(axis)
	return math.Max(lo1, lo2), math.Min(hi1, hi2)
}

// Bounds returns the axis-aligned box of the OBB.
func (o OBBRSS) Bounds() (r3.Vector, r3.Vector) { return o.OBB.Bounds() }

// Transform moves both volumes by x' = rot*x + trans.
func (o OBBRSS) Transform(rot *spatialmath.RotationMatrix, trans r3.Vector) OBBRSS {
	return OBBRSS{OBB: o.OBB.Transform(rot, trans), RSS: o.RSS.Transform(rot, trans)}
}
