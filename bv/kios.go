package bv

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// Sphere is one bounding sphere of a KIOS.
type Sphere struct {
	C r3.Vector
	R float64
}

// KIOS is an intersection of up to five spheres together with an OBB. Each sphere and the OBB contain every
// fitted point, so the volume is their intersection.
type KIOS struct {
	Spheres []Sphere
	OBB     OBB
}

// Kind returns BVKIOS.
func (KIOS) Kind() geometry.NodeType { return geometry.BVKIOS }

// Fit fits the OBB first and then one, three or five spheres depending on how elongated it is.
func (KIOS) Fit(points []r3.Vector) KIOS {
	obb := OBB{}.Fit(points)
	centers := []r3.Vector{obb.Pos}
	const ratio = 1.5
	if obb.Extent.X > ratio*obb.Extent.Y {
		off := obb.Axes[0].Mul(obb.Extent.X / 2)
		centers = append(centers, obb.Pos.Add(off), obb.Pos.Sub(off))
		if obb.Extent.Y > ratio*obb.Extent.Z {
			off = obb.Axes[1].Mul(obb.Extent.Y / 2)
			centers = append(centers, obb.Pos.Add(off), obb.Pos.Sub(off))
		}
	}
	spheres := make([]Sphere, len(centers))
	for i, c := range centers {
		var r float64
		for _, p := range points {
			r = math.Max(r, p.Sub(c).Norm())
		}
		spheres[i] = Sphere{C: c, R: r}
	}
	return KIOS{Spheres: spheres, OBB: obb}
}

// Overlap requires every sphere pair and the OBBs to be within margin.
func (k KIOS) Overlap(b KIOS, margin float64) bool {
	for _, s1 := range k.Spheres {
		for _, s2 := range b.Spheres {
			if s1.C.Sub(s2.C).Norm() > s1.R+s2.R+margin {
				return false
			}
		}
	}
	return k.OBB.Overlap(b.OBB, margin)
}

// Distance returns the best lower bound among sphere pairs and the OBB gap.
func (k KIOS) Distance(b KIOS) float64 {
	best := k.OBB.Distance(b.OBB)
	for _, s1 := range k.Spheres {
		for _, s2 := range b.Spheres {
			best = math.Max(best, s1.C.Sub(s2.C).Norm()-s1.R-s2.R)
		}
	}
	return best
}

// Center returns the OBB center.
func (k KIOS) Center() r3.Vector { return k.OBB.Pos }

// Size returns the squared OBB diagonal.
func (k KIOS) Size() float64 { return k.OBB.Size() }

// Interval intersects the projections of the OBB and every sphere.
func (k KIOS) Interval(axis r3.Vector) (float64, float64) {
	lo, hi := k.OBB.Interval(axis)
	n := axis.Norm()
	for _, s := range k.Spheres {
		c := s.C.Dot(axis)
		lo = math.Max(lo, c-s.R*n)
		hi = math.Min(hi, c+s.R*n)
	}
	return lo, hi
}

// Bounds returns the axis-aligned box of the OBB.
func (k KIOS) Bounds() (r3.Vector, r3.Vector) { return k.OBB.Bounds() }

// Transform moves the volume by x' = rot*x + trans.
func (k KIOS) Transform(rot *spatialmath.RotationMatrix, trans r3.Vector) KIOS {
	spheres := make([]Sphere, len(k.Spheres))
	for i, s := range k.Spheres {
		spheres[i] = Sphere{C: rot.Mul(s.C).Add(trans), R: s.R}
	}
	return KIOS{Spheres: spheres, OBB: k.OBB.Transform(rot, trans)}
}
