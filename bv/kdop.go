package bv

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
)

// kdopDirections are the slab normals shared by every k-DOP: the three axes, the six face diagonals and
// three body diagonals. A k-DOP uses the first k/2 of them.
var kdopDirections = [12]r3.Vector{
	{X: 1}, {Y: 1}, {Z: 1},
	{X: 1, Y: 1}, {X: 1, Z: 1}, {Y: 1, Z: 1},
	{X: 1, Y: -1}, {X: 1, Z: -1}, {Y: 1, Z: -1},
	{X: 1, Y: 1, Z: -1}, {X: 1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: 1},
}

// kdop is a discrete oriented polytope with n slabs. Slab i is lo[i] <= dir_i . x <= hi[i].
type kdop struct {
	n      int
	lo, hi [12]float64
}

func fitKDOP(n int, points []r3.Vector) kdop {
	k := kdop{n: n}
	for i := 0; i < n; i++ {
		k.lo[i], k.hi[i] = math.Inf(1), math.Inf(-1)
	}
	for _, p := range points {
		for i := 0; i < n; i++ {
			d := kdopDirections[i].Dot(p)
			k.lo[i] = math.Min(k.lo[i], d)
			k.hi[i] = math.Max(k.hi[i], d)
		}
	}
	if len(points) == 0 {
		k.lo, k.hi = [12]float64{}, [12]float64{}
	}
	return k
}

func (k kdop) overlap(b kdop, margin float64) bool {
	for i := 0; i < k.n; i++ {
		m := margin * kdopDirections[i].Norm()
		if k.lo[i] > b.hi[i]+m || b.lo[i] > k.hi[i]+m {
			return false
		}
	}
	return true
}

func (k kdop) distance(b kdop) float64 {
	var best float64
	for i := 0; i < k.n; i++ {
		gap := math.Max(k.lo[i]-b.hi[i], b.lo[i]-k.hi[i]) / kdopDirections[i].Norm()
		best = math.Max(best, gap)
	}
	return best
}

func (k kdop) bounds() (r3.Vector, r3.Vector) {
	return r3.Vector{X: k.lo[0], Y: k.lo[1], Z: k.lo[2]}, r3.Vector{X: k.hi[0], Y: k.hi[1], Z: k.hi[2]}
}

func (k kdop) center() r3.Vector {
	lo, hi := k.bounds()
	return lo.Add(hi).Mul(0.5)
}

func (k kdop) size() float64 {
	lo, hi := k.bounds()
	return hi.Sub(lo).Norm2()
}

func (k kdop) interval(axis r3.Vector) (float64, float64) {
	lo, hi := k.bounds()
	return AABB{lo, hi}.Interval(axis)
}

// KDOP16 is a 16-DOP (8 slabs).
type KDOP16 struct{ kdop }

// Kind returns BVKDOP16.
func (KDOP16) Kind() geometry.NodeType { return geometry.BVKDOP16 }

// Fit returns the tightest 16-DOP around the points.
func (KDOP16) Fit(points []r3.Vector) KDOP16 { return KDOP16{fitKDOP(8, points)} }

// Overlap reports whether every slab pair is within margin.
func (k KDOP16) Overlap(b KDOP16, margin float64) bool { return k.overlap(b.kdop, margin) }

// Distance returns the largest slab gap.
func (k KDOP16) Distance(b KDOP16) float64 { return k.distance(b.kdop) }

// Center returns the center of the axis slabs.
func (k KDOP16) Center() r3.Vector { return k.center() }

// Size returns the squared diagonal of the axis slabs.
func (k KDOP16) Size() float64 { return k.size() }

// Interval projects the axis slabs onto axis.
func (k KDOP16) Interval(axis r3.Vector) (float64, float64) { return k.interval(axis) }

// Bounds returns the axis slabs.
func (k KDOP16) Bounds() (r3.Vector, r3.Vector) { return k.bounds() }

// KDOP18 is an 18-DOP (9 slabs).
type KDOP18 struct{ kdop }

// Kind returns BVKDOP18.
func (KDOP18) Kind() geometry.NodeType { return geometry.BVKDOP18 }

// Fit returns the tightest 18-DOP around the points.
func (KDOP18) Fit(points []r3.Vector) KDOP18 { return KDOP18{fitKDOP(9, points)} }

// Overlap reports whether every slab pair is within margin.
func (k KDOP18) Overlap(b KDOP18, margin float64) bool { return k.overlap(b.kdop, margin) }

// Distance returns the largest slab gap.
func (k KDOP18) Distance(b KDOP18) float64 { return k.distance(b.kdop) }

// Center returns the center of the axis slabs.
func (k KDOP18) Center() r3.Vector { return k.center() }

// Size returns the squared diagonal of the axis slabs.
func (k KDOP18) Size() float64 { return k.size() }

// Interval projects the axis slabs onto axis.
func (k KDOP18) Interval(axis r3.Vector) (float64, float64) { return k.interval(axis) }

// Bounds returns the axis slabs.
func (k KDOP18) Bounds() (r3.Vector, r3.Vector) { return k.bounds() }

// KDOP24 is a 24-DOP (12 slabs).
type KDOP24 struct{ kdop }

// Kind returns BVKDOP24.
func (KDOP24) Kind() geometry.NodeType { return geometry.BVKDOP24 }

// Fit returns the tightest 24-DOP around the points.
func (KDOP24) Fit(points []r3.Vector) KDOP24 { return KDOP24{fitKDOP(12, points)} }

// Overlap reports whether every slab pair is within margin.
func (k KDOP24) Overlap(b KDOP24, margin float64) bool { return k.overlap(b.kdop, margin) }

// Distance returns the largest slab gap.
func (k KDOP24) Distance(b KDOP24) float64 { return k.distance(b.kdop) }

// Center returns the center of the axis slabs.
func (k KDOP24) Center() r3.Vector { return k.center() }

// Size returns the squared diagonal of the axis slabs.
func (k KDOP24) Size() float64 { return k.size() }

// Interval projects the axis slabs onto axis.
func (k KDOP24) Interval(axis r3.Vector) (float64, float64) { return k.interval(axis) }

// Bounds returns the axis slabs.
func (k KDOP24) Bounds() (r3.Vector, r3.Vector) { return k.bounds() }
