// Package bv implements the bounding volume kinds a hierarchy can be built with.
//
// Every kind fits itself around a point set and answers overlap and distance queries against another volume
// of the same kind expressed in the same frame. Oriented kinds additionally transform their few parameters
// into another frame, which lets a traversal test two hierarchies through one relative transform without
// touching vertex data.
package bv

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

// Volume is implemented by every bounding volume kind. T is the implementing type itself.
type Volume[T any] interface {
	// Kind is the registry code of a hierarchy built from this volume.
	Kind() geometry.NodeType
	// Fit returns a volume of this kind enclosing every point. The receiver is ignored.
	Fit(points []r3.Vector) T
	// Overlap reports whether the two volumes are within margin of each other.
	Overlap(other T, margin float64) bool
	// Distance returns a lower bound on the distance between the volumes, 0 if they overlap.
	Distance(other T) float64
	Center() r3.Vector
	// Size orders volumes for descent; it is the squared diagonal of the bounds.
	Size() float64
	// Interval projects the volume onto the unit axis.
	Interval(axis r3.Vector) (float64, float64)
	// Bounds returns an axis-aligned box containing the volume in its frame.
	Bounds() (r3.Vector, r3.Vector)
}

// Oriented is implemented by volume kinds that carry their own rotation.
type Oriented[T any] interface {
	Volume[T]
	// Transform expresses the volume in the frame reached by x' = rot*x + trans.
	Transform(rot *spatialmath.RotationMatrix, trans r3.Vector) T
}

// OverlapTransformed tests a against b where b is expressed in a frame that maps into a's frame by
// x_a = rot*x_b + trans. Only the parameters of b are transformed.
func OverlapTransformed[T Oriented[T]](a T, rot *spatialmath.RotationMatrix, trans r3.Vector, b T, margin float64) bool {
	return a.Overlap(b.Transform(rot, trans), margin)
}

// DistanceTransformed is the distance counterpart of OverlapTransformed.
func DistanceTransformed[T Oriented[T]](a T, rot *spatialmath.RotationMatrix, trans r3.Vector, b T) float64 {
	return a.Distance(b.Transform(rot, trans))
}

// Corners returns the eight corners of an axis-aligned box.
func Corners(minPt, maxPt r3.Vector) []r3.Vector {
	out := make([]r3.Vector, 0, 8)
	for i := 0; i < 8; i++ {
		c := minPt
		if i&1 != 0 {
			c.X = maxPt.X
		}
		if i&2 != 0 {
			c.Y = maxPt.Y
		}
		if i&4 != 0 {
			c.Z = maxPt.Z
		}
		out = append(out, c)
	}
	return out
}

func boundsOf(pts []r3.Vector) (r3.Vector, r3.Vector) {
	if len(pts) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	minPt, maxPt := pts[0], pts[0]
	for _, p := range pts[1:] {
		minPt = r3.Vector{X: math.Min(minPt.X, p.X), Y: math.Min(minPt.Y, p.Y), Z: math.Min(minPt.Z, p.Z)}
		maxPt = r3.Vector{X: math.Max(maxPt.X, p.X), Y: math.Max(maxPt.Y, p.Y), Z: math.Max(maxPt.Z, p.Z)}
	}
	return minPt, maxPt
}

func absVec(v r3.Vector) r3.Vector {
	return r3.Vector{X: math.Abs(v.X), Y: math.Abs(v.Y), Z: math.Abs(v.Z)}
}

var identityAxes = [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}

// principalAxes returns the eigenvectors of the point covariance, largest variance first, as a right handed
// frame. Degenerate input falls back to the identity frame.
func principalAxes(pts []r3.Vector) [3]r3.Vector {
	if len(pts) < 2 {
		return identityAxes
	}
	var mean r3.Vector
	for _, p := range pts {
		mean = mean.Add(p)
	}
	mean = mean.Mul(1 / float64(len(pts)))

	var cov [6]float64
	for _, p := range pts {
		d := p.Sub(mean)
		cov[0] += d.X * d.X
		cov[1] += d.X * d.Y
		cov[2] += d.X * d.Z
		cov[3] += d.Y * d.Y
		cov[4] += d.Y * d.Z
		cov[5] += d.Z * d.Z
	}
	sym := mat.NewSymDense(3, []float64{
		cov[0], cov[1], cov[2],
		cov[1], cov[3], cov[4],
		cov[2], cov[4], cov[5],
	})

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return identityAxes
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	order := []int{0, 1, 2}
	sort.SliceStable(order, func(i, j int) bool { return values[order[i]] > values[order[j]] })

	var axes [3]r3.Vector
	for i, col := range order[:2] {
		axes[i] = r3.Vector{X: vecs.At(0, col), Y: vecs.At(1, col), Z: vecs.At(2, col)}.Normalize()
	}
	axes[2] = axes[0].Cross(axes[1]).Normalize()
	if axes[2].Norm2() == 0 {
		return identityAxes
	}
	// Re-orthogonalize the second axis against round-off.
	axes[1] = axes[2].Cross(axes[0]).Normalize()
	return axes
}

// projectExtents returns, per axis, the min and max of the point projections.
func projectExtents(pts []r3.Vector, axes *[3]r3.Vector) (lo, hi [3]float64) {
	for i := range lo {
		lo[i], hi[i] = math.Inf(1), math.Inf(-1)
	}
	for _, p := range pts {
		for i, a := range axes {
			d := p.Dot(a)
			lo[i] = math.Min(lo[i], d)
			hi[i] = math.Max(hi[i], d)
		}
	}
	return lo, hi
}

func rotateAxes(rot *spatialmath.RotationMatrix, axes [3]r3.Vector) [3]r3.Vector {
	return [3]r3.Vector{rot.Mul(axes[0]), rot.Mul(axes[1]), rot.Mul(axes[2])}
}
