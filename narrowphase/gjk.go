package narrowphase

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/spatialmath"
)

type supporter interface {
	Support(dir r3.Vector) r3.Vector
}

type pointCore struct{}

func (pointCore) Support(r3.Vector) r3.Vector { return r3.Vector{} }

type segmentCore struct{ halfLength float64 }

func (s segmentCore) Support(dir r3.Vector) r3.Vector {
	if dir.Z < 0 {
		return r3.Vector{Z: -s.halfLength}
	}
	return r3.Vector{Z: s.halfLength}
}

// placed is a bounded convex shape in the world frame, split into a core and a sweep radius so that spheres
// and capsules are handled exactly by GJK on points and segments.
type placed struct {
	core   supporter
	radius float64
	rot    *spatialmath.RotationMatrix
	trans  r3.Vector
}

func newPlaced(s geometry.Shape, tf spatialmath.Pose) placed {
	p := placed{rot: tf.Orientation().RotationMatrix(), trans: tf.Point()}
	switch g := s.(type) {
	case *geometry.Sphere:
		p.core, p.radius = pointCore{}, g.Radius
	case *geometry.Capsule:
		p.core, p.radius = segmentCore{g.HalfLength}, g.Radius
	case geometry.ConvexShape:
		p.core = g
	default:
		p.core = pointCore{}
	}
	return p
}

func (p placed) support(dir r3.Vector) r3.Vector {
	return p.rot.Mul(p.core.Support(p.rot.TransposeMul(dir))).Add(p.trans)
}

func (p placed) center() r3.Vector { return p.trans }

// vertex is a point of the Minkowski difference A - B together with the points of A and B that produced it.
type vertex struct {
	w, a, b r3.Vector
}

func minkowskiSupport(a, b placed, dir r3.Vector) vertex {
	pa := a.support(dir)
	pb := b.support(dir.Mul(-1))
	return vertex{w: pa.Sub(pb), a: pa, b: pb}
}

// weighted is a simplex reduced to the features closest to the origin, with the barycentric weights of the
// closest point.
type weighted struct {
	verts   []vertex
	weights []float64
}

func (s weighted) point() r3.Vector {
	var v r3.Vector
	for i, vt := range s.verts {
		v = v.Add(vt.w.Mul(s.weights[i]))
	}
	return v
}

func (s weighted) witnesses() (r3.Vector, r3.Vector) {
	var pa, pb r3.Vector
	for i, vt := range s.verts {
		pa = pa.Add(vt.a.Mul(s.weights[i]))
		pb = pb.Add(vt.b.Mul(s.weights[i]))
	}
	return pa, pb
}

// closestOnSegment returns the closest point of segment [a,b] to the origin.
func closestOnSegment(a, b vertex) weighted {
	ab := b.w.Sub(a.w)
	denom := ab.Norm2()
	if denom < 1e-30 {
		return weighted{[]vertex{a}, []float64{1}}
	}
	t := a.w.Mul(-1).Dot(ab) / denom
	if t <= 0 {
		return weighted{[]vertex{a}, []float64{1}}
	}
	if t >= 1 {
		return weighted{[]vertex{b}, []float64{1}}
	}
	return weighted{[]vertex{a, b}, []float64{1 - t, t}}
}

// closestOnTriangle returns the closest point of triangle [a,b,c] to the origin using Ericson's Voronoi
// region method from "Real-Time Collision Detection".
func closestOnTriangle(a, b, c vertex) weighted {
	ab := b.w.Sub(a.w)
	ac := c.w.Sub(a.w)
	ao := a.w.Mul(-1)

	d1 := ab.Dot(ao)
	d2 := ac.Dot(ao)
	if d1 <= 0 && d2 <= 0 {
		return weighted{[]vertex{a}, []float64{1}}
	}

	bo := b.w.Mul(-1)
	d3 := ab.Dot(bo)
	d4 := ac.Dot(bo)
	if d3 >= 0 && d4 <= d3 {
		return weighted{[]vertex{b}, []float64{1}}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return weighted{[]vertex{a, b}, []float64{1 - v, v}}
	}

	co := c.w.Mul(-1)
	d5 := ab.Dot(co)
	d6 := ac.Dot(co)
	if d6 >= 0 && d5 <= d6 {
		return weighted{[]vertex{c}, []float64{1}}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return weighted{[]vertex{a, c}, []float64{1 - w, w}}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return weighted{[]vertex{b, c}, []float64{1 - w, w}}
	}

	denom := va + vb + vc
	if math.Abs(denom) < 1e-300 {
		return closestOnSegment(a, b)
	}
	v := vb / denom
	w := vc / denom
	return weighted{[]vertex{a, b, c}, []float64{1 - v - w, v, w}}
}

// originInTetrahedron checks whether the origin is on the interior side of every face.
func originInTetrahedron(pts []vertex) bool {
	faces := [4][4]int{{0, 1, 2, 3}, {0, 1, 3, 2}, {0, 2, 3, 1}, {1, 2, 3, 0}}
	for _, f := range faces {
		p0, p1, p2 := pts[f[0]].w, pts[f[1]].w, pts[f[2]].w
		normal := p1.Sub(p0).Cross(p2.Sub(p0))
		dOrigin := normal.Dot(p0.Mul(-1))
		dOpp := normal.Dot(pts[f[3]].w.Sub(p0))
		if dOrigin*dOpp < 0 {
			return false
		}
	}
	return true
}

// closestOnTetrahedron returns the closest point of the tetrahedron to the origin. inside is true when the
// origin is enclosed.
func closestOnTetrahedron(pts []vertex) (weighted, bool) {
	if originInTetrahedron(pts) {
		return weighted{verts: pts}, true
	}
	faces := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	bestDist := math.Inf(1)
	var best weighted
	for _, f := range faces {
		s := closestOnTriangle(pts[f[0]], pts[f[1]], pts[f[2]])
		if d := s.point().Norm2(); d < bestDist {
			bestDist = d
			best = s
		}
	}
	return best, false
}

// gjk computes the distance between the cores of a and b and inflates it by their radii. Overlapping cores
// are handed to EPA.
func (s *GJKSolver) gjk(a, b placed, dir r3.Vector) DistanceResult {
	if dir.Norm2() < 1e-20 {
		dir = r3.Vector{X: 1}
	}
	w := minkowskiSupport(a, b, dir)
	simplex := weighted{[]vertex{w}, []float64{1}}
	v := w.w

	eps := s.Tolerance
	for iter := 0; iter < s.MaxIterations; iter++ {
		vv := v.Norm2()
		if vv < 1e-20 {
			return s.penetration(a, b, simplex.verts)
		}

		w = minkowskiSupport(a, b, v.Mul(-1))
		if vv-v.Dot(w.w) <= eps*vv {
			break
		}

		verts := append(append([]vertex(nil), simplex.verts...), w)
		switch len(verts) {
		case 2:
			simplex = closestOnSegment(verts[0], verts[1])
		case 3:
			simplex = closestOnTriangle(verts[0], verts[1], verts[2])
		case 4:
			var inside bool
			if simplex, inside = closestOnTetrahedron(verts); inside {
				return s.penetration(a, b, verts)
			}
		}
		v = simplex.point()
	}

	pa, pb := simplex.witnesses()
	return inflate(pa, pb, a.radius, b.radius, fallbackNormal(v, r3.Vector{}))
}
