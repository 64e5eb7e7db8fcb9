package narrowphase

import (
	"math"

	"github.com/golang/geo/r3"
)

// epaTolerance bounds the gap between the closest face and the support point along its normal at which the
// expansion stops. Curved supports only approach the face.
const epaTolerance = 1e-8

// epaFace is a triangle of the expanding polytope with its outward unit normal and distance to the origin.
type epaFace struct {
	i, j, k int
	normal  r3.Vector
	dist    float64
}

type epaEdge struct{ from, to int }

func (f epaFace) edges() [3]epaEdge {
	return [3]epaEdge{{f.i, f.j}, {f.j, f.k}, {f.k, f.i}}
}

// sees reports whether p lies strictly in front of the face.
func (f epaFace) sees(verts []vertex, p r3.Vector, eps float64) bool {
	return f.normal.Dot(p.Sub(verts[f.i].w)) > eps
}

// newEPAFace builds the face (i, j, k) with its normal taken from the winding. Slivers are rejected.
func newEPAFace(verts []vertex, i, j, k int) (epaFace, bool) {
	a, b, c := verts[i].w, verts[j].w, verts[k].w
	ab, ac := b.Sub(a), c.Sub(a)
	n := ab.Cross(ac)
	l := n.Norm()
	if l == 0 || l <= 1e-12*ab.Norm()*ac.Norm() {
		return epaFace{}, false
	}
	n = n.Mul(1 / l)
	return epaFace{i: i, j: j, k: k, normal: n, dist: n.Dot(a)}, true
}

// originFeature reduces a GJK simplex that contains the origin to its smallest non-degenerate feature that
// still contains it. Lengths below eps, areas below eps*scale and volumes below eps*scale^2 are degenerate.
func originFeature(simplex []vertex, eps, scale float64) []vertex {
	switch len(simplex) {
	case 4:
		a := simplex[0].w
		vol := simplex[1].w.Sub(a).Dot(simplex[2].w.Sub(a).Cross(simplex[3].w.Sub(a)))
		if math.Abs(vol) > eps*scale*scale {
			return simplex
		}
		var best weighted
		bestDist := math.Inf(1)
		for _, f := range [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}} {
			s := closestOnTriangle(simplex[f[0]], simplex[f[1]], simplex[f[2]])
			if d := s.point().Norm2(); d < bestDist {
				best, bestDist = s, d
			}
		}
		return originFeature(best.verts, eps, scale)
	case 3:
		a := simplex[0].w
		if simplex[1].w.Sub(a).Cross(simplex[2].w.Sub(a)).Norm() > eps*scale {
			return simplex
		}
		var best weighted
		bestDist := math.Inf(1)
		for _, e := range [3][2]int{{0, 1}, {1, 2}, {0, 2}} {
			s := closestOnSegment(simplex[e[0]], simplex[e[1]])
			if d := s.point().Norm2(); d < bestDist {
				best, bestDist = s, d
			}
		}
		return originFeature(best.verts, eps, scale)
	case 2:
		if simplex[1].w.Sub(simplex[0].w).Norm() > eps {
			return simplex
		}
		return simplex[:1]
	}
	return simplex
}

// offHull is the distance from p to the affine hull of verts, which has one to three points.
func offHull(verts []vertex, p r3.Vector) float64 {
	d := p.Sub(verts[0].w)
	switch len(verts) {
	case 1:
		return d.Norm()
	case 2:
		return d.Cross(verts[1].w.Sub(verts[0].w).Normalize()).Norm()
	default:
		n := verts[1].w.Sub(verts[0].w).Cross(verts[2].w.Sub(verts[0].w)).Normalize()
		return math.Abs(d.Dot(n))
	}
}

// initialTetrahedron grows the feature of the GJK simplex containing the origin into a tetrahedron of
// support points. Each added point lies off the current hull, so the origin stays enclosed. It returns nil
// when the Minkowski difference is flat, as for coplanar triangles.
func initialTetrahedron(a, b placed, simplex []vertex, eps, scale float64) []vertex {
	verts := append([]vertex(nil), originFeature(simplex, eps, scale)...)
	for len(verts) < 4 {
		var dirs []r3.Vector
		switch len(verts) {
		case 1:
			dirs = []r3.Vector{{X: 1}, {Y: 1}, {Z: 1}, {X: -1}, {Y: -1}, {Z: -1}}
		case 2:
			line := verts[1].w.Sub(verts[0].w)
			p := line.Ortho()
			q := line.Cross(p).Normalize()
			dirs = []r3.Vector{p, p.Mul(-1), q, q.Mul(-1)}
		default:
			n := verts[1].w.Sub(verts[0].w).Cross(verts[2].w.Sub(verts[0].w)).Normalize()
			dirs = []r3.Vector{n, n.Mul(-1)}
		}
		var next vertex
		far := eps
		for _, d := range dirs {
			w := minkowskiSupport(a, b, d)
			if off := offHull(verts, w.w); off > far {
				next, far = w, off
			}
		}
		if far == eps {
			return nil
		}
		verts = append(verts, next)
	}
	return verts
}

func closestFace(faces []epaFace) int {
	bi := 0
	for fi, f := range faces {
		if f.dist < faces[bi].dist {
			bi = fi
		}
	}
	return bi
}

// expand replaces the faces visible from verts[wi] with a fan joining the horizon to it. Visibility is
// flooded from start across shared edges so the removed region stays connected. It returns false, leaving
// faces untouched, when a new face would be a sliver or point back toward the interior.
func expand(faces []epaFace, verts []vertex, start, wi int, interior r3.Vector, eps float64) ([]epaFace, bool) {
	w := verts[wi].w
	owner := make(map[epaEdge]int, 3*len(faces))
	for fi, f := range faces {
		for _, e := range f.edges() {
			owner[e] = fi
		}
	}

	visible := make([]bool, len(faces))
	visible[start] = true
	stack := []int{start}
	var horizon []epaEdge
	for len(stack) > 0 {
		fi := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range faces[fi].edges() {
			ni, ok := owner[epaEdge{e.to, e.from}]
			if !ok {
				return faces, false
			}
			if visible[ni] {
				continue
			}
			if faces[ni].sees(verts, w, eps) {
				visible[ni] = true
				stack = append(stack, ni)
				continue
			}
			horizon = append(horizon, e)
		}
	}

	added := make([]epaFace, 0, len(horizon))
	for _, e := range horizon {
		f, ok := newEPAFace(verts, e.from, e.to, wi)
		if !ok || f.normal.Dot(verts[e.from].w.Sub(interior)) <= 0 {
			return faces, false
		}
		added = append(added, f)
	}

	kept := make([]epaFace, 0, len(faces)+len(added))
	for fi, f := range faces {
		if !visible[fi] {
			kept = append(kept, f)
		}
	}
	return append(kept, added...), true
}

// penetration runs EPA on the cores of a and b starting from the GJK simplex and inflates the result by the
// radii. Flat configurations report a touching contact.
func (s *GJKSolver) penetration(a, b placed, simplex []vertex) DistanceResult {
	scale := 1.0
	for _, v := range simplex {
		scale = math.Max(scale, v.w.Norm())
	}
	eps := 1e-10 * scale

	verts := initialTetrahedron(a, b, simplex, eps, scale)
	if verts == nil {
		return s.touching(a, b, simplex)
	}
	interior := verts[0].w.Add(verts[1].w).Add(verts[2].w).Add(verts[3].w).Mul(0.25)

	faces := make([]epaFace, 0, 4)
	for _, f := range [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}} {
		face, ok := newEPAFace(verts, f[0], f[1], f[2])
		if !ok {
			return s.touching(a, b, simplex)
		}
		if face.normal.Dot(verts[f[0]].w.Sub(interior)) < 0 {
			face, _ = newEPAFace(verts, f[0], f[2], f[1])
		}
		faces = append(faces, face)
	}

	tol := math.Max(s.Tolerance, epaTolerance)
	for iter := 0; iter < s.MaxIterations; iter++ {
		bi := closestFace(faces)
		best := faces[bi]
		w := minkowskiSupport(a, b, best.normal)
		if w.w.Dot(best.normal)-best.dist <= tol*math.Max(1, best.dist) || known(verts, w.w, eps) {
			break
		}
		verts = append(verts, w)
		next, ok := expand(faces, verts, bi, len(verts)-1, interior, eps)
		if !ok {
			break
		}
		faces = next
	}
	best := faces[closestFace(faces)]

	// Witnesses from the barycentric coordinates of the origin's projection on the closest face.
	p := best.normal.Mul(best.dist)
	u, v, w := barycentric(p, verts[best.i].w, verts[best.j].w, verts[best.k].w)
	pa := verts[best.i].a.Mul(u).Add(verts[best.j].a.Mul(v)).Add(verts[best.k].a.Mul(w))
	pb := verts[best.i].b.Mul(u).Add(verts[best.j].b.Mul(v)).Add(verts[best.k].b.Mul(w))

	// The face normal points out of A - B, which is the direction B must move to separate.
	n := best.normal
	return DistanceResult{
		Distance: -(best.dist + a.radius + b.radius),
		P1:       pa.Add(n.Mul(a.radius)),
		P2:       pb.Sub(n.Mul(b.radius)),
		Normal:   n,
		Guess:    n,
	}
}

// known reports whether p coincides with a polytope vertex.
func known(verts []vertex, p r3.Vector, eps float64) bool {
	for _, v := range verts {
		if v.w.Sub(p).Norm() <= eps {
			return true
		}
	}
	return false
}

// touching reports zero core penetration for flat Minkowski differences.
func (s *GJKSolver) touching(a, b placed, simplex []vertex) DistanceResult {
	pa, pb := simplex[0].a, simplex[0].b
	n := b.center().Sub(a.center())
	if n.Norm2() < 1e-20 {
		n = r3.Vector{Z: 1}
	}
	n = n.Normalize()
	return DistanceResult{
		Distance: -(a.radius + b.radius),
		P1:       pa.Add(n.Mul(a.radius)),
		P2:       pb.Sub(n.Mul(b.radius)),
		Normal:   n,
		Guess:    n,
	}
}

// barycentric returns the coordinates of p with respect to triangle (a, b, c). Ericson 3.4.
func barycentric(p, a, b, c r3.Vector) (float64, float64, float64) {
	v0, v1, v2 := b.Sub(a), c.Sub(a), p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-300 {
		return 1, 0, 0
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return 1 - v - w, v, w
}
