package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Triangle is a world-space triangle with its unit normal.
type Triangle struct {
	p0, p1, p2 r3.Vector
	normal     r3.Vector
}

// NewTriangle returns the triangle p0, p1, p2; the normal follows the right hand rule.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{p0: p0, p1: p1, p2: p2, normal: PlaneNormal(p0, p1, p2)}
}

// Points returns the corners in order.
func (t *Triangle) Points() []r3.Vector { return []r3.Vector{t.p0, t.p1, t.p2} }

// Normal is zero for a degenerate triangle.
func (t *Triangle) Normal() r3.Vector { return t.normal }

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return 0.5 * t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm()
}

// Centroid returns the centroid of the triangle.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3.)
}

// Transform returns the triangle with all of its points moved by the pose.
func (t *Triangle) Transform(p Pose) *Triangle {
	rm := p.Orientation().RotationMatrix()
	pt := p.Point()
	return NewTriangle(rm.Mul(t.p0).Add(pt), rm.Mul(t.p1).Add(pt), rm.Mul(t.p2).Add(pt))
}

// ClosestPointToPoint returns the point of the triangle nearest to pt. The Voronoi region of pt decides
// whether that is a vertex, a point on an edge or the projection onto the face.
func (t *Triangle) ClosestPointToPoint(pt r3.Vector) r3.Vector {
	a, b, c := t.p0, t.p1, t.p2
	ab, ac, ap := b.Sub(a), c.Sub(a), pt.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := pt.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	if vc := d1*d4 - d3*d2; vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}

	cp := pt.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	if vb := d5*d2 - d1*d6; vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	vb, vc := d5*d2-d1*d6, d1*d4-d3*d2
	denom := va + vb + vc
	if math.Abs(denom) < floatEpsilon {
		// Degenerate triangle; every region test above failed only through round-off.
		return ClosestPointSegmentPoint(a, b, pt)
	}
	return a.Add(ab.Mul(vb / denom)).Add(ac.Mul(vc / denom))
}
