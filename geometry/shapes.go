package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Shape is a primitive collision shape. The set of shapes is closed: only this package defines them.
type Shape interface {
	Geometry
	isShape()
}

// ConvexShape is a bounded convex shape described by its support mapping. Support returns the point of the
// shape, in its own frame, farthest along dir.
type ConvexShape interface {
	Shape
	Support(dir r3.Vector) r3.Vector
}

type shapeBase struct{}

func (shapeBase) ObjectType() ObjectType { return OTGeom }
func (shapeBase) isShape()               {}

func badDim(vals ...float64) bool {
	for _, v := range vals {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// Box is a rectangular prism centered at the origin of its frame.
type Box struct {
	shapeBase
	HalfSide r3.Vector
}

// NewBox creates a box with the given full side lengths.
func NewBox(x, y, z float64) (*Box, error) {
	b := &Box{HalfSide: r3.Vector{X: x / 2, Y: y / 2, Z: z / 2}}
	if badDim(x, y, z) {
		return nil, NewBadGeometryDimensionsError(b)
	}
	return b, nil
}

// NodeType returns GeomBox.
func (b *Box) NodeType() NodeType { return GeomBox }

// AABB returns the bounds of the box.
func (b *Box) AABB() (r3.Vector, r3.Vector) {
	return b.HalfSide.Mul(-1), b.HalfSide
}

// Support returns the vertex farthest along dir.
func (b *Box) Support(dir r3.Vector) r3.Vector {
	return r3.Vector{X: signedHalf(dir.X, b.HalfSide.X), Y: signedHalf(dir.Y, b.HalfSide.Y), Z: signedHalf(dir.Z, b.HalfSide.Z)}
}

func signedHalf(d, h float64) float64 {
	if d < 0 {
		return -h
	}
	return h
}

// Sphere is a ball centered at the origin of its frame.
type Sphere struct {
	shapeBase
	Radius float64
}

// NewSphere creates a sphere.
func NewSphere(radius float64) (*Sphere, error) {
	s := &Sphere{Radius: radius}
	if badDim(radius) {
		return nil, NewBadGeometryDimensionsError(s)
	}
	return s, nil
}

// NodeType returns GeomSphere.
func (s *Sphere) NodeType() NodeType { return GeomSphere }

// AABB returns the bounds of the sphere.
func (s *Sphere) AABB() (r3.Vector, r3.Vector) {
	r := r3.Vector{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return r.Mul(-1), r
}

// Support returns the point of the sphere farthest along dir.
func (s *Sphere) Support(dir r3.Vector) r3.Vector {
	if dir.Norm2() == 0 {
		return r3.Vector{X: s.Radius}
	}
	return dir.Normalize().Mul(s.Radius)
}

// Capsule is a segment along the frame's Z axis swept by a sphere.
type Capsule struct {
	shapeBase
	Radius     float64
	HalfLength float64
}

// NewCapsule creates a capsule whose inner segment has the given length.
func NewCapsule(radius, length float64) (*Capsule, error) {
	c := &Capsule{Radius: radius, HalfLength: length / 2}
	if badDim(radius, length) {
		return nil, NewBadGeometryDimensionsError(c)
	}
	return c, nil
}

// NodeType returns GeomCapsule.
func (c *Capsule) NodeType() NodeType { return GeomCapsule }

// AABB returns the bounds of the capsule.
func (c *Capsule) AABB() (r3.Vector, r3.Vector) {
	v := r3.Vector{X: c.Radius, Y: c.Radius, Z: c.HalfLength + c.Radius}
	return v.Mul(-1), v
}

// Support returns the point of the capsule farthest along dir.
func (c *Capsule) Support(dir r3.Vector) r3.Vector {
	p := r3.Vector{Z: signedHalf(dir.Z, c.HalfLength)}
	if dir.Norm2() == 0 {
		return p
	}
	return p.Add(dir.Normalize().Mul(c.Radius))
}

// Segment returns the end points of the capsule's inner segment.
func (c *Capsule) Segment() (r3.Vector, r3.Vector) {
	return r3.Vector{Z: -c.HalfLength}, r3.Vector{Z: c.HalfLength}
}

// Cone has its base disk at z = -HalfLength and its apex at z = +HalfLength.
type Cone struct {
	shapeBase
	Radius     float64
	HalfLength float64
}

// NewCone creates a cone of the given base radius and height.
func NewCone(radius, length float64) (*Cone, error) {
	c := &Cone{Radius: radius, HalfLength: length / 2}
	if badDim(radius, length) {
		return nil, NewBadGeometryDimensionsError(c)
	}
	return c, nil
}

// NodeType returns GeomCone.
func (c *Cone) NodeType() NodeType { return GeomCone }

// AABB returns the bounds of the cone.
func (c *Cone) AABB() (r3.Vector, r3.Vector) {
	v := r3.Vector{X: c.Radius, Y: c.Radius, Z: c.HalfLength}
	return v.Mul(-1), v
}

// Support returns the point of the cone farthest along dir.
func (c *Cone) Support(dir r3.Vector) r3.Vector {
	apex := r3.Vector{Z: c.HalfLength}
	rim := r3.Vector{Z: -c.HalfLength}
	if xy := math.Hypot(dir.X, dir.Y); xy > 0 {
		rim.X = c.Radius * dir.X / xy
		rim.Y = c.Radius * dir.Y / xy
	}
	if apex.Dot(dir) >= rim.Dot(dir) {
		return apex
	}
	return rim
}

// Cylinder is a disk of the given radius swept along Z from -HalfLength to +HalfLength.
type Cylinder struct {
	shapeBase
	Radius     float64
	HalfLength float64
}

// NewCylinder creates a cylinder of the given radius and height.
func NewCylinder(radius, length float64) (*Cylinder, error) {
	c := &Cylinder{Radius: radius, HalfLength: length / 2}
	if badDim(radius, length) {
		return nil, NewBadGeometryDimensionsError(c)
	}
	return c, nil
}

// NodeType returns GeomCylinder.
func (c *Cylinder) NodeType() NodeType { return GeomCylinder }

// AABB returns the bounds of the cylinder.
func (c *Cylinder) AABB() (r3.Vector, r3.Vector) {
	v := r3.Vector{X: c.Radius, Y: c.Radius, Z: c.HalfLength}
	return v.Mul(-1), v
}

// Support returns the point of the cylinder farthest along dir.
func (c *Cylinder) Support(dir r3.Vector) r3.Vector {
	p := r3.Vector{Z: signedHalf(dir.Z, c.HalfLength)}
	if xy := math.Hypot(dir.X, dir.Y); xy > 0 {
		p.X = c.Radius * dir.X / xy
		p.Y = c.Radius * dir.Y / xy
	}
	return p
}

// Plane is the set of points x with N.x = D. N is unit length.
type Plane struct {
	shapeBase
	N r3.Vector
	D float64
}

// NewPlane creates a plane; the normal is normalized and D scaled accordingly.
func NewPlane(n r3.Vector, d float64) (*Plane, error) {
	p := &Plane{}
	norm := n.Norm()
	if norm == 0 || math.IsNaN(norm) || math.IsNaN(d) {
		return nil, NewBadGeometryDimensionsError(p)
	}
	p.N, p.D = n.Mul(1/norm), d/norm
	return p, nil
}

// NodeType returns GeomPlane.
func (p *Plane) NodeType() NodeType { return GeomPlane }

// AABB returns the bounds of the plane, which are finite only along an axis-aligned normal.
func (p *Plane) AABB() (r3.Vector, r3.Vector) {
	return unboundedAABB(p.N, p.D, p.D)
}

// SignedDistance returns the signed distance of pt to the plane along N.
func (p *Plane) SignedDistance(pt r3.Vector) float64 {
	return p.N.Dot(pt) - p.D
}

// Halfspace is the set of points x with N.x <= D. N is unit length and points out of the solid.
type Halfspace struct {
	shapeBase
	N r3.Vector
	D float64
}

// NewHalfspace creates a halfspace; the normal is normalized and D scaled accordingly.
func NewHalfspace(n r3.Vector, d float64) (*Halfspace, error) {
	h := &Halfspace{}
	norm := n.Norm()
	if norm == 0 || math.IsNaN(norm) || math.IsNaN(d) {
		return nil, NewBadGeometryDimensionsError(h)
	}
	h.N, h.D = n.Mul(1/norm), d/norm
	return h, nil
}

// NodeType returns GeomHalfspace.
func (h *Halfspace) NodeType() NodeType { return GeomHalfspace }

// AABB returns the bounds of the halfspace, which are finite only along an axis-aligned normal.
func (h *Halfspace) AABB() (r3.Vector, r3.Vector) {
	return unboundedAABB(h.N, math.Inf(-1), h.D)
}

// SignedDistance returns the signed distance of pt to the boundary, negative inside.
func (h *Halfspace) SignedDistance(pt r3.Vector) float64 {
	return h.N.Dot(pt) - h.D
}

// unboundedAABB bounds {x : lo <= n.x <= hi}, which is only finite along an axis-aligned n.
func unboundedAABB(n r3.Vector, lo, hi float64) (r3.Vector, r3.Vector) {
	inf := math.Inf(1)
	minPt := r3.Vector{X: -inf, Y: -inf, Z: -inf}
	maxPt := r3.Vector{X: inf, Y: inf, Z: inf}
	axes := [3]float64{n.X, n.Y, n.Z}
	for i, c := range axes {
		if math.Abs(math.Abs(c)-1) > 1e-12 {
			continue
		}
		a, b := lo, hi
		if c < 0 {
			a, b = -hi, -lo
		}
		switch i {
		case 0:
			minPt.X, maxPt.X = a, b
		case 1:
			minPt.Y, maxPt.Y = a, b
		case 2:
			minPt.Z, maxPt.Z = a, b
		}
	}
	return minPt, maxPt
}

// TriangleP is a single triangle used as a primitive shape.
type TriangleP struct {
	shapeBase
	A, B, C r3.Vector
}

// NewTriangleP creates a triangle shape.
func NewTriangleP(a, b, c r3.Vector) *TriangleP {
	return &TriangleP{A: a, B: b, C: c}
}

// NodeType returns GeomTriangle.
func (t *TriangleP) NodeType() NodeType { return GeomTriangle }

// AABB returns the bounds of the triangle.
func (t *TriangleP) AABB() (r3.Vector, r3.Vector) {
	return boundsOf([]r3.Vector{t.A, t.B, t.C})
}

// Support returns the vertex farthest along dir.
func (t *TriangleP) Support(dir r3.Vector) r3.Vector {
	best := t.A
	if t.B.Dot(dir) > best.Dot(dir) {
		best = t.B
	}
	if t.C.Dot(dir) > best.Dot(dir) {
		best = t.C
	}
	return best
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
