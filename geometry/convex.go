package geometry

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Convex is a convex polytope given by its vertices and faces. Faces are polygons of vertex indices; the
// vertex adjacency (neighbors) is derived from the polygon edges.
type Convex struct {
	shapeBase
	points    []r3.Vector
	polygons  [][]int
	neighbors [][]int
	center    r3.Vector
}

// NewConvex builds a convex polytope. Every polygon index must address a point.
func NewConvex(points []r3.Vector, polygons [][]int) (*Convex, error) {
	if len(points) == 0 {
		return nil, errors.New("convex polytope needs at least one point")
	}
	neighbors := make([][]int, len(points))
	for pi, poly := range polygons {
		for k, idx := range poly {
			if idx < 0 || idx >= len(points) {
				return nil, errors.Wrapf(NewIndexOutOfRangeError("point", idx, len(points)), "polygon %d", pi)
			}
			next := poly[(k+1)%len(poly)]
			if next < 0 || next >= len(points) {
				return nil, errors.Wrapf(NewIndexOutOfRangeError("point", next, len(points)), "polygon %d", pi)
			}
			if next == idx {
				continue
			}
			neighbors[idx] = append(neighbors[idx], next)
			neighbors[next] = append(neighbors[next], idx)
		}
	}
	for i := range neighbors {
		neighbors[i] = lo.Uniq(neighbors[i])
	}
	var center r3.Vector
	for _, p := range points {
		center = center.Add(p)
	}
	return &Convex{
		points:    append([]r3.Vector(nil), points...),
		polygons:  polygons,
		neighbors: neighbors,
		center:    center.Mul(1 / float64(len(points))),
	}, nil
}

// NodeType returns GeomConvex.
func (c *Convex) NodeType() NodeType { return GeomConvex }

// AABB returns the bounds of the vertices.
func (c *Convex) AABB() (r3.Vector, r3.Vector) {
	return boundsOf(c.points)
}

// NumPoints returns the number of vertices.
func (c *Convex) NumPoints() int { return len(c.points) }

// NumPolygons returns the number of faces.
func (c *Convex) NumPolygons() int { return len(c.polygons) }

// Point returns vertex i.
func (c *Convex) Point(i int) (r3.Vector, error) {
	if i < 0 || i >= len(c.points) {
		return r3.Vector{}, NewIndexOutOfRangeError("point", i, len(c.points))
	}
	return c.points[i], nil
}

// Neighbors returns the indices of the vertices sharing an edge with vertex i.
func (c *Convex) Neighbors(i int) ([]int, error) {
	if i < 0 || i >= len(c.neighbors) {
		return nil, NewIndexOutOfRangeError("neighbor", i, len(c.neighbors))
	}
	return c.neighbors[i], nil
}

// Polygon returns the vertex indices of face i.
func (c *Convex) Polygon(i int) ([]int, error) {
	if i < 0 || i >= len(c.polygons) {
		return nil, NewIndexOutOfRangeError("polygon", i, len(c.polygons))
	}
	return c.polygons[i], nil
}

// Center returns the mean of the vertices.
func (c *Convex) Center() r3.Vector { return c.center }

// Support returns the vertex farthest along dir. It hill-climbs the neighbor graph from the first vertex,
// which finds the global maximum when every point is a hull vertex, and scans linearly otherwise.
func (c *Convex) Support(dir r3.Vector) r3.Vector {
	best := 0
	bestDot := c.points[0].Dot(dir)
	if len(c.neighbors[0]) == 0 {
		for i, p := range c.points[1:] {
			if d := p.Dot(dir); d > bestDot {
				best, bestDot = i+1, d
			}
		}
		return c.points[best]
	}
	for improved := true; improved; {
		improved = false
		for _, n := range c.neighbors[best] {
			if d := c.points[n].Dot(dir); d > bestDot {
				best, bestDot = n, d
				improved = true
			}
		}
	}
	return c.points[best]
}
