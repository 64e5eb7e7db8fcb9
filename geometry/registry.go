// Package geometry defines the geometry type registry and the primitive collision shapes.
package geometry

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// ObjectType is the coarse kind of a collision geometry.
type ObjectType int

// Object kinds.
const (
	OTUnknown ObjectType = iota
	OTBVH
	OTGeom
	OTOctree
)

func (t ObjectType) String() string {
	switch t {
	case OTBVH:
		return "BVH"
	case OTGeom:
		return "Geom"
	case OTOctree:
		return "Octree"
	case OTUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("ObjectType(%d)", int(t))
	}
}

// NodeType is the registry code of a geometry. It indexes the collision dispatch matrix.
type NodeType int

// Registry codes. Bounding volume kinds come first, then primitive shapes, then the voxel grid.
const (
	BVUnknown NodeType = iota
	BVAABB
	BVOBB
	BVRSS
	BVKIOS
	BVOBBRSS
	BVKDOP16
	BVKDOP18
	BVKDOP24
	GeomBox
	GeomSphere
	GeomCapsule
	GeomCone
	GeomCylinder
	GeomConvex
	GeomPlane
	GeomHalfspace
	GeomTriangle
	GeomOctree
	// NodeCount is the number of registry codes and the size of each dispatch matrix dimension.
	NodeCount
)

var nodeTypeNames = [NodeCount]string{
	BVUnknown:     "BV_UNKNOWN",
	BVAABB:        "BV_AABB",
	BVOBB:         "BV_OBB",
	BVRSS:         "BV_RSS",
	BVKIOS:        "BV_kIOS",
	BVOBBRSS:      "BV_OBBRSS",
	BVKDOP16:      "BV_KDOP16",
	BVKDOP18:      "BV_KDOP18",
	BVKDOP24:      "BV_KDOP24",
	GeomBox:       "GEOM_BOX",
	GeomSphere:    "GEOM_SPHERE",
	GeomCapsule:   "GEOM_CAPSULE",
	GeomCone:      "GEOM_CONE",
	GeomCylinder:  "GEOM_CYLINDER",
	GeomConvex:    "GEOM_CONVEX",
	GeomPlane:     "GEOM_PLANE",
	GeomHalfspace: "GEOM_HALFSPACE",
	GeomTriangle:  "GEOM_TRIANGLE",
	GeomOctree:    "GEOM_OCTREE",
}

func (t NodeType) String() string {
	if t < 0 || t >= NodeCount {
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	return nodeTypeNames[t]
}

// ParseNodeType returns the registry code whose String form is name.
func ParseNodeType(name string) (NodeType, error) {
	for i, n := range nodeTypeNames {
		if n == name {
			return NodeType(i), nil
		}
	}
	return BVUnknown, NewUnknownNodeTypeError(name)
}

// IsBV reports whether t is a bounding volume kind of a hierarchy.
func (t NodeType) IsBV() bool {
	return t >= BVAABB && t <= BVKDOP24
}

// IsShape reports whether t is a primitive shape.
func (t NodeType) IsShape() bool {
	return t >= GeomBox && t <= GeomTriangle
}

// BVKinds lists every bounding volume kind a hierarchy can be built with.
var BVKinds = []NodeType{BVAABB, BVOBB, BVRSS, BVKIOS, BVOBBRSS, BVKDOP16, BVKDOP18, BVKDOP24}

// ShapeKinds lists every primitive shape.
var ShapeKinds = []NodeType{
	GeomBox, GeomSphere, GeomCapsule, GeomCone, GeomCylinder, GeomConvex, GeomPlane, GeomHalfspace, GeomTriangle,
}

// Geometry is anything that can be handed to the collision dispatch. Its registry code never changes and it
// carries no placement: poses are supplied per query.
type Geometry interface {
	ObjectType() ObjectType
	NodeType() NodeType
	// AABB returns the bounds of the geometry in its own frame.
	AABB() (min, max r3.Vector)
}
