package geometry

import (
	"testing"

	"go.viam.com/test"
)

func TestNodeTypeNames(t *testing.T) {
	for tt := NodeType(0); tt < NodeCount; tt++ {
		parsed, err := ParseNodeType(tt.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, tt)
	}
	test.That(t, BVKIOS.String(), test.ShouldEqual, "BV_kIOS")
	test.That(t, NodeCount.String(), test.ShouldEqual, "NodeType(19)")
	test.That(t, NodeType(-1).String(), test.ShouldEqual, "NodeType(-1)")

	_, err := ParseNodeType("GEOM_TORUS")
	test.That(t, err, test.ShouldBeError, NewUnknownNodeTypeError("GEOM_TORUS"))
}

func TestNodeTypeClasses(t *testing.T) {
	test.That(t, BVKinds, test.ShouldHaveLength, 8)
	test.That(t, ShapeKinds, test.ShouldHaveLength, 9)
	for _, k := range BVKinds {
		test.That(t, k.IsBV(), test.ShouldBeTrue)
		test.That(t, k.IsShape(), test.ShouldBeFalse)
	}
	for _, s := range ShapeKinds {
		test.That(t, s.IsShape(), test.ShouldBeTrue)
		test.That(t, s.IsBV(), test.ShouldBeFalse)
	}
	for _, tt := range []NodeType{BVUnknown, GeomOctree, NodeCount} {
		test.That(t, tt.IsBV(), test.ShouldBeFalse)
		test.That(t, tt.IsShape(), test.ShouldBeFalse)
	}

	test.That(t, OTBVH.String(), test.ShouldEqual, "BVH")
	test.That(t, OTGeom.String(), test.ShouldEqual, "Geom")
	test.That(t, OTOctree.String(), test.ShouldEqual, "Octree")
	test.That(t, OTUnknown.String(), test.ShouldEqual, "Unknown")
	test.That(t, ObjectType(9).String(), test.ShouldEqual, "ObjectType(9)")
}
