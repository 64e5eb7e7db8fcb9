package meshloader

import (
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/logging"
)

func TestPLYLoader(t *testing.T) {
	t.Run("quads become triangle fans", func(t *testing.T) {
		vertices, triangles, err := PLYLoader{}.LoadResource("data/cube.ply", r3.Vector{X: 2, Y: 1, Z: 1})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vertices, test.ShouldHaveLength, 8)
		test.That(t, triangles, test.ShouldHaveLength, 12)
		test.That(t, vertices[6], test.ShouldResemble, r3.Vector{X: 1, Y: 0.5, Z: 0.5})
		test.That(t, triangles[0], test.ShouldResemble, [3]int{0, 3, 2})
		test.That(t, triangles[1], test.ShouldResemble, [3]int{0, 2, 1})
	})

	t.Run("through the cache", func(t *testing.T) {
		cache := NewCachedMeshLoader(PLYLoader{}, logging.NewTestLogger(t))
		geom, err := cache.Load("data/cube.ply", unit, geometry.BVOBB)
		test.That(t, err, test.ShouldBeNil)
		minPt, maxPt := geom.AABB()
		test.That(t, minPt, test.ShouldResemble, r3.Vector{X: -0.5, Y: -0.5, Z: -0.5})
		test.That(t, maxPt, test.ShouldResemble, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := PLYLoader{}.LoadResource("data/missing.ply", unit)
		test.That(t, errors.Is(err, ErrResourceNotFound), test.ShouldBeTrue)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, _, err := PLYLoader{}.LoadResource("data/cube.stl", unit)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported mesh file format")
	})

	t.Run("malformed file", func(t *testing.T) {
		_, _, err := PLYLoader{}.LoadResource("data/broken.ply", unit)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
