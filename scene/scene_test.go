package scene

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/collide/bvh"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/logging"
	"go.viam.com/collide/meshloader"
)

func TestParseConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		conf, err := ParseConfig([]byte(`{
			// comments and trailing commas are fine
			request: { max_contacts: 3, contacts: true },
			objects: [
				{ name: "a", geometry: { type: "sphere", radius: 1 } },
				{ name: "b", geometry: { type: "box", size: { x: 1, y: 2, z: 3 } },
				  pose: { translation: { x: 1 }, orientation: { theta: 1.5, rz: 1 } } },
				{ name: "c", geometry: { type: "convex", points: [{ x: 0 }, { x: 1 }, { y: 1 }, { z: 1 }],
				  polygons: [[0, 2, 1], [0, 1, 3], [1, 2, 3], [0, 3, 2]] } },
			],
		}`))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, conf.Request.MaxContacts, test.ShouldEqual, 3)
		test.That(t, conf.Request.Contacts, test.ShouldBeTrue)
		test.That(t, conf.Hash, test.ShouldBeNil)
		test.That(t, conf.Objects, test.ShouldHaveLength, 3)
		test.That(t, conf.Objects[1].Geometry.Size, test.ShouldResemble, &Vector{X: 1, Y: 2, Z: 3})
		test.That(t, conf.Objects[1].Pose.Orientation, test.ShouldResemble, &OrientationConfig{Theta: 1.5, RZ: 1})
		test.That(t, conf.Objects[2].Geometry.Polygons[3], test.ShouldResemble, []int{0, 3, 2})
	})

	t.Run("unknown keys", func(t *testing.T) {
		_, err := ParseConfig([]byte(`{ objects: [{ name: "a", colour: "red", geometry: { type: "sphere", radius: 1 } }] }`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "colour")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseConfig([]byte(`{ objects: [`))
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("every problem is reported", func(t *testing.T) {
		_, err := ParseConfig([]byte(`{
			request: { max_contacts: -1 },
			hash: { cell_size: 0, min: { x: 1 }, max: { x: 0 } },
			objects: [
				{ geometry: { type: "sphere", radius: 1 } },
				{ name: "a", geometry: { type: "box" } },
				{ name: "a", geometry: { type: "mesh", bv: "GEOM_BOX" } },
				{ name: "b", geometry: { type: "torus" } },
				{ name: "c", geometry: { type: "triangle", points: [{ x: 1 }] } },
				{ name: "d", geometry: { type: "plane", normal: {} } },
			],
		}`))
		test.That(t, err, test.ShouldNotBeNil)
		msg := err.Error()
		for _, want := range []string{
			`scene.request: invalid "max_contacts"`,
			`scene.hash: invalid "cell_size"`,
			`scene.hash: invalid "max"`,
			`scene.objects.0: "name" is required`,
			`scene.objects.1.geometry: "size" is required`,
			`scene.objects.2: invalid "name": duplicate name "a"`,
			`scene.objects.2.geometry: "path" is required`,
			`GEOM_BOX is not a bounding volume`,
			`unknown geometry type "torus"`,
			`a triangle needs 3 points, got 1`,
			`scene.objects.5.geometry: invalid "normal"`,
		} {
			test.That(t, msg, test.ShouldContainSubstring, want)
		}
		test.That(t, len(multierr.Errors(err)), test.ShouldBeGreaterThanOrEqualTo, 11)
	})
}

func TestBuild(t *testing.T) {
	logger := logging.NewTestLogger(t)
	resources := meshloader.NewMemoryLoader()
	resources.Add("/meshes/tri.mesh", []r3.Vector{{}, {X: 1}, {Y: 1}}, [][3]int{{0, 1, 2}})
	loader := meshloader.NewCachedMeshLoader(resources, logger)

	conf, err := ParseConfig([]byte(`{
		objects: [
			{ name: "m1", geometry: { type: "mesh", path: "tri.mesh" } },
			{ name: "m2", geometry: { type: "mesh", path: "tri.mesh" }, pose: { translation: { x: 5 } } },
			{ name: "m3", geometry: { type: "mesh", path: "tri.mesh", bv: "BV_AABB", scale: { x: 2, y: 2, z: 2 } } },
			{ name: "cap", geometry: { type: "capsule", radius: 0.5, length: 2 } },
			{ name: "tri", geometry: { type: "triangle", points: [{ x: 0 }, { x: 1 }, { y: 1 }] } },
		],
	}`))
	test.That(t, err, test.ShouldBeNil)

	s, err := Build(conf, "/meshes", loader, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Objects, test.ShouldHaveLength, 5)
	test.That(t, resources.Loads(), test.ShouldEqual, 2)
	test.That(t, loader.Len(), test.ShouldEqual, 2)

	m1, ok := s.Object("m1")
	test.That(t, ok, test.ShouldBeTrue)
	m2, ok := s.Object("m2")
	test.That(t, ok, test.ShouldBeTrue)
	m3, ok := s.Object("m3")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, m1.Geometry() == m2.Geometry(), test.ShouldBeTrue)
	test.That(t, m1.Geometry().NodeType(), test.ShouldEqual, DefaultBV)
	test.That(t, m3.Geometry().NodeType(), test.ShouldEqual, geometry.BVAABB)
	scaled, err := m3.Geometry().(bvh.Hierarchy).Vertex(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scaled, test.ShouldResemble, r3.Vector{X: 2})
	test.That(t, s.Name(m2), test.ShouldEqual, "m2")
	test.That(t, m2.Pose().Point(), test.ShouldResemble, r3.Vector{X: 5})

	_, ok = s.Object("missing")
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, s.Request.NumMaxContacts, test.ShouldEqual, 1)

	t.Run("missing mesh", func(t *testing.T) {
		conf := &Config{Objects: []ObjectConfig{{Name: "x", Geometry: GeometryConfig{Type: TypeMesh, Path: "nope.mesh"}}}}
		_, err := Build(conf, "/meshes", loader, logger)
		test.That(t, errors.Is(err, meshloader.ErrResourceNotFound), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, `object "x"`)
	})

	t.Run("derived grid", func(t *testing.T) {
		limit, cell := s.Grid()
		test.That(t, cell, test.ShouldBeGreaterThan, 0)
		for _, o := range s.Objects {
			box := o.AABB()
			test.That(t, limit.Contains(box.Min), test.ShouldBeTrue)
			test.That(t, limit.Contains(box.Max), test.ShouldBeTrue)
		}
	})
}

func TestLoad(t *testing.T) {
	logger := logging.NewTestLogger(t)
	s, err := Load("data/table.json5", logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Objects, test.ShouldHaveLength, 5)
	test.That(t, s.Request.NumMaxContacts, test.ShouldEqual, 4)
	test.That(t, s.Request.EnableContact, test.ShouldBeTrue)

	limit, cell := s.Grid()
	test.That(t, cell, test.ShouldEqual, 1.0)
	test.That(t, limit.Min, test.ShouldResemble, r3.Vector{X: -2, Y: -2, Z: -1})

	part, ok := s.Object("part")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, part.Geometry().NodeType(), test.ShouldEqual, geometry.BVOBBRSS)

	results, err := s.Check(context.Background(), logger)
	test.That(t, err, test.ShouldBeNil)
	var got [][2]string
	for _, r := range results {
		got = append(got, [2]string{s.Name(r.A), s.Name(r.B)})
		test.That(t, r.Result.NumContacts(), test.ShouldBeBetween, 0, 5)
	}
	test.That(t, got, test.ShouldResemble, [][2]string{
		{"floor", "table"},
		{"floor", "part"},
		{"table", "part"},
		{"ball", "map"},
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("data/nope.json5", logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cannot read scene")
	})
}
