package broadphase

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/collide/bv"
	"go.viam.com/collide/collision"
	"go.viam.com/collide/geometry"
	"go.viam.com/collide/logging"
	"go.viam.com/collide/octree"
	"go.viam.com/collide/spatialmath"
)

func sphereAt(t *testing.T, x, y, z float64) *collision.Object {
	t.Helper()
	s, err := geometry.NewSphere(1)
	test.That(t, err, test.ShouldBeNil)
	return collision.NewObject(s, spatialmath.NewPoseFromPoint(r3.Vector{X: x, Y: y, Z: z}))
}

func scene() bv.AABB {
	return bv.NewAABB(r3.Vector{X: -20, Y: -20, Z: -20}, r3.Vector{X: 20, Y: 20, Z: 20})
}

func TestSpatialHashManager(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{"dense", nil},
		{"sparse", []Option{WithSparseTable()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logger := logging.NewTestLogger(t)
			m, err := NewSpatialHashManager(scene(), 2, logger, tc.opts...)
			test.That(t, err, test.ShouldBeNil)

			a := sphereAt(t, 0, 0, 0)
			b := sphereAt(t, 1.5, 0, 0)
			c := sphereAt(t, 10, 10, 10)
			test.That(t, m.Register(a, b, c, a), test.ShouldBeNil)
			test.That(t, m.Size(), test.ShouldEqual, 3)
			test.That(t, m.Candidates(), test.ShouldResemble, []Pair{{A: a, B: b}})

			plane, err := geometry.NewPlane(r3.Vector{Z: 1}, -0.5)
			test.That(t, err, test.ShouldBeNil)
			p := collision.NewObject(plane, nil)
			test.That(t, m.Register(p), test.ShouldBeNil)
			test.That(t, m.Candidates(), test.ShouldResemble, []Pair{{A: a, B: b}, {A: a, B: p}, {A: b, B: p}, {A: c, B: p}})

			t.Run("collide all", func(t *testing.T) {
				results, err := m.CollideAll(context.Background(), collision.NewRequest())
				test.That(t, err, test.ShouldBeNil)
				test.That(t, results, test.ShouldHaveLength, 3)
				test.That(t, results[0].Pair, test.ShouldResemble, Pair{A: a, B: b})
				test.That(t, results[1].Pair, test.ShouldResemble, Pair{A: a, B: p})
				test.That(t, results[2].Pair, test.ShouldResemble, Pair{A: b, B: p})
				for _, r := range results {
					test.That(t, r.Result.NumContacts(), test.ShouldEqual, 1)
				}
			})

			t.Run("update after a move", func(t *testing.T) {
				c.SetPose(spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5, Y: 1}))
				test.That(t, m.Update(), test.ShouldBeNil)
				test.That(t, m.Candidates(), test.ShouldResemble, []Pair{
					{A: a, B: b}, {A: a, B: c}, {A: a, B: p}, {A: b, B: c}, {A: b, B: p}, {A: c, B: p},
				})
			})

			t.Run("unregister", func(t *testing.T) {
				m.Unregister(b)
				m.Unregister(b)
				test.That(t, m.Size(), test.ShouldEqual, 3)
				test.That(t, m.Candidates(), test.ShouldResemble, []Pair{{A: a, B: c}, {A: a, B: p}, {A: c, B: p}})
			})

			t.Run("canceled", func(t *testing.T) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				_, err := m.CollideAll(ctx, collision.NewRequest())
				test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
			})
		})
	}
}

func TestSpatialHashManagerErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := NewSpatialHashManager(scene(), 0, logger)
	test.That(t, err, test.ShouldNotBeNil)

	fine := bv.NewAABB(r3.Vector{}, r3.Vector{X: 100, Y: 100, Z: 100})
	for _, opts := range [][]Option{nil, {WithSparseTable()}} {
		_, err = NewSpatialHashManager(fine, 1e-3, logger, opts...)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cells")
	}

	m, err := NewSpatialHashManager(scene(), 4, logger, WithMatrix(collision.NewMatrix(collision.WithOctree(false))))
	test.That(t, err, test.ShouldBeNil)
	tree, err := octree.NewOcTreeFromPoints([]r3.Vector{{X: 0.05, Y: 0.05, Z: 0.05}}, 0.1, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Register(collision.NewObject(tree, nil), sphereAt(t, 0, 0, 0)), test.ShouldBeNil)
	_, err = m.CollideAll(context.Background(), collision.NewRequest())
	var unsupported *collision.UnsupportedPairError
	test.That(t, errors.As(err, &unsupported), test.ShouldBeTrue)
}
