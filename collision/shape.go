package collision

import (
	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
	"go.viam.com/collide/narrowphase"
	"go.viam.com/collide/spatialmath"
)

// Func is a specialized collision routine. It appends contacts into res and returns the number of colliding
// primitive pairs it found, which may exceed the contacts it could record under the request's cap.
type Func func(
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) int

// applyContactRule turns a signed distance into at most one contact. Pairs within the security margin
// count as colliding; farther pairs lower the result's distance bound.
func applyContactRule(
	dr narrowphase.DistanceResult,
	o1, o2 geometry.Geometry, b1, b2 int,
	req *Request, res *Result,
) int {
	d := dr.Distance
	switch {
	case d <= 0:
		if res.NumContacts() < req.NumMaxContacts {
			res.AddContact(Contact{
				O1:               o1,
				O2:               o2,
				B1:               b1,
				B2:               b2,
				Pos:              dr.P1,
				Normal:           dr.Normal,
				PenetrationDepth: -d,
			})
		}
		return 1
	case d <= req.SecurityMargin:
		if res.NumContacts() < req.NumMaxContacts {
			res.AddContact(Contact{
				O1:               o1,
				O2:               o2,
				B1:               b1,
				B2:               b2,
				Pos:              dr.P1.Add(dr.P2).Mul(0.5),
				Normal:           dr.P2.Sub(dr.P1).Normalize(),
				PenetrationDepth: -d,
			})
		}
		return 1
	}
	res.updateDistanceLowerBound(d)
	return 0
}

// shapeShapeCollide is the routine for every pair of primitive shapes.
func shapeShapeCollide(
	o1 geometry.Geometry, tf1 spatialmath.Pose,
	o2 geometry.Geometry, tf2 spatialmath.Pose,
	solver narrowphase.Solver, req *Request, res *Result,
) int {
	if req.IsSatisfied(res) {
		return 0
	}
	var guess *r3.Vector
	if req.EnableCachedGJKGuess {
		g := req.CachedGJKGuess
		guess = &g
	}
	res.stats.LeafTests++
	dr := solver.ShapeDistance(o1.(geometry.Shape), tf1, o2.(geometry.Shape), tf2, guess)
	if req.EnableCachedGJKGuess {
		res.cachedGJKGuess = dr.Guess
	}
	return applyContactRule(dr, o1, o2, NoneIndex, NoneIndex, req, res)
}
