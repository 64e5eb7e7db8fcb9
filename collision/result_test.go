package collision

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestResult(t *testing.T) {
	s1, s2 := makeSphere(t, 1), makeSphere(t, 2)
	contact := Contact{
		O1:               s1,
		O2:               s2,
		B1:               3,
		B2:               NoneIndex,
		Normal:           r3.Vector{Z: 1},
		Pos:              r3.Vector{X: 1, Y: 2, Z: 3},
		PenetrationDepth: 0.25,
	}

	t.Run("zero value", func(t *testing.T) {
		var res Result
		test.That(t, res.IsCollision(), test.ShouldBeFalse)
		test.That(t, res.NumContacts(), test.ShouldEqual, 0)
		test.That(t, math.IsInf(res.DistanceLowerBound(), 1), test.ShouldBeTrue)
	})

	t.Run("contacts", func(t *testing.T) {
		res := NewResult()
		res.AddContact(contact)
		test.That(t, res.IsCollision(), test.ShouldBeTrue)
		got, err := res.Contact(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.Equal(contact), test.ShouldBeTrue)

		_, err = res.Contact(1)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "out of range")
		_, err = res.Contact(-1)
		test.That(t, err, test.ShouldNotBeNil)

		all := res.Contacts()
		all[0].B1 = 7
		got, err = res.Contact(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.B1, test.ShouldEqual, 3)
	})

	t.Run("lower bound keeps the minimum", func(t *testing.T) {
		res := NewResult()
		res.updateDistanceLowerBound(2)
		res.updateDistanceLowerBound(3)
		res.updateDistanceLowerBound(0.5)
		test.That(t, res.DistanceLowerBound(), test.ShouldEqual, 0.5)
		res.Clear()
		test.That(t, math.IsInf(res.DistanceLowerBound(), 1), test.ShouldBeTrue)
	})

	t.Run("flip", func(t *testing.T) {
		res := NewResult()
		res.AddContact(contact)
		res.AddContact(contact)
		res.flipSince(1)
		first, err := res.Contact(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, first.Equal(contact), test.ShouldBeTrue)
		second, err := res.Contact(1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, second.O1 == contact.O2, test.ShouldBeTrue)
		test.That(t, second.B1, test.ShouldEqual, NoneIndex)
		test.That(t, second.B2, test.ShouldEqual, 3)
		test.That(t, second.Normal, test.ShouldResemble, r3.Vector{Z: -1})
		test.That(t, second.Pos, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 2.75})
		test.That(t, second.flipped().Equal(contact), test.ShouldBeTrue)

		near := contact
		near.PenetrationDepth = -0.5
		test.That(t, near.flipped().Pos, test.ShouldResemble, near.Pos)
	})

	t.Run("clear", func(t *testing.T) {
		res := NewResult()
		res.AddContact(contact)
		res.stats.LeafTests = 4
		res.Clear()
		test.That(t, res.NumContacts(), test.ShouldEqual, 0)
		test.That(t, res.Stats(), test.ShouldResemble, Stats{})
	})
}

func TestRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req := NewRequest()
		test.That(t, req.NumMaxContacts, test.ShouldEqual, 1)
		test.That(t, req.EnableContact, test.ShouldBeFalse)
		test.That(t, req.BreakDistance, test.ShouldEqual, 1e-3)
		test.That(t, req.validate(), test.ShouldBeNil)
	})

	t.Run("flags", func(t *testing.T) {
		req := NewRequestWithFlags(RequestContact|RequestDistanceLowerBound, 5)
		test.That(t, req.NumMaxContacts, test.ShouldEqual, 5)
		test.That(t, req.EnableContact, test.ShouldBeTrue)
		test.That(t, req.EnableDistanceLowerBound, test.ShouldBeTrue)

		req = NewRequestWithFlags(RequestNoFlag, 0)
		test.That(t, req.EnableContact, test.ShouldBeFalse)
		test.That(t, req.validate(), test.ShouldEqual, ErrInvalidRequest)
	})

	t.Run("satisfaction", func(t *testing.T) {
		s := makeSphere(t, 1)
		boolean := NewRequestWithFlags(RequestNoFlag, 3)
		contacts := NewRequestWithFlags(RequestContact, 2)
		res := NewResult()
		test.That(t, boolean.IsSatisfied(res), test.ShouldBeFalse)
		test.That(t, contacts.IsSatisfied(res), test.ShouldBeFalse)
		res.AddContact(Contact{O1: s, O2: s})
		test.That(t, boolean.IsSatisfied(res), test.ShouldBeTrue)
		test.That(t, contacts.IsSatisfied(res), test.ShouldBeFalse)
		res.AddContact(Contact{O1: s, O2: s})
		test.That(t, contacts.IsSatisfied(res), test.ShouldBeTrue)
	})
}
