package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collide/geometry"
)

// NoneIndex is the sub-part index of a contact on a primitive shape.
const NoneIndex = -1

// Contact is a point where two geometries touch or come within the security margin.
type Contact struct {
	O1, O2 geometry.Geometry
	// B1 and B2 are the triangle (or cell) indices on hierarchies, NoneIndex on primitives.
	B1, B2 int
	// Normal points from O1 toward O2.
	Normal r3.Vector
	// Pos is the deepest point of O1 inside O2 when they overlap, and the midpoint of the nearest points
	// when they are apart but within the security margin.
	Pos r3.Vector
	// PenetrationDepth is positive when the geometries overlap and negative within the security margin.
	PenetrationDepth float64
}

// Equal compares every field of the contacts. Geometries are compared by identity.
func (c Contact) Equal(other Contact) bool {
	return c.O1 == other.O1 && c.O2 == other.O2 &&
		c.B1 == other.B1 && c.B2 == other.B2 &&
		c.Normal == other.Normal && c.Pos == other.Pos &&
		c.PenetrationDepth == other.PenetrationDepth
}

// flipped exchanges the roles of O1 and O2. The deepest point of O2 inside O1 lies PenetrationDepth back
// along the normal.
func (c Contact) flipped() Contact {
	pos := c.Pos
	if c.PenetrationDepth > 0 {
		pos = pos.Sub(c.Normal.Mul(c.PenetrationDepth))
	}
	return Contact{
		O1:               c.O2,
		O2:               c.O1,
		B1:               c.B2,
		B2:               c.B1,
		Normal:           c.Normal.Mul(-1),
		Pos:              pos,
		PenetrationDepth: c.PenetrationDepth,
	}
}

// Stats counts the work done by the traversals that wrote into a Result.
type Stats struct {
	// BVTests is the number of bounding volume pairs tested.
	BVTests int
	// LeafTests is the number of primitive pairs handed to the distance solver.
	LeafTests int
}

// Result accumulates the contacts of one or more queries. The zero value is empty and ready to use.
type Result struct {
	contacts       []Contact
	lowerBound     float64
	hasLowerBound  bool
	cachedGJKGuess r3.Vector
	stats          Stats
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{}
}

// IsCollision reports whether any contact was recorded.
func (res *Result) IsCollision() bool { return len(res.contacts) > 0 }

// NumContacts returns the number of recorded contacts.
func (res *Result) NumContacts() int { return len(res.contacts) }

// AddContact appends a contact.
func (res *Result) AddContact(c Contact) {
	res.contacts = append(res.contacts, c)
}

// Contact returns contact i.
func (res *Result) Contact(i int) (Contact, error) {
	if i < 0 || i >= len(res.contacts) {
		return Contact{}, geometry.NewIndexOutOfRangeError("contact", i, len(res.contacts))
	}
	return res.contacts[i], nil
}

// Contacts returns a copy of the recorded contacts in order.
func (res *Result) Contacts() []Contact {
	return append([]Contact(nil), res.contacts...)
}

// DistanceLowerBound returns the smallest separation reported by a pair that was found apart, +Inf if none
// was.
func (res *Result) DistanceLowerBound() float64 {
	if !res.hasLowerBound {
		return math.Inf(1)
	}
	return res.lowerBound
}

func (res *Result) updateDistanceLowerBound(d float64) {
	if !res.hasLowerBound || d < res.lowerBound {
		res.lowerBound = d
		res.hasLowerBound = true
	}
}

// CachedGJKGuess returns the solver direction of the last shape pair queried with a cached guess enabled.
func (res *Result) CachedGJKGuess() r3.Vector { return res.cachedGJKGuess }

// Stats returns the traversal counters.
func (res *Result) Stats() Stats { return res.stats }

// Clear empties the result.
func (res *Result) Clear() {
	*res = Result{}
}

// flipSince swaps the geometries of every contact recorded at or after index from.
func (res *Result) flipSince(from int) {
	for i := from; i < len(res.contacts); i++ {
		res.contacts[i] = res.contacts[i].flipped()
	}
}
