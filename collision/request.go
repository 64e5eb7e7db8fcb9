package collision

import (
	"github.com/golang/geo/r3"
)

// RequestFlag selects optional outputs of a query.
type RequestFlag int

// Request flags; combine with |.
const (
	RequestNoFlag  RequestFlag = 0
	RequestContact RequestFlag = 1 << (iota - 1)
	RequestDistanceLowerBound
)

// Request configures a collision query.
type Request struct {
	// NumMaxContacts caps the contacts recorded into a Result. It must be positive.
	NumMaxContacts int
	// EnableContact asks for every contact up to the cap. When false the query stops at the first contact.
	EnableContact bool
	// EnableDistanceLowerBound refines Result.DistanceLowerBound during hierarchy traversal.
	EnableDistanceLowerBound bool
	// SecurityMargin is the separation below which non-touching pairs are still reported in contact.
	SecurityMargin float64
	// BreakDistance is the bounding volume separation below which traversal still descends to refine the
	// lower bound. Only used with EnableDistanceLowerBound.
	BreakDistance float64
	// EnableCachedGJKGuess seeds the distance solver with CachedGJKGuess.
	EnableCachedGJKGuess bool
	CachedGJKGuess       r3.Vector
}

// NewRequest returns a request for a boolean answer with one contact.
func NewRequest() *Request {
	return &Request{
		NumMaxContacts: 1,
		BreakDistance:  1e-3,
		CachedGJKGuess: r3.Vector{X: 1},
	}
}

// NewRequestWithFlags returns a request with the given flags and contact cap.
func NewRequestWithFlags(flags RequestFlag, maxContacts int) *Request {
	req := NewRequest()
	req.NumMaxContacts = maxContacts
	req.EnableContact = flags&RequestContact != 0
	req.EnableDistanceLowerBound = flags&RequestDistanceLowerBound != 0
	return req
}

// IsSatisfied reports whether res already holds everything req asks for. Once true it stays true until the
// result is cleared.
func (req *Request) IsSatisfied(res *Result) bool {
	n := res.NumContacts()
	return n > 0 && (n >= req.NumMaxContacts || !req.EnableContact)
}

func (req *Request) validate() error {
	if req.NumMaxContacts <= 0 {
		return ErrInvalidRequest
	}
	return nil
}
