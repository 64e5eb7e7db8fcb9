package collision

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/collide/geometry"
)

// ErrInvalidRequest is returned for a request that can never record a contact.
var ErrInvalidRequest = errors.New("collision request must allow at least one contact")

// UnsupportedPairError is returned when the dispatch matrix has no routine for a pair of registry codes.
type UnsupportedPairError struct {
	First, Second geometry.NodeType
}

func (e *UnsupportedPairError) Error() string {
	return fmt.Sprintf("collision between %v and %v is not supported", e.First, e.Second)
}

// NewUnsupportedPairError returns an error for a pair the matrix cannot dispatch.
func NewUnsupportedPairError(first, second geometry.NodeType) error {
	return &UnsupportedPairError{First: first, Second: second}
}
