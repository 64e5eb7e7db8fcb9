package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// R4AA represents an R4 axis angle: a rotation of Theta radians about the axis (RX, RY, RZ).
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA is the identity rotation about +Z.
func NewR4AA() *R4AA {
	return &R4AA{RZ: 1}
}

// AxisAngles implements Orientation.
func (r4 *R4AA) AxisAngles() *R4AA { return r4 }

// Quaternion implements Orientation.
func (r4 *R4AA) Quaternion() quat.Number { return r4.ToQuat() }

// RotationMatrix implements Orientation.
func (r4 *R4AA) RotationMatrix() *RotationMatrix { return QuatToRotationMatrix(r4.Quaternion()) }

// ToR3 scales the axis by the angle. The axis is assumed to be unit length.
func (r4 *R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX, Y: r4.RY, Z: r4.RZ}.Mul(r4.Theta)
}

// ToQuat returns the unit quaternion of the rotation. The axis need not be normalized; a zero axis is the
// identity.
func (r4 *R4AA) ToQuat() quat.Number {
	if r4.RX == 0 && r4.RY == 0 && r4.RZ == 0 {
		return quat.Number{Real: 1}
	}
	sinA := math.Sin(r4.Theta / 2)
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	return quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: r4.RX / norm * sinA,
		Jmag: r4.RY / norm * sinA,
		Kmag: r4.RZ / norm * sinA,
	}
}

// R3ToR4 splits a rotation vector into its angle and unit axis.
func R3ToR4(aa r3.Vector) *R4AA {
	theta := aa.Norm()
	if theta < 1e-12 {
		return NewR4AA()
	}
	axis := aa.Mul(1 / theta)
	return &R4AA{Theta: theta, RX: axis.X, RY: axis.Y, RZ: axis.Z}
}
