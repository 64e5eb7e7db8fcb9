package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// OBBSeparation computes the maximum separation gap across all 15 SAT axes for two oriented boxes using
// Ericson's precomputed R-matrix formulation ("Real-Time Collision Detection" Ch. 4.4).
//
// axesA and axesB are the unit axes of each box, halfA and halfB their half extents along those axes and
// centerDist is cB - cA. A positive result means the boxes are separated by at least that distance, so it
// is a lower bound on their Euclidean distance; a negative result means every axis overlaps.
func OBBSeparation(axesA, axesB *[3]r3.Vector, halfA, halfB r3.Vector, centerDist r3.Vector) float64 {
	const eps = 1e-10

	ha := [3]float64{halfA.X, halfA.Y, halfA.Z}
	hb := [3]float64{halfB.X, halfB.Y, halfB.Z}

	// t is the center distance in A's frame, r the rotation of B in A's frame.
	var t [3]float64
	var r, absR [3][3]float64
	for i := 0; i < 3; i++ {
		t[i] = axesA[i].Dot(centerDist)
		for j := 0; j < 3; j++ {
			r[i][j] = axesA[i].Dot(axesB[j])
			// Epsilon prevents issues with near-parallel edges.
			absR[i][j] = math.Abs(r[i][j]) + eps
		}
	}

	best := math.Inf(-1)

	// Face axes of A.
	for i := 0; i < 3; i++ {
		rb := hb[0]*absR[i][0] + hb[1]*absR[i][1] + hb[2]*absR[i][2]
		if g := math.Abs(t[i]) - ha[i] - rb; g > best {
			best = g
		}
	}

	// Face axes of B.
	for j := 0; j < 3; j++ {
		ra := ha[0]*absR[0][j] + ha[1]*absR[1][j] + ha[2]*absR[2][j]
		proj := t[0]*r[0][j] + t[1]*r[1][j] + t[2]*r[2][j]
		if g := math.Abs(proj) - hb[j] - ra; g > best {
			best = g
		}
	}

	// Edge axes a_i x b_j, normalized by sqrt(1 - R[i][j]^2). Degenerate (parallel) pairs are skipped.
	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			l2 := 1 - r[i][j]*r[i][j]
			if l2 <= eps {
				continue
			}
			j1, j2 := (j+1)%3, (j+2)%3
			ra := ha[i1]*absR[i2][j] + ha[i2]*absR[i1][j]
			rb := hb[j1]*absR[i][j2] + hb[j2]*absR[i][j1]
			raw := math.Abs(t[i2]*r[i1][j]-t[i1]*r[i2][j]) - ra - rb
			if g := raw / math.Sqrt(l2); g > best {
				best = g
			}
		}
	}

	return best
}
