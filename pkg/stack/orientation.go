package stack

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"volstack/internal/models"
)

// ResolveOrientation derives the 3x3 direction-cosine matrix of an ordered
// stack in canonical (z, y, x) axis order.
//
// The in-plane rows are taken from the first slice's direction metadata,
// reversed from source to canonical order. The z row is recomputed from the
// measured positions of the sorted slices: per-slice direction metadata is
// reliable for the in-plane axes but does not encode the true inter-slice
// displacement once slices are irregularly spaced or were reordered.
func ResolveOrientation(ordered []*models.Slice, sliceSpacing float64, policy Policy) ([3][3]float64, error) {
	if len(ordered) == 0 {
		return [3][3]float64{}, fmt.Errorf("%w: no slices to orient", ErrGeometryMismatch)
	}
	if sliceSpacing <= 0 {
		return [3][3]float64{}, fmt.Errorf("%w: slice spacing must be positive, got %g", ErrGeometryMismatch, sliceSpacing)
	}

	// Reverse the flattened source-order direction matrix and reshape it
	// so the rows line up with the canonical (z, y, x) axes.
	first := ordered[0]
	var flat [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			flat[8-(r*3+c)] = first.Direction[r][c]
		}
	}
	m := mat.NewDense(3, 3, flat[:])

	// A single slice carries no positional deltas; the reversed metadata
	// matrix is all there is.
	if len(ordered) > 1 {
		// The z row is the smallest consecutive positional delta along
		// each canonical axis, normalised by the slice spacing. The
		// minimum, rather than the first or mean delta, guards against
		// a leading gap that is itself irregular.
		var zRow [3]float64
		for axis := 0; axis < 3; axis++ {
			minDelta := 0.0
			for i := 0; i < len(ordered)-1; i++ {
				delta := ordered[i+1].CanonicalOrigin()[axis] - ordered[i].CanonicalOrigin()[axis]
				if i == 0 || delta < minDelta {
					minDelta = delta
				}
			}
			zRow[axis] = policy.round(minDelta) / sliceSpacing
		}
		m.SetRow(0, zRow[:])
	}

	var orientation [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			orientation[r][c] = m.At(r, c)
		}
	}
	return orientation, nil
}
