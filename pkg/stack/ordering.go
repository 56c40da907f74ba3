package stack

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"volstack/internal/models"
)

// Ordering is the result of resolving slice order and inter-slice spacing.
type Ordering struct {
	// Slices holds the input slices reordered ascending by canonical
	// (z, y, x) origin.
	Slices []*models.Slice

	// SliceSpacing is the resolved distance between subsequent slices.
	// With irregular input this is the mean over gaps that are not
	// outliers, so it is not necessarily any single slice's nominal value.
	SliceSpacing float64

	// Spacing is the canonical (z, y, x) voxel spacing of the stack.
	Spacing [3]float64

	// SlicePositions lists cumulative along-z offsets of the sorted
	// slices. Populated only when spacing is irregular; used downstream
	// to resample missing slices.
	SlicePositions []float64

	// Irregular reports whether any inter-slice gap exceeded the
	// multiplier limit.
	Irregular bool
}

// ResolveOrdering sorts slices into ascending spatial order and derives the
// canonical inter-slice spacing. Slices are ordered by their canonical
// (z, y, x) origin with lexicographic tie-breaks; the sort is stable, so
// slices with fully identical origins keep their input order (and are later
// rejected by assembly validation).
//
// Irregular spacing is reported through sink and does not stop resolution.
func ResolveOrdering(slices []*models.Slice, policy Policy, sink Sink) (*Ordering, error) {
	if len(slices) == 0 {
		return nil, fmt.Errorf("%w: no slices to order", ErrGeometryMismatch)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assembly policy: %w", err)
	}

	ordered := make([]*models.Slice, len(slices))
	copy(ordered, slices)
	sort.SliceStable(ordered, func(i, j int) bool {
		a := ordered[i].CanonicalOrigin()
		b := ordered[j].CanonicalOrigin()
		for axis := 0; axis < 3; axis++ {
			if a[axis] != b[axis] {
				return a[axis] < b[axis]
			}
		}
		return false
	})

	// A single slice has no gaps to measure; its own nominal spacing is
	// the only available answer.
	if len(ordered) == 1 {
		nominal := ordered[0].CanonicalSpacing()
		return &Ordering{
			Slices:       ordered,
			SliceSpacing: nominal[0],
			Spacing:      nominal,
		}, nil
	}

	// Euclidean distance between the origins of subsequent slices.
	gaps := make([]float64, len(ordered)-1)
	for i := range gaps {
		a := ordered[i].CanonicalOrigin()
		b := ordered[i+1].CanonicalOrigin()
		gaps[i] = math.Sqrt(
			(b[0]-a[0])*(b[0]-a[0]) +
				(b[1]-a[1])*(b[1]-a[1]) +
				(b[2]-a[2])*(b[2]-a[2]))
	}

	minGap := floats.Min(gaps)
	if minGap <= 0 {
		return nil, fmt.Errorf("%w: slices share an identical origin (zero distance between subsequent slices)", ErrGeometryMismatch)
	}

	// Express every gap as a multiple of the smallest one. A multiplier
	// above the policy limit means the stack is missing slices.
	irregular := false
	admissible := make([]float64, 0, len(gaps))
	for _, gap := range gaps {
		if gap/minGap > policy.SpacingMultiplierLimit {
			irregular = true
		} else {
			admissible = append(admissible, gap)
		}
	}

	var positions []float64
	if irregular {
		positions = make([]float64, len(ordered))
		for i, gap := range gaps {
			positions[i+1] = positions[i] + policy.round(gap)
		}

		distinct := distinctValues(gaps, policy)
		if sink != nil {
			sink.Report(Diagnostic{
				Code: CodeIrregularSpacing,
				Message: fmt.Sprintf(
					"inconsistent distance between slice origins of subsequent slices: %v; "+
						"this is likely due to missing slices; the stack records slice positions "+
						"so the volume can be resampled onto a regular grid", distinct),
				Spacings: distinct,
			})
		}
	}

	resolved := policy.round(stat.Mean(admissible, nil))

	// Keep the nominal spacing vector untouched when the measured slice
	// spacing agrees with it; otherwise substitute the resolved value for
	// the z component and keep the in-plane values from metadata.
	spacing := ordered[0].CanonicalSpacing()
	if math.Abs(spacing[0]-resolved) > policy.SpacingTolerance {
		spacing[0] = resolved
	}

	return &Ordering{
		Slices:         ordered,
		SliceSpacing:   resolved,
		Spacing:        spacing,
		SlicePositions: positions,
		Irregular:      irregular,
	}, nil
}

// distinctValues returns the sorted distinct gap values, compared after
// rounding to the policy precision.
func distinctValues(gaps []float64, policy Policy) []float64 {
	rounded := make([]float64, len(gaps))
	for i, gap := range gaps {
		rounded[i] = policy.round(gap)
	}
	sort.Float64s(rounded)

	distinct := rounded[:0]
	for i, v := range rounded {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	return distinct
}
