// Package stack reconstructs the geometry of a 3D volume from an unordered
// collection of 2D slices. It infers slice order, inter-slice spacing and
// orientation purely from per-slice positional metadata, detects missing or
// irregularly spaced slices, and validates the assembled result.
package stack

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"volstack/internal/models"
)

// ErrGeometryMismatch is returned when a slice collection cannot form a
// geometrically consistent volume. Assembly of the affected volume is
// aborted; other volumes in a batch are unaffected.
var ErrGeometryMismatch = errors.New("slice geometry mismatch")

// Geometry describes the assembled volume. It is produced once per
// assembly and never mutated afterwards; all fields are plain values so a
// copy shares nothing with the original except SlicePositions, which
// Clone duplicates.
type Geometry struct {
	// Origin is the position of the first voxel, canonical (z, y, x) order.
	Origin [3]float64

	// Spacing is the voxel spacing in canonical order. The z component is
	// the resolved inter-slice spacing.
	Spacing [3]float64

	// Orientation is the direction-cosine matrix in canonical order, with
	// the z row recomputed from measured slice positions.
	Orientation [3][3]float64

	// Dimension is (numSlices, height, width).
	Dimension [3]int

	// SlicePositions holds cumulative along-z offsets of the slices.
	// Populated only when spacing is irregular.
	SlicePositions []float64
}

// Clone returns a deep copy of the geometry.
func (g Geometry) Clone() Geometry {
	out := g
	out.SlicePositions = append([]float64(nil), g.SlicePositions...)
	return out
}

// VoxelCount returns the number of voxels the geometry describes.
func (g Geometry) VoxelCount() int {
	return g.Dimension[0] * g.Dimension[1] * g.Dimension[2]
}

// Result couples the assembled geometry with the stacked voxel grid. The
// grid is flat and z-major: index = z*height*width + y*width + x.
type Result struct {
	Geometry Geometry
	Voxels   []float64

	// Slices are the input slices in assembled order, kept for
	// traceability of the original input positions.
	Slices []*models.Slice
}

// Assembler composes ordering and orientation resolution into a validated
// volume geometry. The zero value is not usable; construct with
// NewAssembler.
type Assembler struct {
	policy Policy
	sink   Sink
}

// NewAssembler returns an assembler using the given policy. Diagnostics are
// reported through sink; a nil sink discards them.
func NewAssembler(policy Policy, sink Sink) *Assembler {
	return &Assembler{policy: policy, sink: sink}
}

// Assemble builds the geometry and voxel grid for the given slice
// collection. Input order is irrelevant; pixel data must already be loaded.
// Irregular spacing is reported through the assembler's sink and recorded
// as slice positions; inconsistent geometry returns ErrGeometryMismatch.
func (a *Assembler) Assemble(slices []*models.Slice) (*Result, error) {
	ordering, err := ResolveOrdering(slices, a.policy, a.sink)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve slice order: %w", err)
	}

	orientation, err := ResolveOrientation(ordering.Slices, ordering.SliceSpacing, a.policy)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve orientation: %w", err)
	}

	rows, cols := ordering.Slices[0].InPlaneDims()
	geom := Geometry{
		Origin:         ordering.Slices[0].CanonicalOrigin(),
		Spacing:        ordering.Spacing,
		Orientation:    orientation,
		Dimension:      [3]int{len(ordering.Slices), rows, cols},
		SlicePositions: append([]float64(nil), ordering.SlicePositions...),
	}

	if err := a.check(ordering.Slices, geom); err != nil {
		return nil, err
	}

	return &Result{
		Geometry: geom,
		Voxels:   stackPixels(ordering.Slices, rows, cols),
		Slices:   ordering.Slices,
	}, nil
}

// check re-verifies the assembled geometry: every slice shares the in-plane
// dimension, sorted positions increase strictly along the primary axis, and
// spacing is positive. Violations are fatal and not retried.
func (a *Assembler) check(ordered []*models.Slice, geom Geometry) error {
	rows, cols := geom.Dimension[1], geom.Dimension[2]
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: slices carry no pixel data (in-plane dimension %dx%d)", ErrGeometryMismatch, rows, cols)
	}
	for _, s := range ordered {
		r, c := s.InPlaneDims()
		if r != rows || c != cols {
			return fmt.Errorf("%w: slice %d has in-plane dimension %dx%d, expected %dx%d",
				ErrGeometryMismatch, s.OriginalIndex, r, c, rows, cols)
		}
	}

	for i := 0; i < len(ordered)-1; i++ {
		za := ordered[i].CanonicalOrigin()[0]
		zb := ordered[i+1].CanonicalOrigin()[0]
		if zb <= za {
			return fmt.Errorf("%w: slices %d and %d share position z=%g (duplicate or non-monotonic slice positions)",
				ErrGeometryMismatch, ordered[i].OriginalIndex, ordered[i+1].OriginalIndex, za)
		}
	}

	for axis, v := range geom.Spacing {
		if v <= 0 {
			return fmt.Errorf("%w: resolved spacing has non-positive component %g on axis %d", ErrGeometryMismatch, v, axis)
		}
	}

	// Orientation rows must stay unit-norm up to the spread the spacing
	// multiplier policy admits for the recomputed z row.
	for r := 0; r < 3; r++ {
		norm := floats.Norm(geom.Orientation[r][:], 2)
		if norm < 1/a.policy.SpacingMultiplierLimit-a.policy.SpacingTolerance ||
			norm > a.policy.SpacingMultiplierLimit+a.policy.SpacingTolerance {
			return fmt.Errorf("%w: orientation row %d has norm %g, expected unit length", ErrGeometryMismatch, r, norm)
		}
	}

	return nil
}

// stackPixels concatenates the per-slice grids into one flat z-major voxel
// grid.
func stackPixels(ordered []*models.Slice, rows, cols int) []float64 {
	voxels := make([]float64, len(ordered)*rows*cols)
	for i, s := range ordered {
		base := i * rows * cols
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				voxels[base+y*cols+x] = s.Pixels.At(y, x)
			}
		}
	}
	return voxels
}
