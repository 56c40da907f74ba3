package models

import (
	"gonum.org/v1/gonum/mat"
)

// Slice represents a single 2D cross-sectional image together with the
// positional metadata needed to place it in a 3D stack.
//
// Geometry fields are stored in the source file format's native axis order
// (x, y, z), exactly as a file reader reports them. Conversion to the
// canonical (z, y, x) order used by the assembly core happens through the
// Canonical* accessors.
type Slice struct {
	// Origin is the position of the slice's first voxel, in source axis order.
	Origin [3]float64

	// Spacing is the voxel spacing in source axis order.
	// All components must be positive.
	Spacing [3]float64

	// Direction holds the direction cosines of the slice axes in source
	// axis order. Rows are unit vectors in the reference coordinate space.
	Direction [3][3]float64

	// Pixels is the 2D pixel grid of the slice.
	Pixels *mat.Dense

	// OriginalIndex is the position of this slice in the input collection
	// before sorting. Preserved for traceability.
	OriginalIndex int
}

// CanonicalOrigin returns the slice origin in canonical (z, y, x) order.
func (s *Slice) CanonicalOrigin() [3]float64 {
	return [3]float64{s.Origin[2], s.Origin[1], s.Origin[0]}
}

// CanonicalSpacing returns the voxel spacing in canonical (z, y, x) order.
func (s *Slice) CanonicalSpacing() [3]float64 {
	return [3]float64{s.Spacing[2], s.Spacing[1], s.Spacing[0]}
}

// InPlaneDims returns the (height, width) of the pixel grid, or zeros when
// pixel data has not been loaded.
func (s *Slice) InPlaneDims() (rows, cols int) {
	if s.Pixels == nil {
		return 0, 0
	}
	return s.Pixels.Dims()
}

// Reader is the boundary to the slice-reading collaborator. Implementations
// load per-slice geometry and pixel data from whatever container format they
// understand. Both methods must be idempotent and free of side effects
// beyond populating the given slice.
type Reader interface {
	// LoadMetadata populates Origin, Spacing and Direction.
	LoadMetadata(s *Slice) error

	// LoadData populates the pixel grid.
	LoadData(s *Slice) error
}
