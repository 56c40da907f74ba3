package volume

import (
	"volstack/pkg/stack"
)

// DefaultLowestIntensity is the lowest realistic Hounsfield value (air).
// Downstream resegmentation uses it as the default intensity floor for CT.
const DefaultLowestIntensity = -1000.0

// CTImage is the computed-tomography variant of Image. It starts on the
// exact physical scale: voxel values are whole Hounsfield units, and every
// data assignment re-snaps them to integers. Non-trivial intensity
// transforms return a demoted generic Image instead of a CTImage, because
// rescaling breaks the one-to-one mapping between stored values and
// Hounsfield units.
type CTImage struct {
	Image
}

// NewCT creates a CT image from a voxel grid and its assembled geometry.
// The grid values are rounded to whole Hounsfield units.
func NewCT(data []float64, geom stack.Geometry) (*CTImage, error) {
	im, err := New(data, geom)
	if err != nil {
		return nil, err
	}
	ct := &CTImage{Image: *im}
	ct.kind = ExactPhysicalUnit
	ct.updateData()
	return ct, nil
}
