// Package volume models the assembled 3D image entity and the physical
// meaning of its voxel values. An image carries an intensity-kind tag that
// records whether stored values still map one-to-one onto a physical unit
// (Hounsfield units for CT); intensity transforms either preserve that tag
// or explicitly demote the result to an arbitrary scale. Demotion is one
// way: no operation restores the exact physical scale.
package volume

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"volstack/pkg/stack"
)

// IntensityKind tags how voxel values relate to a physical intensity scale.
type IntensityKind int

const (
	// ArbitraryScale means voxel values carry no absolute physical meaning.
	ArbitraryScale IntensityKind = iota

	// ExactPhysicalUnit means every stored value corresponds one-to-one to
	// a physical unit on an instrument-calibrated scale.
	ExactPhysicalUnit
)

// String returns a readable name for the intensity kind.
func (k IntensityKind) String() string {
	switch k {
	case ExactPhysicalUnit:
		return "exact physical unit"
	default:
		return "arbitrary scale"
	}
}

// Image is a 3D volumetric image: a flat z-major voxel grid plus the
// assembled geometry, copied by value at construction so that no two images
// share mutable geometry state.
type Image struct {
	data  []float64
	geom  stack.Geometry
	kind  IntensityKind
	notes []string
}

// New creates a generic, arbitrary-scale image from a voxel grid and its
// assembled geometry. The grid length must match the geometry's dimension.
func New(data []float64, geom stack.Geometry) (*Image, error) {
	if len(data) != geom.VoxelCount() {
		return nil, fmt.Errorf("voxel grid has %d values, geometry %v requires %d",
			len(data), geom.Dimension, geom.VoxelCount())
	}
	return &Image{data: data, geom: geom.Clone()}, nil
}

// NewFromAssembly builds the image entity appropriate for the acquisition
// modality: CT volumes start on the exact Hounsfield scale, anything else
// is an arbitrary-scale generic image.
func NewFromAssembly(res *stack.Result, modality string) (*Image, error) {
	if strings.EqualFold(modality, "CT") {
		ct, err := NewCT(res.Voxels, res.Geometry)
		if err != nil {
			return nil, err
		}
		return &ct.Image, nil
	}
	return New(res.Voxels, res.Geometry)
}

// VoxelGrid returns the voxel grid in canonical (z, y, x) order as a flat
// z-major slice: index = z*height*width + y*width + x.
func (im *Image) VoxelGrid() []float64 { return im.data }

// At returns the voxel value at canonical coordinates (z, y, x).
func (im *Image) At(z, y, x int) float64 {
	return im.data[z*im.geom.Dimension[1]*im.geom.Dimension[2]+y*im.geom.Dimension[2]+x]
}

// Dimension returns (numSlices, height, width).
func (im *Image) Dimension() [3]int { return im.geom.Dimension }

// Origin returns the volume origin in canonical (z, y, x) order.
func (im *Image) Origin() [3]float64 { return im.geom.Origin }

// Spacing returns the voxel spacing in canonical (z, y, x) order.
func (im *Image) Spacing() [3]float64 { return im.geom.Spacing }

// Orientation returns the canonical-order direction-cosine matrix.
func (im *Image) Orientation() [3][3]float64 { return im.geom.Orientation }

// SlicePositions returns the recorded cumulative slice offsets, or nil for
// a regularly spaced volume. The returned slice is a copy.
func (im *Image) SlicePositions() []float64 {
	return append([]float64(nil), im.geom.SlicePositions...)
}

// Kind returns the intensity-kind tag.
func (im *Image) Kind() IntensityKind { return im.kind }

// AddNote attaches a diagnostic note to the image. Notes travel with the
// image through demotion.
func (im *Image) AddNote(note string) {
	im.notes = append(im.notes, note)
}

// Notes returns a copy of the accumulated diagnostic notes.
func (im *Image) Notes() []string {
	return append([]string(nil), im.notes...)
}

// SetVoxelGrid replaces the voxel grid. The new grid must match the image
// dimension. On the exact physical scale the values are snapped back to
// whole units afterwards.
func (im *Image) SetVoxelGrid(data []float64) error {
	if len(data) != im.geom.VoxelCount() {
		return fmt.Errorf("voxel grid has %d values, image dimension %v requires %d",
			len(data), im.geom.Dimension, im.geom.VoxelCount())
	}
	im.data = data
	im.updateData()
	return nil
}

// updateData runs the post-assignment integrity step. While the image is on
// an exact physical scale, values are rounded to the nearest integer so they
// stay on the discrete unit scale. Rounding is half away from zero
// (math.Round); the same convention applies everywhere in this package.
func (im *Image) updateData() {
	if im.kind != ExactPhysicalUnit {
		return
	}
	for i, v := range im.data {
		im.data[i] = math.Round(v)
	}
}

// newFromTemplate builds a generic image whose geometry and accumulated
// notes are copied field by field from src. This is the demotion path: the
// result is always on the arbitrary scale, and mutating its geometry or
// notes cannot affect src.
func newFromTemplate(src *Image, data []float64) *Image {
	return &Image{
		data:  data,
		geom:  src.geom.Clone(),
		kind:  ArbitraryScale,
		notes: append([]string(nil), src.notes...),
	}
}

// ScaleIntensities multiplies every voxel by scale.
//
// Scaling by exactly 1.0 is an identity and returns the receiver unchanged.
// Any other factor breaks the one-to-one mapping to a physical unit, so an
// image on the exact physical scale returns a new demoted generic image and
// is itself left untouched; callers must use the returned image. A generic
// image is scaled in place.
func (im *Image) ScaleIntensities(scale float64) (*Image, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("%w: scale factor must be finite, got %g", ErrInvalidTransform, scale)
	}
	if scale == 1.0 {
		return im, nil
	}

	if im.kind == ExactPhysicalUnit {
		scaled := append([]float64(nil), im.data...)
		floats.Scale(scale, scaled)
		return newFromTemplate(im, scaled), nil
	}

	floats.Scale(scale, im.data)
	return im, nil
}
