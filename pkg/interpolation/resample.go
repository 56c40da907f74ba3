// Package interpolation resamples irregularly spaced slice stacks onto a
// regular along-z grid, filling in the planes that missing slices left
// behind.
package interpolation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Resample maps a flat z-major voxel grid sampled at the given irregular
// slice positions onto a regular grid with the given spacing. New planes
// are linear blends of the two nearest recorded slices.
//
// positions must hold one strictly increasing offset per slice, as recorded
// by stack assembly when spacing is irregular. The returned grid spans the
// same physical extent with a new slice count.
func Resample(grid []float64, dim [3]int, positions []float64, spacing float64) ([]float64, [3]int, error) {
	if spacing <= 0 {
		return nil, [3]int{}, fmt.Errorf("slice spacing must be positive, got %g", spacing)
	}
	if len(positions) != dim[0] {
		return nil, [3]int{}, fmt.Errorf("have %d slice positions for %d slices", len(positions), dim[0])
	}
	if len(positions) < 2 {
		return nil, [3]int{}, fmt.Errorf("need at least 2 slice positions to resample, got %d", len(positions))
	}
	planeSize := dim[1] * dim[2]
	if len(grid) != dim[0]*planeSize {
		return nil, [3]int{}, fmt.Errorf("voxel grid has %d values, dimension %v requires %d", len(grid), dim, dim[0]*planeSize)
	}
	for i := 0; i < len(positions)-1; i++ {
		if positions[i+1] <= positions[i] {
			return nil, [3]int{}, fmt.Errorf("slice positions must increase strictly, got %g after %g", positions[i+1], positions[i])
		}
	}

	span := positions[len(positions)-1] - positions[0]
	outSlices := int(math.Round(span/spacing)) + 1
	out := make([]float64, outSlices*planeSize)

	j := 0
	for k := 0; k < outSlices; k++ {
		z := positions[0] + float64(k)*spacing
		for j < len(positions)-2 && positions[j+1] < z {
			j++
		}
		t := (z - positions[j]) / (positions[j+1] - positions[j])
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}

		plane := out[k*planeSize : (k+1)*planeSize]
		copy(plane, grid[j*planeSize:(j+1)*planeSize])
		floats.Scale(1-t, plane)
		floats.AddScaled(plane, t, grid[(j+1)*planeSize:(j+2)*planeSize])
	}

	return out, [3]int{outSlices, dim[1], dim[2]}, nil
}
