package volume

import (
	"errors"
	"fmt"
)

// ErrNotBinaryMask is returned when a grid expected to be a binary mask
// contains values other than 0 and 1, or selects nothing at all.
var ErrNotBinaryMask = errors.New("not a binary mask")

// ValidateMask checks that grid is a usable binary mask: non-empty, only 0s
// and 1s, with at least one voxel set. Downstream operations that align a
// mask with an assembled volume rely on this check.
func ValidateMask(grid []float64) error {
	if len(grid) == 0 {
		return fmt.Errorf("%w: the grid is empty and is not a mask consisting of 0s and 1s", ErrNotBinaryMask)
	}
	ones := 0
	for i, v := range grid {
		switch v {
		case 0.0:
		case 1.0:
			ones++
		default:
			return fmt.Errorf("%w: the grid contains value %g at index %d and is not a mask consisting of 0s and 1s",
				ErrNotBinaryMask, v, i)
		}
	}
	if ones == 0 {
		return fmt.Errorf("%w: the grid selects no voxels and is not a mask consisting of 0s and 1s", ErrNotBinaryMask)
	}
	return nil
}

// MaskFromGrid validates grid as a binary mask and converts it to the
// boolean form used by NormaliseOptions.
func MaskFromGrid(grid []float64) ([]bool, error) {
	if err := ValidateMask(grid); err != nil {
		return nil, err
	}
	mask := make([]bool, len(grid))
	for i, v := range grid {
		mask[i] = v == 1.0
	}
	return mask, nil
}
