// Package visualization extracts 2D planes from an assembled volume and
// writes them out as images for quick inspection.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"volstack/pkg/volume"
)

// Viewer extracts orthogonal planes from a volumetric image. Voxel values
// are window-rescaled to the full 16-bit gray range, so physical-unit data
// (e.g. Hounsfield units spanning negative values) renders sensibly.
type Viewer struct {
	im *volume.Image

	// window bounds used for rescaling
	lo, hi float64
}

// NewViewer creates a viewer for the given image. The display window spans
// the image's full intensity range.
func NewViewer(im *volume.Image) *Viewer {
	grid := im.VoxelGrid()
	lo, hi := 0.0, 1.0
	if len(grid) > 0 {
		lo, hi = grid[0], grid[0]
		for _, v := range grid {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return &Viewer{im: im, lo: lo, hi: hi}
}

// ExtractSlice extracts a 2D plane orthogonal to the specified canonical
// axis at the given position.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	dim := v.im.Dimension()
	depth, height, width := dim[0], dim[1], dim[2]

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// ZY plane
		if position >= width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, width)
		}
		img = image.NewGray16(image.Rect(0, 0, depth, height))
		for y := 0; y < height; y++ {
			for z := 0; z < depth; z++ {
				img.SetGray16(z, y, v.gray(v.im.At(z, y, position)))
			}
		}

	case "y", "Y":
		// ZX plane
		if position >= height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, height)
		}
		img = image.NewGray16(image.Rect(0, 0, width, depth))
		for z := 0; z < depth; z++ {
			for x := 0; x < width; x++ {
				img.SetGray16(x, z, v.gray(v.im.At(z, position, x)))
			}
		}

	case "z", "Z":
		// XY plane
		if position >= depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, depth)
		}
		img = image.NewGray16(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.SetGray16(x, y, v.gray(v.im.At(position, y, x)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// ExtractRegion extracts a 3D subregion from the volume as a flat z-major
// grid, using canonical (z, y, x) coordinates.
func (v *Viewer) ExtractRegion(startZ, startY, startX, sizeZ, sizeY, sizeX int) ([]float64, error) {
	if startZ < 0 || startY < 0 || startX < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}
	if sizeZ <= 0 || sizeY <= 0 || sizeX <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}

	dim := v.im.Dimension()
	if startZ+sizeZ > dim[0] || startY+sizeY > dim[1] || startX+sizeX > dim[2] {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := make([]float64, sizeZ*sizeY*sizeX)
	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < sizeX; x++ {
				region[z*sizeY*sizeX+y*sizeX+x] = v.im.At(startZ+z, startY+y, startX+x)
			}
		}
	}

	return region, nil
}

// gray rescales a voxel value into the display window.
func (v *Viewer) gray(value float64) color.Gray16 {
	if v.hi <= v.lo {
		return color.Gray16{}
	}
	scaled := (value - v.lo) / (v.hi - v.lo)
	if scaled < 0 {
		scaled = 0
	} else if scaled > 1 {
		scaled = 1
	}
	return color.Gray16{Y: uint16(scaled * 65535)}
}

// SaveSlice saves an extracted plane as a JPEG image.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every plane along the specified axis.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	dim := v.im.Dimension()
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = dim[2]
	case "y", "Y":
		maxPos = dim[1]
	case "z", "Z":
		maxPos = dim[0]
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
