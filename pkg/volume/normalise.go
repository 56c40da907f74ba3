package volume

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidTransform is returned by intensity transforms when the
// requested method is unknown or its parameters are malformed. The
// operation is atomic: when this error is returned no image was mutated and
// no new image was constructed.
var ErrInvalidTransform = errors.New("invalid transform configuration")

// Normalisation methods recognised by NormaliseIntensities.
const (
	MethodNone            = "none"
	MethodRange           = "range"
	MethodRelativeRange   = "relative_range"
	MethodQuantileRange   = "quantile_range"
	MethodStandardisation = "standardisation"
)

// NormaliseOptions configures NormaliseIntensities.
type NormaliseOptions struct {
	// Method selects the normalisation. An empty method means MethodNone.
	Method string

	// IntensityRange bounds the normalisation. Its meaning depends on the
	// method: absolute intensities for MethodRange, fractions of the
	// observed range for MethodRelativeRange, quantile probabilities for
	// MethodQuantileRange. When nil, method-specific defaults apply.
	IntensityRange *[2]float64

	// SaturationRange, when set, clamps the normalised values.
	SaturationRange *[2]float64

	// Mask restricts the voxels used to derive normalisation statistics.
	// When nil, all voxels contribute.
	Mask []bool
}

// NormaliseIntensities normalises voxel intensities.
//
// MethodNone (or an empty method) is an identity and returns the receiver
// unchanged. Any other method breaks the one-to-one mapping to a physical
// unit: an image on the exact physical scale returns a new demoted generic
// image and is itself left untouched, while a generic image is normalised
// in place. Unknown methods and malformed ranges fail with
// ErrInvalidTransform before anything is modified.
func (im *Image) NormaliseIntensities(opts NormaliseOptions) (*Image, error) {
	method := opts.Method
	if method == "" {
		method = MethodNone
	}
	switch method {
	case MethodNone, MethodRange, MethodRelativeRange, MethodQuantileRange, MethodStandardisation:
	default:
		return nil, fmt.Errorf("%w: unknown normalisation method %q", ErrInvalidTransform, opts.Method)
	}
	if r := opts.IntensityRange; r != nil && r[0] >= r[1] {
		return nil, fmt.Errorf("%w: intensity range [%g, %g] is not increasing", ErrInvalidTransform, r[0], r[1])
	}
	if r := opts.SaturationRange; r != nil && r[0] >= r[1] {
		return nil, fmt.Errorf("%w: saturation range [%g, %g] is not increasing", ErrInvalidTransform, r[0], r[1])
	}
	if opts.Mask != nil && len(opts.Mask) != len(im.data) {
		return nil, fmt.Errorf("%w: mask has %d entries, image has %d voxels", ErrInvalidTransform, len(opts.Mask), len(im.data))
	}

	if method == MethodNone {
		return im, nil
	}

	sample := sampleValues(im.data, opts.Mask)
	if len(sample) == 0 {
		return nil, fmt.Errorf("%w: mask selects no voxels", ErrInvalidTransform)
	}

	normalised, trivial, err := normaliseValues(im.data, sample, method, opts.IntensityRange)
	if err != nil {
		return nil, err
	}
	if trivial {
		// The sample carries no intensity spread; there is nothing to
		// rescale and the physical-unit mapping stays intact.
		return im, nil
	}

	if r := opts.SaturationRange; r != nil {
		for i, v := range normalised {
			if v < r[0] {
				normalised[i] = r[0]
			} else if v > r[1] {
				normalised[i] = r[1]
			}
		}
	}

	if im.kind == ExactPhysicalUnit {
		return newFromTemplate(im, normalised), nil
	}
	im.data = normalised
	return im, nil
}

// sampleValues returns the voxels contributing to normalisation statistics.
func sampleValues(data []float64, mask []bool) []float64 {
	if mask == nil {
		return data
	}
	sample := make([]float64, 0, len(data))
	for i, v := range data {
		if mask[i] {
			sample = append(sample, v)
		}
	}
	return sample
}

// normaliseValues computes the normalised grid. It reports trivial = true
// when the sample spread is degenerate (a constant region), in which case
// the caller should treat the operation as an identity.
func normaliseValues(data, sample []float64, method string, intensityRange *[2]float64) ([]float64, bool, error) {
	if method == MethodStandardisation {
		mean, std := stat.MeanStdDev(sample, nil)
		if std == 0 || std != std {
			return nil, true, nil
		}
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = (v - mean) / std
		}
		return out, false, nil
	}

	var lo, hi float64
	switch method {
	case MethodRange:
		if intensityRange != nil {
			lo, hi = intensityRange[0], intensityRange[1]
		} else {
			lo, hi = floats.Min(sample), floats.Max(sample)
		}

	case MethodRelativeRange:
		a, b := 0.0, 1.0
		if intensityRange != nil {
			a, b = intensityRange[0], intensityRange[1]
		}
		min, max := floats.Min(sample), floats.Max(sample)
		lo = min + a*(max-min)
		hi = min + b*(max-min)

	case MethodQuantileRange:
		a, b := 0.025, 0.975
		if intensityRange != nil {
			a, b = intensityRange[0], intensityRange[1]
		}
		if a < 0 || b > 1 {
			return nil, false, fmt.Errorf("%w: quantile range [%g, %g] outside [0, 1]", ErrInvalidTransform, a, b)
		}
		sorted := append([]float64(nil), sample...)
		sort.Float64s(sorted)
		lo = stat.Quantile(a, stat.Empirical, sorted, nil)
		hi = stat.Quantile(b, stat.Empirical, sorted, nil)
	}

	if hi-lo <= 0 {
		return nil, true, nil
	}
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = (v - lo) / (hi - lo)
	}
	return out, false, nil
}
