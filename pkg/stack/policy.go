package stack

import (
	"fmt"
	"math"
)

// Policy holds the tunable constants of stack assembly. The defaults
// reproduce the reference behavior; they are kept configurable because the
// irregularity threshold in particular is a policy choice, not a property
// of the geometry.
type Policy struct {
	// SpacingMultiplierLimit is the ratio of an inter-slice gap to the
	// smallest observed gap above which spacing is declared irregular.
	SpacingMultiplierLimit float64

	// RoundingDecimals is the number of decimal places used when rounding
	// resolved spacings, positional deltas and slice positions.
	RoundingDecimals int

	// SpacingTolerance is the absolute tolerance used when comparing the
	// resolved slice spacing against the nominal spacing from metadata.
	SpacingTolerance float64
}

// DefaultPolicy returns the assembly policy with default values.
func DefaultPolicy() Policy {
	return Policy{
		SpacingMultiplierLimit: 1.2,
		RoundingDecimals:       5,
		SpacingTolerance:       1e-5,
	}
}

// Validate checks that the policy values are usable.
func (p Policy) Validate() error {
	if p.SpacingMultiplierLimit < 1.0 {
		return fmt.Errorf("spacing multiplier limit must be at least 1.0, got %g", p.SpacingMultiplierLimit)
	}
	if p.RoundingDecimals < 0 {
		return fmt.Errorf("rounding decimals must be non-negative, got %d", p.RoundingDecimals)
	}
	if p.SpacingTolerance < 0 {
		return fmt.Errorf("spacing tolerance must be non-negative, got %g", p.SpacingTolerance)
	}
	return nil
}

// round rounds v to the policy's number of decimal places.
func (p Policy) round(v float64) float64 {
	scale := math.Pow(10, float64(p.RoundingDecimals))
	return math.Round(v*scale) / scale
}
