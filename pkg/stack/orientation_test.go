package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volstack/internal/models"
)

var identity = [3][3]float64{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
}

func TestResolveOrientationIdentityStack(t *testing.T) {
	slices := []*models.Slice{
		axialSlice(0, 1, 0),
		axialSlice(1, 1, 1),
		axialSlice(2, 1, 2),
	}

	ordering, err := ResolveOrdering(slices, DefaultPolicy(), nil)
	require.NoError(t, err)

	orientation, err := ResolveOrientation(ordering.Slices, ordering.SliceSpacing, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, identity, orientation)
}

func TestResolveOrientationIsIdempotent(t *testing.T) {
	slices := []*models.Slice{
		axialSlice(0, 1, 0),
		axialSlice(1, 1, 1),
		axialSlice(3, 1, 3),
	}

	ordering, err := ResolveOrdering(slices, DefaultPolicy(), nil)
	require.NoError(t, err)

	first, err := ResolveOrientation(ordering.Slices, ordering.SliceSpacing, DefaultPolicy())
	require.NoError(t, err)

	// Re-running the resolver on the already-ordered stack must yield the
	// same matrix.
	second, err := ResolveOrientation(ordering.Slices, ordering.SliceSpacing, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveOrientationReversesSourceMatrix(t *testing.T) {
	s := newTestSlice([3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2, 2, 0)
	s.Direction = [3][3]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}

	// With a single slice there are no positional deltas, so the result is
	// the source matrix with its flattened axis order reversed.
	orientation, err := ResolveOrientation([]*models.Slice{s}, 1.0, DefaultPolicy())
	require.NoError(t, err)

	want := [3][3]float64{
		{9, 8, 7},
		{6, 5, 4},
		{3, 2, 1},
	}
	assert.Equal(t, want, orientation)
}

func TestResolveOrientationRecomputesZRow(t *testing.T) {
	// Gaps of 1 and 2 along z: the z row uses the smallest delta, so it
	// stays the unit vector even though the stack has a hole.
	slices := []*models.Slice{
		axialSlice(0, 1, 0),
		axialSlice(1, 1, 1),
		axialSlice(3, 1, 3),
	}

	ordering, err := ResolveOrdering(slices, DefaultPolicy(), nil)
	require.NoError(t, err)

	orientation, err := ResolveOrientation(ordering.Slices, ordering.SliceSpacing, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, identity, orientation)
}

func TestResolveOrientationRejectsBadInput(t *testing.T) {
	_, err := ResolveOrientation(nil, 1.0, DefaultPolicy())
	require.ErrorIs(t, err, ErrGeometryMismatch)

	s := axialSlice(0, 1, 0)
	_, err = ResolveOrientation([]*models.Slice{s}, 0, DefaultPolicy())
	require.ErrorIs(t, err, ErrGeometryMismatch)
}
