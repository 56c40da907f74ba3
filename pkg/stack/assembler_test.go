package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volstack/internal/models"
)

func TestAssembleEvenStack(t *testing.T) {
	// Three 2x2 slices at z = 0, 1, 2 with identity direction cosines,
	// handed over out of order.
	build := func(z, fill float64, idx int) *models.Slice {
		s := newTestSlice([3]float64{2, 1, z}, [3]float64{1, 1, 1}, 2, 2, fill)
		s.OriginalIndex = idx
		return s
	}
	slices := []*models.Slice{
		build(2, 2, 0),
		build(0, 0, 1),
		build(1, 1, 2),
	}

	collector := &Collector{}
	result, err := NewAssembler(DefaultPolicy(), collector).Assemble(slices)
	require.NoError(t, err)

	geom := result.Geometry
	assert.Equal(t, [3]int{3, 2, 2}, geom.Dimension)
	assert.Equal(t, [3]float64{0, 1, 2}, geom.Origin, "origin is the first sorted slice's origin in canonical order")
	assert.Equal(t, [3]float64{1, 1, 1}, geom.Spacing)
	assert.Equal(t, identity, geom.Orientation)
	assert.Nil(t, geom.SlicePositions)
	assert.Empty(t, collector.Diagnostics)

	// The voxel grid follows sorted order, not input order.
	require.Len(t, result.Voxels, 12)
	for z := 0; z < 3; z++ {
		for i := 0; i < 4; i++ {
			assert.Equal(t, float64(z), result.Voxels[z*4+i], "plane %d", z)
		}
	}
}

func TestAssembleIrregularStackRecordsPositions(t *testing.T) {
	slices := []*models.Slice{
		axialSlice(0, 1, 0),
		axialSlice(1, 1, 1),
		axialSlice(3, 1, 3),
	}

	collector := &Collector{}
	result, err := NewAssembler(DefaultPolicy(), collector).Assemble(slices)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1, 3}, result.Geometry.SlicePositions)
	assert.Equal(t, [3]float64{1, 1, 1}, result.Geometry.Spacing)
	require.Len(t, collector.Diagnostics, 1)
}

func TestAssembleRejectsInPlaneMismatch(t *testing.T) {
	a := newTestSlice([3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2, 2, 0)
	b := newTestSlice([3]float64{0, 0, 1}, [3]float64{1, 1, 1}, 3, 2, 1)
	a.OriginalIndex, b.OriginalIndex = 0, 1

	_, err := NewAssembler(DefaultPolicy(), nil).Assemble([]*models.Slice{a, b})
	require.ErrorIs(t, err, ErrGeometryMismatch)
	assert.Contains(t, err.Error(), "in-plane dimension")
}

func TestAssembleRejectsDuplicatePrimaryPositions(t *testing.T) {
	// Same z, different y: ordering succeeds via the tie-break, but the
	// stack has no monotonic primary axis and must fail validation.
	a := newTestSlice([3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 2, 2, 0)
	b := newTestSlice([3]float64{0, 1, 0}, [3]float64{1, 1, 1}, 2, 2, 1)
	c := newTestSlice([3]float64{0, 0, 1}, [3]float64{1, 1, 1}, 2, 2, 2)
	a.OriginalIndex, b.OriginalIndex, c.OriginalIndex = 0, 1, 2

	_, err := NewAssembler(DefaultPolicy(), nil).Assemble([]*models.Slice{a, b, c})
	require.ErrorIs(t, err, ErrGeometryMismatch)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestAssembleRejectsNonPositiveSpacing(t *testing.T) {
	a := newTestSlice([3]float64{0, 0, 0}, [3]float64{1, 0, 1}, 2, 2, 0)
	b := newTestSlice([3]float64{0, 0, 1}, [3]float64{1, 0, 1}, 2, 2, 1)

	_, err := NewAssembler(DefaultPolicy(), nil).Assemble([]*models.Slice{a, b})
	require.ErrorIs(t, err, ErrGeometryMismatch)
	assert.Contains(t, err.Error(), "spacing")
}

func TestGeometryCloneIsDeep(t *testing.T) {
	g := Geometry{
		Origin:         [3]float64{0, 0, 0},
		Spacing:        [3]float64{1, 1, 1},
		Orientation:    identity,
		Dimension:      [3]int{3, 2, 2},
		SlicePositions: []float64{0, 1, 3},
	}

	clone := g.Clone()
	clone.SlicePositions[0] = 99

	assert.Equal(t, 0.0, g.SlicePositions[0], "mutating a clone must not affect the original")
}
