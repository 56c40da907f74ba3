package manifest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestStack writes a manifest plus raw pixel files for a 3-slice 2x2
// stack at z = 0, 1, 2 and returns the manifest path.
func writeTestStack(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	manifest := "modality: CT\nslices:\n"
	for i := 0; i < 3; i++ {
		values := []float64{float64(i), float64(i), float64(i), float64(i)}
		buf := &bytes.Buffer{}
		require.NoError(t, binary.Write(buf, binary.LittleEndian, values))

		pixelFile := fmt.Sprintf("slice_%d.bin", i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, pixelFile), buf.Bytes(), 0644))

		manifest += fmt.Sprintf(
			"  - origin: [0, 0, %d]\n"+
				"    spacing: [1, 1, 1]\n"+
				"    direction: [1, 0, 0, 0, 1, 0, 0, 0, 1]\n"+
				"    rows: 2\n"+
				"    cols: 2\n"+
				"    pixels: %s\n", i, pixelFile)
	}

	path := filepath.Join(dir, "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0644))
	return path
}

func TestReadSlices(t *testing.T) {
	slices, modality, err := ReadSlices(writeTestStack(t))
	require.NoError(t, err)

	assert.Equal(t, "CT", modality)
	require.Len(t, slices, 3)

	for i, s := range slices {
		assert.Equal(t, i, s.OriginalIndex)
		assert.Equal(t, [3]float64{0, 0, float64(i)}, s.Origin)
		assert.Equal(t, [3]float64{1, 1, 1}, s.Spacing)
		assert.Equal(t, [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, s.Direction)

		rows, cols := s.InPlaneDims()
		assert.Equal(t, 2, rows)
		assert.Equal(t, 2, cols)
		assert.Equal(t, float64(i), s.Pixels.At(0, 0))
	}
}

func TestLoadMetadataIsIdempotent(t *testing.T) {
	m, err := Load(writeTestStack(t))
	require.NoError(t, err)

	s := m.NewSlices()[1]
	require.NoError(t, m.LoadMetadata(s))
	first := *s

	require.NoError(t, m.LoadMetadata(s))
	assert.Equal(t, first.Origin, s.Origin)
	assert.Equal(t, first.Spacing, s.Spacing)
	assert.Equal(t, first.Direction, s.Direction)

	require.NoError(t, m.LoadData(s))
	require.NoError(t, m.LoadData(s))
	assert.Equal(t, 1.0, s.Pixels.At(1, 1))
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("EmptySliceList", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stack.yaml")
		require.NoError(t, os.WriteFile(path, []byte("modality: CT\nslices: []\n"), 0644))
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("TruncatedPixelFile", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "short.bin"), []byte{1, 2, 3}, 0644))

		manifest := "slices:\n" +
			"  - origin: [0, 0, 0]\n" +
			"    spacing: [1, 1, 1]\n" +
			"    direction: [1, 0, 0, 0, 1, 0, 0, 0, 1]\n" +
			"    rows: 2\n" +
			"    cols: 2\n" +
			"    pixels: short.bin\n"
		path := filepath.Join(dir, "stack.yaml")
		require.NoError(t, os.WriteFile(path, []byte(manifest), 0644))

		_, _, err := ReadSlices(path)
		require.Error(t, err)
	})
}
