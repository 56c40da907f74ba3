// Package manifest implements the slice-reading boundary backed by a YAML
// stack manifest. The manifest lists per-slice geometry and points at raw
// pixel files (little-endian float64, row-major), which keeps container
// format parsing out of the assembly core.
package manifest

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"volstack/internal/models"
)

// sliceEntry is one slice description in the manifest file.
type sliceEntry struct {
	// Origin, Spacing and Direction are in source (x, y, z) axis order.
	Origin    [3]float64 `yaml:"origin"`
	Spacing   [3]float64 `yaml:"spacing"`
	Direction [9]float64 `yaml:"direction"`

	// Rows and Cols are the in-plane pixel dimensions.
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`

	// Pixels is the pixel file path, relative to the manifest.
	Pixels string `yaml:"pixels"`
}

// Manifest describes one slice stack. It implements models.Reader: both
// load methods are idempotent and only populate the given slice.
type Manifest struct {
	Modality string       `yaml:"modality"`
	Slices   []sliceEntry `yaml:"slices"`

	dir string
}

var _ models.Reader = (*Manifest)(nil)

// Load reads a stack manifest from a YAML file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	if len(m.Slices) == 0 {
		return nil, fmt.Errorf("manifest %s lists no slices", path)
	}

	m.dir = filepath.Dir(path)
	return m, nil
}

// NewSlices creates one slice per manifest entry with only the original
// index populated. Geometry and pixels are filled in by the load methods.
func (m *Manifest) NewSlices() []*models.Slice {
	slices := make([]*models.Slice, len(m.Slices))
	for i := range m.Slices {
		slices[i] = &models.Slice{OriginalIndex: i}
	}
	return slices
}

// LoadMetadata populates the slice's geometry fields from its manifest
// entry.
func (m *Manifest) LoadMetadata(s *models.Slice) error {
	entry, err := m.entry(s)
	if err != nil {
		return err
	}

	s.Origin = entry.Origin
	s.Spacing = entry.Spacing
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			s.Direction[r][c] = entry.Direction[r*3+c]
		}
	}
	return nil
}

// LoadData reads the slice's raw pixel file into its pixel grid.
func (m *Manifest) LoadData(s *models.Slice) error {
	entry, err := m.entry(s)
	if err != nil {
		return err
	}
	if entry.Rows <= 0 || entry.Cols <= 0 {
		return fmt.Errorf("slice %d has invalid pixel dimensions %dx%d", s.OriginalIndex, entry.Rows, entry.Cols)
	}

	file, err := os.Open(filepath.Join(m.dir, entry.Pixels))
	if err != nil {
		return fmt.Errorf("failed to open pixel file for slice %d: %w", s.OriginalIndex, err)
	}
	defer file.Close()

	values := make([]float64, entry.Rows*entry.Cols)
	if err := binary.Read(bufio.NewReader(file), binary.LittleEndian, values); err != nil {
		return fmt.Errorf("failed to read pixel data for slice %d: %w", s.OriginalIndex, err)
	}

	s.Pixels = mat.NewDense(entry.Rows, entry.Cols, values)
	return nil
}

func (m *Manifest) entry(s *models.Slice) (*sliceEntry, error) {
	if s.OriginalIndex < 0 || s.OriginalIndex >= len(m.Slices) {
		return nil, fmt.Errorf("slice index %d outside manifest with %d slices", s.OriginalIndex, len(m.Slices))
	}
	return &m.Slices[s.OriginalIndex], nil
}

// ReadSlices loads the manifest at path and returns fully populated slices
// together with the declared modality.
func ReadSlices(path string) ([]*models.Slice, string, error) {
	m, err := Load(path)
	if err != nil {
		return nil, "", err
	}

	slices := m.NewSlices()
	for _, s := range slices {
		if err := m.LoadMetadata(s); err != nil {
			return nil, "", fmt.Errorf("failed to load slice metadata: %w", err)
		}
		if err := m.LoadData(s); err != nil {
			return nil, "", fmt.Errorf("failed to load slice data: %w", err)
		}
	}
	return slices, m.Modality, nil
}
