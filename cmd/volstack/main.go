package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"volstack/internal/manifest"
	"volstack/pkg/config"
	"volstack/pkg/interpolation"
	"volstack/pkg/stack"
	"volstack/pkg/visualization"
	"volstack/pkg/volume"
)

func main() {
	// Parse command line arguments
	manifestPath := flag.String("manifest", "", "YAML stack manifest describing the 2D slices")
	configPath := flag.String("config", "volstack.yaml", "Configuration file (optional)")
	modality := flag.String("modality", "", "Override the modality declared in the manifest (e.g. CT)")
	resample := flag.Bool("resample", false, "Resample irregularly spaced stacks onto a regular grid")
	extractSlices := flag.Bool("extract-slices", false, "Extract and save volume planes along all axes")
	slicesDir := flag.String("slices-dir", "", "Directory to save extracted planes (default from config)")
	flag.Parse()

	// Validate inputs
	if *manifestPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Load the slice collection through the manifest-backed reader
	slices, declaredModality, err := manifest.ReadSlices(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to read slices: %v", err)
	}
	if *modality == "" {
		*modality = declaredModality
	}

	if cfg.Output.Verbose {
		fmt.Printf("Loaded %d slices from %s (modality %q)\n", len(slices), *manifestPath, *modality)
	}

	// Assemble the volume, collecting any non-fatal diagnostics
	collector := &stack.Collector{}
	assembler := stack.NewAssembler(cfg.Policy(), collector)

	result, err := assembler.Assemble(slices)
	if err != nil {
		log.Fatalf("Stack assembly failed: %v", err)
	}

	for _, d := range collector.Diagnostics {
		fmt.Printf("Warning: %s\n", d.Message)
	}

	img, err := volume.NewFromAssembly(result, *modality)
	if err != nil {
		log.Fatalf("Failed to build volume: %v", err)
	}
	for _, d := range collector.Diagnostics {
		img.AddNote(d.Message)
	}

	geom := result.Geometry
	fmt.Printf("Assembled volume:\n")
	fmt.Printf("  dimension (z, y, x): %v\n", geom.Dimension)
	fmt.Printf("  origin:              %v\n", geom.Origin)
	fmt.Printf("  spacing:             %v\n", geom.Spacing)
	fmt.Printf("  orientation:         %v\n", geom.Orientation)
	fmt.Printf("  intensity scale:     %s\n", img.Kind())

	// Resample onto a regular grid when the stack recorded slice positions
	if *resample && len(geom.SlicePositions) > 0 {
		fmt.Printf("Resampling irregular stack (positions %v, spacing %g)...\n",
			geom.SlicePositions, geom.Spacing[0])

		grid, dim, err := interpolation.Resample(img.VoxelGrid(), img.Dimension(), img.SlicePositions(), geom.Spacing[0])
		if err != nil {
			log.Fatalf("Resampling failed: %v", err)
		}
		fmt.Printf("Resampled volume has %d slices (was %d)\n", dim[0], geom.Dimension[0])

		resampled := geom.Clone()
		resampled.Dimension = dim
		resampled.SlicePositions = nil
		img, err = volume.New(grid, resampled)
		if err != nil {
			log.Fatalf("Failed to build resampled volume: %v", err)
		}
	}

	// Extract and save planes if requested
	if *extractSlices {
		dir := *slicesDir
		if dir == "" {
			dir = cfg.Output.SlicesDir
		}

		viewer := visualization.NewViewer(img)
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(dir, axis)
			if cfg.Output.Verbose {
				fmt.Printf("Saving %s-axis planes to: %s\n", axis, axisDir)
			}
			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				log.Printf("Warning: Failed to save %s-axis planes: %v", axis, err)
			}
		}
	}
}
