package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/orena1/bigstream/pkg/config"
	"github.com/orena1/bigstream/pkg/piecewise"
)

// pointsOpts holds the command-line flags for the points command.
type pointsOpts struct {
	output string  // output CSV path
	pitch  float64 // uniform partition pitch; 0 means block-aligned
}

// newPointsCmd creates the points command. It maps scattered physical
// coordinates from a CSV file through the run file's transform chain and
// writes the mapped coordinates back out. Columns beyond the spatial rank
// pass through untouched.
func newPointsCmd() *cobra.Command {
	var opts pointsOpts

	cmd := &cobra.Command{
		Use:   "points [run.toml] [points.csv]",
		Short: "Map scattered physical coordinates through the transform chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := config.Load(args[0])
			if err != nil {
				return err
			}
			return runPoints(cmd.Context(), run, args[1], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output CSV file (default: stdout)")
	cmd.Flags().Float64Var(&opts.pitch, "pitch", 0, "uniform partition pitch in physical units (default: block size at fixed spacing)")

	return cmd
}

// runPoints executes one coordinate-mapping job end to end.
func runPoints(ctx context.Context, run *config.Run, input string, opts *pointsOpts) error {
	logger := loggerFromContext(ctx)

	chain, err := buildChain(ctx, run, run.Fixed.Spacing)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %d transforms", len(chain))

	points, err := readPointsCSV(input)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %d points from %s", len(points), input)

	var part piecewise.Partition
	if opts.pitch > 0 {
		part = piecewise.PitchPartition(opts.pitch, len(run.Fixed.Spacing))
	} else {
		part = piecewise.BlockPartition(run.Block.Size, run.Fixed.Spacing)
	}

	p := newProgress(logger)
	mapped, err := piecewise.ApplyTransformToCoordinates(ctx, points, chain, part,
		piecewise.Options{Workers: run.Block.Workers, Logger: logger})
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Mapped %d points", len(mapped)))

	return writePointsCSV(opts.output, mapped)
}

// readPointsCSV reads one point per row, every column a float.
func readPointsCSV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	points := make([][]float64, len(rows))
	for i, row := range rows {
		points[i] = make([]float64, len(row))
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %d: %w", path, i+1, j+1, err)
			}
			points[i][j] = v
		}
	}
	return points, nil
}

// writePointsCSV writes one point per row to path, or stdout when path is
// empty.
func writePointsCSV(path string, points [][]float64) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	row := []string{}
	for _, p := range points {
		row = row[:0]
		for _, v := range p {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
