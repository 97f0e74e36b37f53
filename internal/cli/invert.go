package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orena1/bigstream/pkg/config"
	"github.com/orena1/bigstream/pkg/field"
	"github.com/orena1/bigstream/pkg/piecewise"
)

// newInvertCmd creates the invert command. It reads a displacement field from
// the fixed store reference and writes its numerical inverse to the output
// store, block by block.
func newInvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invert [run.toml]",
		Short: "Numerically invert a displacement field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := config.Load(args[0])
			if err != nil {
				return err
			}
			return runInvert(cmd.Context(), run)
		},
	}
}

// runInvert executes one field-inversion job end to end.
func runInvert(ctx context.Context, run *config.Run) error {
	logger := loggerFromContext(ctx)

	src, err := openStore(ctx, run.Fixed.Store, run.Redis)
	if err != nil {
		return fmt.Errorf("open field store: %w", err)
	}
	defer src.Close()

	out, err := createStore(ctx, run.Output.Store, src.Shape(), outputChunk(run, len(src.Shape())), run.Redis)
	if err != nil {
		return fmt.Errorf("create output store: %w", err)
	}
	defer out.Close()

	p := newProgress(logger)
	err = piecewise.InvertDisplacementField(ctx, src, run.Fixed.Spacing, run.Block.Size,
		piecewise.NewStoreSink(out), invertOptions(run.Invert),
		piecewise.Options{Workers: run.Block.Workers, Logger: logger})
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Inverted field %v into %s", src.Shape(), run.Output.Store))
	return nil
}

// invertOptions merges the run file's inversion knobs over the algorithm
// defaults. Zero values keep the default.
func invertOptions(cfg config.Invert) field.Options {
	opts := field.DefaultOptions()
	if cfg.Step > 0 {
		opts.Step = cfg.Step
	}
	if cfg.Iterations > 0 {
		opts.Iterations = cfg.Iterations
	}
	if cfg.SqrtOrder > 0 {
		opts.SqrtOrder = cfg.SqrtOrder
	}
	if cfg.SqrtStep > 0 {
		opts.SqrtStep = cfg.SqrtStep
	}
	if cfg.SqrtIterations > 0 {
		opts.SqrtIterations = cfg.SqrtIterations
	}
	return opts
}
