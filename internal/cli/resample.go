package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orena1/bigstream/pkg/config"
	"github.com/orena1/bigstream/pkg/piecewise"
)

// newResampleCmd creates the resample command. It reads a TOML run file,
// opens the fixed and moving stores, creates the output store, and runs the
// distributed resampling operation.
func newResampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resample [run.toml]",
		Short: "Warp a moving volume onto the fixed volume's grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := config.Load(args[0])
			if err != nil {
				return err
			}
			return runResample(cmd.Context(), run)
		},
	}
}

// runResample executes one resampling job end to end.
func runResample(ctx context.Context, run *config.Run) error {
	logger := loggerFromContext(ctx)

	if run.Moving.Store == "" {
		return fmt.Errorf("resample needs a moving volume store")
	}

	fix, err := openStore(ctx, run.Fixed.Store, run.Redis)
	if err != nil {
		return fmt.Errorf("open fixed store: %w", err)
	}
	defer fix.Close()

	mov, err := openStore(ctx, run.Moving.Store, run.Redis)
	if err != nil {
		return fmt.Errorf("open moving store: %w", err)
	}
	defer mov.Close()

	chain, err := buildChain(ctx, run, run.Fixed.Spacing)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %d transforms", len(chain))

	out, err := createStore(ctx, run.Output.Store, fix.Shape(), outputChunk(run, len(fix.Shape())), run.Redis)
	if err != nil {
		return fmt.Errorf("create output store: %w", err)
	}
	defer out.Close()

	p := newProgress(logger)
	err = piecewise.ApplyTransform(ctx, fix, mov,
		run.Fixed.Spacing, run.Moving.Spacing, run.Block.Size, chain,
		piecewise.NewStoreSink(out),
		piecewise.Options{
			OverlapFactor: run.Block.Overlap,
			Workers:       run.Block.Workers,
			Logger:        logger,
		})
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Resampled %v onto %s", fix.Shape(), run.Output.Store))
	return nil
}
