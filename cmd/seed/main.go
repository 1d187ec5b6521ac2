package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"locallibrary/pkg/config"
	"locallibrary/pkg/database"
	"locallibrary/pkg/fakedata"
	"locallibrary/pkg/seeder"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	counts seeder.Counts
	seed   int64
}

func newRootCmd() *cobra.Command {
	opts := options{counts: seeder.DefaultCounts}

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Reset the catalog and fill it with sample data",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.counts.Validate(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				opts.seed = cfg.Seed
			}
			return run(cmd.Context(), cfg, opts, cmd)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.counts.Genres, "genres", opts.counts.Genres, "number of genre draws")
	flags.IntVar(&opts.counts.Authors, "authors", opts.counts.Authors, "number of authors")
	flags.IntVar(&opts.counts.Books, "books", opts.counts.Books, "number of books")
	flags.IntVar(&opts.counts.Instances, "instances", opts.counts.Instances, "number of book instances")
	flags.Int64Var(&opts.seed, "seed", 1, "random seed (defaults to SEED)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts options, cmd *cobra.Command) error {
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	s := seeder.New(db, fakedata.New(opts.seed), logger)
	report, err := s.Run(ctx, opts.counts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nSample data generated\n\n")
	fmt.Fprintf(out, "  languages:      %d\n", report.Languages)
	fmt.Fprintf(out, "  genres:         %d\n", report.Genres)
	fmt.Fprintf(out, "  authors:        %d\n", report.Authors)
	fmt.Fprintf(out, "  books:          %d\n", report.Books)
	fmt.Fprintf(out, "  book instances: %d\n", report.Instances)
	return nil
}
