package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gopermute/app"
	"gopermute/internal"
	"gopermute/internal/config"
)

func main() {
	_ = godotenv.Load()

	rootCmd := newRootCmd(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// common holds the flags every test command accepts
type common struct {
	seed     int64
	unseeded bool
	reps     int
	workers  int
}

func (c *common) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&c.seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().BoolVar(&c.unseeded, "unseeded", false, "Seed from runtime entropy instead of --seed")
	cmd.Flags().IntVar(&c.reps, "reps", 0, "Number of replications (0 uses PERMUTE_DEFAULT_REPS)")
	cmd.Flags().IntVar(&c.workers, "workers", 0, "Parallel workers (0 uses PERMUTE_WORKERS)")
}

func (c *common) seedPtr() *int64 {
	if c.unseeded {
		return nil
	}
	v := c.seed
	return &v
}

func newRootCmd(out io.Writer) *cobra.Command {
	var service *app.PermutationService

	rootCmd := &cobra.Command{
		Use:           "gopermute",
		Short:         "Randomization and permutation tests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load()
			if err != nil {
				return err
			}
			level, _ := internal.ParseLogLevel(appConfig.Log.Level)
			service = app.NewPermutationService(appConfig.Permute, internal.NewLoggerTo(cmd.ErrOrStderr(), level))
			return nil
		},
	}

	svc := func() *app.PermutationService { return service }
	rootCmd.AddCommand(
		newTwoSampleCmd(out, svc),
		newOneSampleCmd(out, svc),
		newConfIntCmd(out, svc),
		newCorrCmd(out, svc),
		newBinomCmd(out, svc),
	)
	return rootCmd
}

func newTwoSampleCmd(out io.Writer, svc func() *app.PermutationService) *cobra.Command {
	var x, y []float64
	var stat, alternative string
	var shift float64
	var keepDist bool
	var c common

	cmd := &cobra.Command{
		Use:   "two-sample",
		Short: "Two-sample permutation test",
		Long: `Test whether x and y come from the same population by relabeling units.

Example: gopermute two-sample --x 10,11,12 --y 1,2,3 --alternative greater --reps 10000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.TwoSampleRequest{
				X:           x,
				Y:           y,
				Reps:        c.reps,
				Stat:        stat,
				Alternative: alternative,
				Seed:        c.seedPtr(),
				KeepDist:    keepDist,
				Workers:     c.workers,
			}
			if cmd.Flags().Changed("shift") {
				req.Shift = &shift
			}
			res, err := svc().TwoSample(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		},
	}

	cmd.Flags().Float64SliceVar(&x, "x", nil, "First sample, comma separated")
	cmd.Flags().Float64SliceVar(&y, "y", nil, "Second sample, comma separated")
	cmd.Flags().StringVar(&stat, "stat", "mean", "Test statistic: mean or t")
	cmd.Flags().StringVar(&alternative, "alternative", "greater", "greater, less or two-sided")
	cmd.Flags().Float64Var(&shift, "shift", 0, "Constant shift under the null")
	cmd.Flags().BoolVar(&keepDist, "keep-dist", false, "Include the null distribution in the output")
	c.register(cmd)
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func newOneSampleCmd(out io.Writer, svc func() *app.PermutationService) *cobra.Command {
	var x, y []float64
	var stat, alternative string
	var keepDist bool
	var c common

	cmd := &cobra.Command{
		Use:   "one-sample",
		Short: "One-sample or paired sign-flip test",
		Long: `Test whether x, or the paired differences x - y, are symmetric about zero.

Example: gopermute one-sample --x 1.2,0.4,2.2 --y 1.0,0.1,1.9 --alternative two-sided`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.OneSampleRequest{
				X:           x,
				Reps:        c.reps,
				Stat:        stat,
				Alternative: alternative,
				Seed:        c.seedPtr(),
				KeepDist:    keepDist,
				Workers:     c.workers,
			}
			if cmd.Flags().Changed("y") {
				req.Y = y
			}
			res, err := svc().OneSample(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		},
	}

	cmd.Flags().Float64SliceVar(&x, "x", nil, "Sample, comma separated")
	cmd.Flags().Float64SliceVar(&y, "y", nil, "Optional paired sample, comma separated")
	cmd.Flags().StringVar(&stat, "stat", "mean", "Test statistic: mean or t")
	cmd.Flags().StringVar(&alternative, "alternative", "greater", "greater, less or two-sided")
	cmd.Flags().BoolVar(&keepDist, "keep-dist", false, "Include the null distribution in the output")
	c.register(cmd)
	_ = cmd.MarkFlagRequired("x")
	return cmd
}

func newConfIntCmd(out io.Writer, svc func() *app.PermutationService) *cobra.Command {
	var x, y []float64
	var stat, side string
	var level float64
	var c common

	cmd := &cobra.Command{
		Use:   "conf-int",
		Short: "Confidence interval for a constant shift",
		Long: `Invert the two-sample test to bound the shift between x and y.

Example: gopermute conf-int --x 0,1,2,3,4 --y 1,2,3,4,5 --level 0.95 --side two-sided`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc().ConfInt(cmd.Context(), app.ConfIntRequest{
				X:       x,
				Y:       y,
				Level:   level,
				Side:    side,
				Reps:    c.reps,
				Stat:    stat,
				Seed:    c.seedPtr(),
				Workers: c.workers,
			})
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		},
	}

	cmd.Flags().Float64SliceVar(&x, "x", nil, "First sample, comma separated")
	cmd.Flags().Float64SliceVar(&y, "y", nil, "Second sample, comma separated")
	cmd.Flags().StringVar(&stat, "stat", "mean", "Test statistic: mean or t")
	cmd.Flags().StringVar(&side, "side", "two-sided", "two-sided, lower or upper")
	cmd.Flags().Float64Var(&level, "level", 0.95, "Confidence level")
	c.register(cmd)
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func newCorrCmd(out io.Writer, svc func() *app.PermutationService) *cobra.Command {
	var x, y []float64
	var c common

	cmd := &cobra.Command{
		Use:   "corr",
		Short: "Permutation test for Pearson correlation",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc().Corr(cmd.Context(), app.CorrRequest{
				X:       x,
				Y:       y,
				Reps:    c.reps,
				Seed:    c.seedPtr(),
				Workers: c.workers,
			})
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		},
	}

	cmd.Flags().Float64SliceVar(&x, "x", nil, "First variable, comma separated")
	cmd.Flags().Float64SliceVar(&y, "y", nil, "Second variable, comma separated")
	c.register(cmd)
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func newBinomCmd(out io.Writer, svc func() *app.PermutationService) *cobra.Command {
	var n, k int
	var level float64
	var side string

	cmd := &cobra.Command{
		Use:   "binom",
		Short: "Clopper-Pearson interval for a binomial proportion",
		Long: `Bound a success probability from k successes in n trials.

Example: gopermute binom --n 10000 --k 37 --level 0.99`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc().BinomConfInt(cmd.Context(), app.BinomRequest{N: n, K: k, Level: level, Side: side})
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		},
	}

	cmd.Flags().IntVar(&n, "n", 0, "Number of trials")
	cmd.Flags().IntVar(&k, "k", 0, "Number of successes")
	cmd.Flags().Float64Var(&level, "level", 0.975, "Confidence level")
	cmd.Flags().StringVar(&side, "side", "two-sided", "two-sided, lower or upper")
	_ = cmd.MarkFlagRequired("n")
	_ = cmd.MarkFlagRequired("k")
	return cmd
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
