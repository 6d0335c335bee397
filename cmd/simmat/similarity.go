package main

import (
	"fmt"
	"io"

	"github.com/hupe1980/simmat"
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/similarity"
	"github.com/hupe1980/simmat/transpose"
	"github.com/spf13/cobra"
)

func newSimilarityCmd(a *app) *cobra.Command {
	var (
		transposed    string
		keepTranspose string
		k             int
		workers       int
		minScore      float32
		budget        int64
		failOnSkip    bool
	)

	cmd := &cobra.Command{
		Use:   "similarity <src.smx> <dst.smx>",
		Short: "Compute the top-k cosine neighbors of every row",
		Long: `Compute the top-k cosine neighbors of every row of src.

Without --transposed the transpose of src is built first, in a temporary
directory unless --keep-transpose names a path for it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			simOpts := []similarity.Option{
				similarity.WithK(k),
				similarity.WithWorkers(workers),
			}
			if cmd.Flags().Changed("min-score") {
				simOpts = append(simOpts, similarity.WithMinScore(minScore))
			}

			var report *similarity.Report
			if transposed != "" {
				src, err := simmat.Open(args[0], matrix.WithRunContext(a.rc))
				if err != nil {
					return err
				}
				defer src.Close()

				t, err := simmat.Open(transposed, matrix.WithRunContext(a.rc))
				if err != nil {
					return err
				}
				defer t.Close()

				report, err = similarity.Compute(cmd.Context(), a.rc, src, t, args[1], simOpts...)
				if err != nil {
					return err
				}
			} else {
				opts := []simmat.Option{
					simmat.WithRunContext(a.rc),
					simmat.WithTransposeOptions(transpose.WithMemoryBudget(budget)),
					simmat.WithSimilarityOptions(simOpts...),
				}
				if keepTranspose != "" {
					opts = append(opts, simmat.WithTransposePath(keepTranspose))
				}

				res, err := simmat.NewPipeline(opts...).Run(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				report = res.Similarity
			}

			printReport(cmd.OutOrStdout(), args[1], report)
			if failOnSkip && report.Failures > 0 {
				return report.Err()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&transposed, "transposed", "", "use an existing transpose of src")
	cmd.Flags().StringVar(&keepTranspose, "keep-transpose", "", "keep the intermediate transpose at this path")
	cmd.Flags().IntVar(&k, "k", similarity.DefaultK, "neighbors kept per row")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 for GOMAXPROCS)")
	cmd.Flags().Float32Var(&minScore, "min-score", 0, "drop neighbors scoring below this")
	cmd.Flags().Int64Var(&budget, "memory-budget", transpose.DefaultMemoryBudget, "bytes of column data held per transpose batch")
	cmd.Flags().BoolVar(&failOnSkip, "fail-on-skip", false, "exit non-zero if any row was skipped")
	cmd.MarkFlagsMutuallyExclusive("transposed", "keep-transpose")

	return cmd
}

func printReport(w io.Writer, dst string, r *similarity.Report) {
	fmt.Fprintf(w, "wrote %d rows (%d empty) to %s in %s\n", r.Written, r.Empty, dst, r.Duration)
	if r.Failures > 0 {
		fmt.Fprintf(w, "skipped %d rows: %v\n", r.Failures, r.SkippedIDs())
	}
}
