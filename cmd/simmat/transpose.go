package main

import (
	"fmt"

	"github.com/hupe1980/simmat"
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/transpose"
	"github.com/spf13/cobra"
)

func newTransposeCmd(a *app) *cobra.Command {
	var budget int64

	cmd := &cobra.Command{
		Use:   "transpose <src.smx> <dst.smx>",
		Short: "Transpose a matrix within a memory budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := simmat.Open(args[0], matrix.WithRunContext(a.rc))
			if err != nil {
				return err
			}
			defer src.Close()

			stats, err := transpose.Transpose(cmd.Context(), a.rc, src, args[1], transpose.WithMemoryBudget(budget))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d columns (%d entries) to %s in %d batches, %s\n",
				stats.Columns, stats.Entries, args[1], stats.Batches, stats.Duration)
			return nil
		},
	}

	cmd.Flags().Int64Var(&budget, "memory-budget", transpose.DefaultMemoryBudget, "bytes of column data held per batch")
	return cmd
}
