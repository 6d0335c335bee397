package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
	"github.com/spf13/cobra"
)

func newBuildCmd(a *app) *cobra.Command {
	var conf row.ValueConf

	cmd := &cobra.Command{
		Use:   "build <input.tsv|-> <output.smx>",
		Short: "Build a sparse matrix from TSV neighbor lists",
		Long: `Build reads lines of the form "rowID<TAB>col:value col:value ..." and
writes them as a sparse matrix quantized to the range [--min, --max].`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			w, err := matrix.NewSparseWriter(args[1], conf,
				matrix.WithWriterLogger(a.rc.Log()),
				matrix.WithWriterMetrics(a.rc.Collector()),
			)
			if err != nil {
				return err
			}
			defer func() {
				if err != nil {
					w.Abort()
				}
			}()

			if err := readTSV(in, w.WriteSparse); err != nil {
				return err
			}
			if err := w.Finish(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", w.Len(), args[1])
			return nil
		},
	}

	cmd.Flags().Float32Var(&conf.Min, "min", 0, "lower bound of the value range")
	cmd.Flags().Float32Var(&conf.Max, "max", 1, "upper bound of the value range")
	return cmd
}
