package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/hupe1980/simmat"
	"github.com/hupe1980/simmat/matrix"
	"github.com/hupe1980/simmat/row"
	"github.com/spf13/cobra"
)

var errDumpDone = errors.New("dump limit reached")

func newInspectCmd(a *app) *cobra.Command {
	var (
		verify  bool
		dump    int
		windows bool
		ids     []int32
	)

	cmd := &cobra.Command{
		Use:   "inspect <matrix.smx>",
		Short: "Print matrix metadata and rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := simmat.Open(args[0],
				matrix.WithVerifyChecksum(verify),
				matrix.WithResident(false),
				matrix.WithRunContext(a.rc),
			)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "path\t%s\n", s.Path())
			fmt.Fprintf(tw, "kind\t%s\n", s.Kind())
			fmt.Fprintf(tw, "rows\t%d\n", s.Len())
			if s.Kind() == row.KindSparse {
				fmt.Fprintf(tw, "values\t%s\n", s.ValueConf())
			} else {
				fmt.Fprintf(tw, "columns\t%d\n", len(s.Schema()))
			}
			fmt.Fprintf(tw, "bytes\t%d\n", s.Size())
			fmt.Fprintf(tw, "windows\t%d\n", s.NumWindows())
			if verify {
				fmt.Fprintf(tw, "checksum\tok\n")
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if windows {
				for i, w := range s.Windows() {
					fmt.Fprintf(out, "window %d: bytes [%d, %d) rows %d..%d\n", i, w.Start, w.End, w.FirstRow, w.FirstRow+w.NumRows-1)
				}
			}

			for _, id := range ids {
				r, ok, err := s.Row(id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("row %d not found", id)
				}
				if err := writeTSV(out, r); err != nil {
					return err
				}
			}

			if dump != 0 {
				n := 0
				err := s.Iterate(cmd.Context(), func(r row.Row) error {
					if dump > 0 && n >= dump {
						return errDumpDone
					}
					n++
					return writeTSV(out, r)
				})
				if err != nil && !errors.Is(err, errDumpDone) {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "verify the footer checksum")
	cmd.Flags().IntVar(&dump, "dump", 0, "print the first N rows as TSV (-1 for all)")
	cmd.Flags().BoolVar(&windows, "windows", false, "print the page window layout")
	cmd.Flags().Int32SliceVar(&ids, "row", nil, "print the given rows as TSV")
	return cmd
}
