package main

import (
	"fmt"
	"io"

	"github.com/hupe1980/simmat/archive"
	"github.com/spf13/cobra"
)

func newPublishCmd(a *app) *cobra.Command {
	var (
		codec    string
		level    int
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "publish <file.smx> <name>",
		Short: "Compress a matrix file and upload it to the blob store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := archive.ParseCodec(codec)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), a.cfg.Store)
			if err != nil {
				return err
			}

			opts := []archive.Option{archive.WithCodec(c), archive.WithVerify(!noVerify)}
			if cmd.Flags().Changed("level") {
				opts = append(opts, archive.WithLevel(level))
			}

			stats, err := archive.Publish(cmd.Context(), a.rc, args[0], store, args[1], opts...)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), "published", stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&codec, "codec", archive.CodecZstd.String(), "compression codec: none, lz4 or zstd")
	cmd.Flags().IntVar(&level, "level", 0, "codec-specific compression level")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip the checksum check of the source file")
	return cmd
}

func newFetchCmd(a *app) *cobra.Command {
	var noVerify bool

	cmd := &cobra.Command{
		Use:   "fetch <name> <dst.smx>",
		Short: "Download and decompress a published matrix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), a.cfg.Store)
			if err != nil {
				return err
			}

			stats, err := archive.Fetch(cmd.Context(), a.rc, store, args[0], args[1], archive.WithVerify(!noVerify))
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), "fetched", stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip the checksum check of the restored file")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [prefix]",
		Short: "List published matrices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), a.cfg.Store)
			if err != nil {
				return err
			}

			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}
			names, err := store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func printStats(w io.Writer, verb string, s *archive.Stats) {
	fmt.Fprintf(w, "%s %s: %d raw bytes, %d stored (%s, ratio %.2f) in %s\n",
		verb, s.Name, s.RawBytes, s.StoredBytes, s.Codec, s.Ratio(), s.Duration)
}
