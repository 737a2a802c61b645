package main

import (
	"fmt"

	"github.com/hupe1980/featmap/csr"
	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	var from, to, compression string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Re-encode a stored matrix with another compression",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := csr.ParseCompression(compression)
			if err != nil {
				return err
			}
			ds := a.dataset(c)

			m, err := ds.Load(cmd.Context(), from)
			if err != nil {
				return err
			}
			n, err := ds.Save(cmd.Context(), to, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d bytes, %s)\n", from, to, n, c)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source matrix")
	cmd.Flags().StringVar(&to, "to", "", "destination matrix")
	cmd.Flags().StringVar(&compression, "compression", "zstd", "target compression (none, lz4, zstd)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
