package main

import (
	"fmt"

	"github.com/hupe1980/featmap/codec"
	"github.com/hupe1980/featmap/csr"
	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	var current bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List published runs or show the current run manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds := a.dataset(csr.CompressionNone)
			w := cmd.OutOrStdout()

			if current {
				m, err := ds.Current(cmd.Context())
				if err != nil {
					return err
				}
				out, err := codec.GoJSON{}.MarshalIndent(m)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, string(out))
				return nil
			}

			ids, err := ds.Runs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(w, id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&current, "current", false, "print the manifest CURRENT points at")
	return cmd
}
