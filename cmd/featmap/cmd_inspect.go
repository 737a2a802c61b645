package main

import (
	"fmt"

	"github.com/hupe1980/featmap/csr"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect NAME",
		Short: "Print shape and row statistics of a stored matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := a.dataset(csr.CompressionNone)
			h, size, err := ds.Stat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			m, err := ds.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			st := rowStats(m)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "name:        %s\n", args[0])
			fmt.Fprintf(w, "size:        %d bytes (%s, format v%d)\n", size, h.Compression, h.Version)
			fmt.Fprintf(w, "shape:       %d x %d\n", m.Rows, m.Cols)
			fmt.Fprintf(w, "nnz:         %d\n", m.NNZ())
			fmt.Fprintf(w, "density:     %.6f\n", m.Density())
			fmt.Fprintf(w, "row length:  min %d, max %d, mean %.2f\n", st.min, st.max, st.mean)
			fmt.Fprintf(w, "empty rows:  %d\n", st.empty)
			return nil
		},
	}
}

type stats struct {
	min, max, empty int
	mean            float64
}

func rowStats(m *csr.Matrix) stats {
	if m.Rows == 0 {
		return stats{}
	}
	st := stats{min: m.RowLen(0)}
	for r := 0; r < m.Rows; r++ {
		n := m.RowLen(r)
		st.min = min(st.min, n)
		st.max = max(st.max, n)
		if n == 0 {
			st.empty++
		}
	}
	st.mean = float64(m.NNZ()) / float64(m.Rows)
	return st
}
