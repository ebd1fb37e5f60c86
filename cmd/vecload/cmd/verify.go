package cmd

import (
	"fmt"
	"sort"

	"github.com/hupe1980/vecload/dataset"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a dataset against its manifest",
		Long: `Stream every container file of a dataset and check record counts, vector
widths and that every ground-truth id refers to a train vector.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := fromContext(cmd.Context())
			input, _ := cmd.Flags().GetString("input")

			store, err := openStore(cmd.Context(), a.cfg.Storage, input)
			if err != nil {
				return err
			}
			logger := a.logger.WithDataset(input)
			report, err := dataset.Verify(cmd.Context(), store, dataset.WithController(a.rc))
			if err != nil {
				logger.ErrorContext(cmd.Context(), "verify failed", "error", err)
				return err
			}
			logger.InfoContext(cmd.Context(), "dataset verified",
				"files", len(report.Files),
				"distinct_neighbors", report.DistinctNeighbors,
			)

			m := report.Manifest
			fmt.Fprintf(cmd.OutOrStdout(), "manifest: d=%d n=%d m=%d k=%d\n", m.D, m.N, m.M, m.K)
			names := make([]string, 0, len(report.Files))
			for name := range report.Files {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", name, report.Files[name])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "distinct neighbors: %d of %d\n", report.DistinctNeighbors, m.N)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Dataset location (required)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
