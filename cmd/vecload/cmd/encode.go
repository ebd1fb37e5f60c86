package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/hupe1980/vecload"
	"github.com/hupe1980/vecload/blobstore"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Write the binary COPY stream of one table to a file",
		Long: `Write the binary COPY stream of the train or test table to a local file, for
loading on the server with COPY ... FROM '/path' WITH (FORMAT BINARY).

Examples:
  vecload encode -i ./sift --part train -o /tmp/sift_train.copy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := fromContext(cmd.Context())
			flags := cmd.Flags()

			input, _ := flags.GetString("input")
			output, _ := flags.GetString("output")
			partName, _ := flags.GetString("part")
			part, err := vecload.ParsePart(partName)
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), a.cfg.Storage, input)
			if err != nil {
				return err
			}

			out := blobstore.NewLocalStore(filepath.Dir(output))
			w, err := out.Create(cmd.Context(), filepath.Base(output))
			if err != nil {
				return err
			}
			n, err := vecload.Encode(cmd.Context(), store, part, w, a.options(input)...)
			if err != nil {
				_ = w.Abort()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", output, n)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Dataset location (required)")
	cmd.Flags().StringP("output", "o", "", "File to write (required)")
	cmd.Flags().String("part", "train", "Table to encode: train or test")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
