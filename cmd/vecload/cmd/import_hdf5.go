package cmd

import (
	"fmt"

	"github.com/hupe1980/vecload"
	"github.com/hupe1980/vecload/source/hdf5"
	"github.com/spf13/cobra"
)

func newImportHDF5Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-hdf5",
		Short: "Convert an ann-benchmarks HDF5 file into a dataset",
		Long: `Convert an ann-benchmarks HDF5 file with the datasets train, test and neighbors
into train.fvecs, test.fvecs, groundtruth.ivecs and manifest.json.

Examples:
  vecload import-hdf5 -i sift-128-euclidean.hdf5 -o ./sift
  vecload import-hdf5 -i gist-960-euclidean.hdf5 -o ./gist --block-size 4096 --compression zstd`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := fromContext(cmd.Context())
			flags := cmd.Flags()

			input, _ := flags.GetString("input")
			output, _ := flags.GetString("output")
			force, _ := flags.GetBool("force")

			blockSize := a.cfg.Load.BlockSize
			if flags.Changed("block-size") {
				blockSize, _ = flags.GetInt("block-size")
			}
			compression := a.cfg.Storage.Compression
			if flags.Changed("compression") {
				compression, _ = flags.GetString("compression")
			}
			comp, err := vecload.ParseCompression(compression)
			if err != nil {
				return err
			}

			f, err := hdf5.Open(input)
			if err != nil {
				return fmt.Errorf("open %s: %w", input, err)
			}
			defer func() { _ = f.Close() }()

			store, err := openStore(cmd.Context(), a.cfg.Storage, output)
			if err != nil {
				return err
			}

			opts := append(a.options(output),
				vecload.WithForce(force),
				vecload.WithBlockSize(blockSize),
				vecload.WithCompression(comp),
			)
			m, err := vecload.Export(cmd.Context(), f, store, opts...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %s: d=%d n=%d m=%d k=%d\n", output, m.D, m.N, m.M, m.K)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "HDF5 file to read (required)")
	cmd.Flags().StringP("output", "o", "", "Dataset location to create (required)")
	cmd.Flags().Int("block-size", 0, "Read train vectors this many rows at a time")
	cmd.Flags().String("compression", "", "Container compression: none, zstd or lz4")
	cmd.Flags().BoolP("force", "f", false, "Replace an existing dataset")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
