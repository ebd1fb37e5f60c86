package cmd

import (
	"fmt"

	"github.com/hupe1980/vecload"
	"github.com/hupe1980/vecload/postgres"
	"github.com/spf13/cobra"
)

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a dataset into {name}_train and {name}_test",
		Long: `Load a dataset into PostgreSQL. The tables {name}_train(index, embedding) and
{name}_test(index, embedding, answer) are created and filled with binary COPY.
The name defaults to the base name of the dataset location.

Examples:
  vecload load -i ./sift
  vecload load -i ./sift --name sift1m --force --dsn postgres://bench@db/bench`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := fromContext(cmd.Context())
			flags := cmd.Flags()

			input, _ := flags.GetString("input")
			force, _ := flags.GetBool("force")
			name, _ := flags.GetString("name")
			if name == "" {
				var err error
				if name, err = datasetName(a.cfg.Storage.Backend, input); err != nil {
					return err
				}
			}
			dsn := a.cfg.Database.DSN
			if flags.Changed("dsn") {
				dsn, _ = flags.GetString("dsn")
			}

			store, err := openStore(cmd.Context(), a.cfg.Storage, input)
			if err != nil {
				return err
			}

			opts := append(a.options(input),
				vecload.WithName(name),
				vecload.WithForce(force),
			)
			results, err := vecload.Load(cmd.Context(), store, postgres.PgxDialer{DSN: dsn}, opts...)
			if err != nil {
				return err
			}

			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d bytes in %s\n", r.Table, r.Rows, r.Bytes, r.Duration)
			}
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "Dataset location (required)")
	cmd.Flags().String("name", "", "Table name prefix (default: base name of the input)")
	cmd.Flags().String("dsn", "", "PostgreSQL connection string (default: postgres://$USER@localhost)")
	cmd.Flags().BoolP("force", "f", false, "Drop existing tables first")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
