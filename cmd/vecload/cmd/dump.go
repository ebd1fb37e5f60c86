package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/hupe1980/vecload/pgcopy"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print a summary of every tuple in a binary COPY file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, _ := cmd.Flags().GetString("input")
			limit, _ := cmd.Flags().GetInt("limit")

			blob, err := blobstore.NewLocalStore(filepath.Dir(input)).Open(cmd.Context(), filepath.Base(input))
			if err != nil {
				return err
			}
			defer func() { _ = blob.Close() }()

			n, err := dumpStream(blob, cmd.OutOrStdout(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tuples\n", n)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "COPY file to read (required)")
	cmd.Flags().Int("limit", 0, "Print at most this many tuples (0: all)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// dumpStream decodes a binary COPY stream and writes one line per tuple, up
// to limit lines. It returns the total number of tuples.
func dumpStream(r io.Reader, w io.Writer, limit int) (int, error) {
	dec := pgcopy.NewDecoder(r)
	n := 0
	for {
		row, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		t, err := pgcopy.DecodeTuple(row)
		if err != nil {
			return n, fmt.Errorf("tuple %d: %w", n, err)
		}
		if limit <= 0 || n < limit {
			if t.Answer != nil {
				_, err = fmt.Fprintf(w, "%d: dim=%d answer=%v\n", t.Index, len(t.Embedding), t.Answer)
			} else {
				_, err = fmt.Fprintf(w, "%d: dim=%d\n", t.Index, len(t.Embedding))
			}
			if err != nil {
				return n, err
			}
		}
		n++
	}
}
