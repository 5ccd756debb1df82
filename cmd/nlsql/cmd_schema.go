package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nlsql/internal/schema"
	"nlsql/internal/store"
)

var schemaVerify bool

// schemaCmd prints the schema description given to the model
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the schema description embedded in every prompt",
	Long: `Prints the schema description the translator embeds in its prompt.

With --verify, compares the description against the tables and columns the
dataset actually has and exits non-zero on drift.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaVerify, "verify", false, "Compare the description with the dataset")
}

func runSchema(cmd *cobra.Command, args []string) error {
	s, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if !schemaVerify {
		fmt.Fprint(w, s.Describe())
		return nil
	}

	ds, err := store.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer ds.Close()

	drifts, err := s.Verify(cmd.Context(), ds)
	if err != nil {
		return err
	}
	if len(drifts) == 0 {
		fmt.Fprintf(w, "schema matches %s (%d tables)\n", ds.Path(), len(s.Tables))
		return nil
	}
	for _, d := range drifts {
		fmt.Fprintln(w, d.String())
	}
	return fmt.Errorf("schema drift: %d problem(s)", len(drifts))
}
