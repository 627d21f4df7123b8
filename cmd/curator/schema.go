package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create the curation_log audit table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, st, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "curation_log ready on %s\n", st.Dialect())
			return nil
		},
	}
}
