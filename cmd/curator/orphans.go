package main

import (
	"github.com/spf13/cobra"

	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/report"
	"github.com/David-Botos/theatrical-curation/pkg/session"
	"github.com/David-Botos/theatrical-curation/pkg/store"
)

func newOrphansCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Remove contributions whose person or production no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, st, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			s, err := a.newSession(ctx, st, dryRun)
			if err != nil {
				return err
			}

			result, err := session.RunOrphanRemoval(ctx, s,
				store.Fetcher[*model.Contribution](st),
				store.Fetcher[*model.Person](st),
				store.Fetcher[*model.Production](st),
				st.DeleteContributions)
			if err != nil {
				return err
			}

			return a.write(cmd.OutOrStdout(), report.NewOrphanReport(result))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphans without deleting them")

	return cmd
}
