package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/report"
	"github.com/David-Botos/theatrical-curation/pkg/session"
	"github.com/David-Botos/theatrical-curation/pkg/store"
)

func newRolesCmd(a *app) *cobra.Command {
	var dryRun bool
	var dictionaryOut string

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Consolidate misspelled role values to a canonical spelling",
		Long: `Cluster every distinct role value by edit distance, choose the most used
spelling of each cluster and rewrite the other spellings to it. Role records
keep their identity; only the value column changes.`,
		Example: `  # Preview the clusters and the correction dictionary
  curator roles --dry-run --dictionary-out roles.yaml

  # Apply the corrections
  curator roles`,
		Args: cobra.NoArgs,
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

			result, err := session.RunRoleConsolidation(ctx, s,
				store.Fetcher[*model.Role](st), store.Updater[*model.Role](st))
			if err != nil {
				return err
			}

			if dictionaryOut != "" {
				if err := report.WriteDictionary(dictionaryOut, result.Dictionary); err != nil {
					return err
				}
				a.logger.Info("Wrote correction dictionary",
					zap.String("path", dictionaryOut),
					zap.Int("entries", result.Dictionary.Len()))
			}

			return a.write(cmd.OutOrStdout(), report.NewRoleReport(result))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report corrections without writing them")
	cmd.Flags().StringVar(&dictionaryOut, "dictionary-out", "", "Write the correction dictionary to a .yaml or .json file")

	return cmd
}
