package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/report"
	"github.com/David-Botos/theatrical-curation/pkg/session"
	"github.com/David-Botos/theatrical-curation/pkg/store"
)

func newCurateCmd(a *app) *cobra.Command {
	var kindNames []string
	var dryRun bool
	var verify bool

	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Sanitize the text fields of one or more record kinds",
		Long: `Fetch every record of each kind, sanitize its curatable text fields and
write back only the records that changed. Every rewritten field is recorded
in the curation_log table.`,
		Example: `  # Curate every kind
  curator curate

  # Preview what would change in persons and venues
  curator curate --kind person --kind venue --dry-run

  # Curate and check that a second pass would change nothing
  curator curate --verify --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(kindNames)
			if err != nil {
				return err
			}

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

			runners := make([]session.KindRunner, len(kinds))
			for i, kind := range kinds {
				runners[i] = kindRunner(s, st, kind)
			}

			summary, runErr := s.RunAll(ctx, runners...)
			out := report.CurationReport{Summary: summary}

			if verify && runErr == nil && !dryRun {
				for _, kind := range kinds {
					rep, err := verifyKind(ctx, s, st, kind)
					if err != nil {
						return err
					}
					out.Verification = append(out.Verification, rep)
				}
			}

			if err := a.write(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringSliceVar(&kindNames, "kind", nil, "Record kind to curate (repeatable, default all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing them")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-check each kind after curating it")

	return cmd
}

// parseKinds resolves flag values, defaulting to every kind
func parseKinds(names []string) ([]model.Kind, error) {
	if len(names) == 0 {
		return model.AllKinds(), nil
	}

	kinds := make([]model.Kind, 0, len(names))
	seen := make(map[model.Kind]bool, len(names))
	for _, name := range names {
		kind, err := model.ParseKind(name)
		if err != nil {
			return nil, err
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

// kindRunner binds the store adapters of a kind to a session runner
func kindRunner(s *session.Session, st *store.Store, kind model.Kind) session.KindRunner {
	switch kind {
	case model.KindContribution:
		return session.GenericRunner(s, kind, store.Fetcher[*model.Contribution](st), store.Updater[*model.Contribution](st))
	case model.KindOrganizer:
		return session.GenericRunner(s, kind, store.Fetcher[*model.Organizer](st), store.Updater[*model.Organizer](st))
	case model.KindPerson:
		return session.GenericRunner(s, kind, store.Fetcher[*model.Person](st), store.Updater[*model.Person](st))
	case model.KindProduction:
		return session.GenericRunner(s, kind, store.Fetcher[*model.Production](st), store.Updater[*model.Production](st))
	case model.KindRole:
		return session.GenericRunner(s, kind, store.Fetcher[*model.Role](st), store.Updater[*model.Role](st))
	case model.KindVenue:
		return session.GenericRunner(s, kind, store.Fetcher[*model.Venue](st), store.Updater[*model.Venue](st))
	default:
		return session.KindRunner{
			Kind: kind,
			Run: func(context.Context) (session.KindCounts, error) {
				return session.KindCounts{}, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
			},
		}
	}
}

// verifyKind re-cleans a kind in memory and reports what would still change
func verifyKind(ctx context.Context, s *session.Session, st *store.Store, kind model.Kind) (session.VerificationReport, error) {
	switch kind {
	case model.KindContribution:
		return session.Verify(ctx, s, kind, store.Fetcher[*model.Contribution](st))
	case model.KindOrganizer:
		return session.Verify(ctx, s, kind, store.Fetcher[*model.Organizer](st))
	case model.KindPerson:
		return session.Verify(ctx, s, kind, store.Fetcher[*model.Person](st))
	case model.KindProduction:
		return session.Verify(ctx, s, kind, store.Fetcher[*model.Production](st))
	case model.KindRole:
		return session.Verify(ctx, s, kind, store.Fetcher[*model.Role](st))
	case model.KindVenue:
		return session.Verify(ctx, s, kind, store.Fetcher[*model.Venue](st))
	default:
		return session.VerificationReport{}, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}
}
