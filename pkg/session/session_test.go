package session

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/theatrical-curation/pkg/cleaner"
	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/resolver"
)

var errStorageDown = errors.New("storage unavailable")

// memoryStore stands in for the fetch-all and bulk-update collaborators.
// Fetch hands out the same pointers every time, so updates are visible to
// later passes the way a persisted write would be.
type memoryStore[T model.CurationTarget] struct {
	records   []T
	fetchErr  error
	updateErr error
	fetches   int
	updates   int
	updated   []T
}

func (m *memoryStore[T]) fetch(_ context.Context, _ model.Kind) ([]T, error) {
	m.fetches++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.records, nil
}

func (m *memoryStore[T]) update(_ context.Context, records []T) ([]T, error) {
	m.updates++
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updated = append(m.updated, records...)
	return records, nil
}

type auditRecorder struct {
	operations []model.CleaningOperation
}

func (a *auditRecorder) record(_ context.Context, operations []model.CleaningOperation) error {
	a.operations = append(a.operations, operations...)
	return nil
}

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()

	logger := zaptest.NewLogger(t)
	c, err := cleaner.NewDataCleaner(logger)
	require.NoError(t, err)
	r, err := resolver.New(logger, resolver.DefaultOptions())
	require.NoError(t, err)

	s, err := New(logger, c, r, opts...)
	require.NoError(t, err)
	return s
}

func actorRoles() []*model.Role {
	return []*model.Role{
		{ID: 1, Value: "Actor"}, {ID: 2, Value: "Actor"}, {ID: 3, Value: "Actor"},
		{ID: 4, Value: "actor"}, {ID: 5, Value: "Actror"},
		{ID: 6, Value: "Director"}, {ID: 7, Value: "Director"}, {ID: 8, Value: "Director"},
		{ID: 9, Value: "Director"}, {ID: 10, Value: "Director"},
	}
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	t.Parallel()

	c, err := cleaner.NewDataCleaner(zap.NewNop())
	require.NoError(t, err)
	r, err := resolver.New(zap.NewNop(), resolver.DefaultOptions())
	require.NoError(t, err)

	_, err = New(nil, c, r)
	require.Error(t, err)
	_, err = New(zap.NewNop(), nil, r)
	require.ErrorIs(t, err, model.ErrNilCollaborator)
	_, err = New(zap.NewNop(), c, nil)
	require.ErrorIs(t, err, model.ErrNilCollaborator)
}

func TestRunGenericPersistsOnlyChangedRecords(t *testing.T) {
	t.Parallel()

	store := &memoryStore[*model.Person]{records: []*model.Person{
		{ID: 1, Fullname: "Anna", Bio: sql.NullString{String: "A  B", Valid: true}},
		{ID: 2, Fullname: "Nikos", Bio: sql.NullString{String: "C", Valid: true}},
	}}
	audit := &auditRecorder{}
	s := newTestSession(t, WithAudit(audit.record))

	result, err := RunGeneric(context.Background(), s, model.KindPerson, store.fetch, store.update)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Examined)
	assert.Equal(t, 1, result.ChangedCount())
	assert.Equal(t, 1, store.updates)
	require.Len(t, store.updated, 1)
	assert.Equal(t, int64(1), store.updated[0].ID)
	assert.Equal(t, "A B", store.updated[0].Bio.String)

	require.Len(t, audit.operations, 1)
	assert.Equal(t, result.JobID, audit.operations[0].RunID)
	assert.NotEmpty(t, result.JobID)

	again, err := RunGeneric(context.Background(), s, model.KindPerson, store.fetch, store.update)
	require.NoError(t, err)
	assert.Equal(t, 0, again.ChangedCount())
	assert.Equal(t, 1, store.updates, "an unchanged snapshot must not be persisted")

	km := s.Metrics().Snapshot()[model.KindPerson]
	assert.Equal(t, 2, km.Runs)
	assert.Equal(t, 4, km.Examined)
	assert.Equal(t, 1, km.Changed)
}

func TestRunGenericEmptySnapshot(t *testing.T) {
	t.Parallel()

	store := &memoryStore[*model.Venue]{}
	result, err := RunGeneric(context.Background(), newTestSession(t), model.KindVenue, store.fetch, store.update)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Examined)
	assert.Empty(t, result.Changed)
	assert.Equal(t, 0, store.updates)
}

func TestRunGenericDryRun(t *testing.T) {
	t.Parallel()

	store := &memoryStore[*model.Organizer]{records: []*model.Organizer{
		{ID: 3, Name: " Theatro&nbsp;Technis "},
	}}
	audit := &auditRecorder{}
	s := newTestSession(t, WithDryRun(true), WithAudit(audit.record))

	result, err := RunGeneric(context.Background(), s, model.KindOrganizer, store.fetch, store.update)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.ChangedCount())
	assert.Equal(t, 0, store.updates)
	assert.Empty(t, audit.operations)
}

func TestRunGenericCollaboratorErrors(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	ctx := context.Background()

	_, err := RunGeneric[*model.Person](ctx, s, model.KindPerson, nil, nil)
	require.ErrorIs(t, err, model.ErrNilCollaborator)

	failingFetch := &memoryStore[*model.Person]{fetchErr: errStorageDown}
	_, err = RunGeneric(ctx, s, model.KindPerson, failingFetch.fetch, failingFetch.update)
	require.ErrorIs(t, err, errStorageDown)
	assert.Contains(t, err.Error(), "failed to fetch person records")

	failingUpdate := &memoryStore[*model.Person]{
		records:   []*model.Person{{ID: 1, Fullname: "  Spaced  "}},
		updateErr: errStorageDown,
	}
	_, err = RunGeneric(ctx, s, model.KindPerson, failingUpdate.fetch, failingUpdate.update)
	require.ErrorIs(t, err, errStorageDown)
	assert.Equal(t, 2, s.Metrics().Snapshot()[model.KindPerson].Failures)
}

func TestRunRoleConsolidation(t *testing.T) {
	t.Parallel()

	store := &memoryStore[*model.Role]{records: actorRoles()}
	audit := &auditRecorder{}
	s := newTestSession(t, WithAudit(audit.record))

	result, err := RunRoleConsolidation(context.Background(), s, store.fetch, store.update)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Examined)
	assert.Equal(t, 5, result.Similar)
	require.Len(t, result.Clusters, 1)
	assert.Equal(t, map[string]string{"actor": "Actor", "Actror": "Actor"}, result.Dictionary.Map())

	require.Equal(t, 2, result.ChangedCount())
	assert.Equal(t, int64(4), result.Changed[0].ID)
	assert.Equal(t, int64(5), result.Changed[1].ID)
	for _, role := range store.records[:5] {
		assert.Equal(t, "Actor", role.Value)
	}

	require.Len(t, audit.operations, 2)
	assert.Equal(t, "actor", audit.operations[0].OriginalValue)
	assert.Equal(t, model.OperationConsolidate, audit.operations[0].CleaningOperation)

	again, err := RunRoleConsolidation(context.Background(), s, store.fetch, store.update)
	require.NoError(t, err)
	assert.Equal(t, 0, again.ChangedCount())
	assert.Equal(t, 0, again.Dictionary.Len())
	assert.Equal(t, 1, store.updates)
}

func TestRunAllRecordsFailuresAndContinues(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, WithRunID("run-1"))
	people := &memoryStore[*model.Person]{records: []*model.Person{{ID: 1, Fullname: "Melina&nbsp;Mercouri"}}}
	roles := &memoryStore[*model.Role]{records: actorRoles()}
	venues := &memoryStore[*model.Venue]{fetchErr: errStorageDown}

	summary, err := s.RunAll(context.Background(),
		GenericRunner(s, model.KindPerson, people.fetch, people.update),
		GenericRunner(s, model.KindVenue, venues.fetch, venues.update),
		RoleRunner(s, roles.fetch, roles.update),
	)
	require.ErrorIs(t, err, errStorageDown)
	require.NotNil(t, summary)

	assert.Equal(t, "run-1", summary.RunID)
	require.Len(t, summary.Kinds, 3)
	assert.Equal(t, model.KindVenue, summary.Kinds[1].Kind)
	assert.NotEmpty(t, summary.Kinds[1].Error)
	assert.Equal(t, 1, summary.FailedKinds)
	assert.Equal(t, 11, summary.TotalExamined)
	assert.Equal(t, 3, summary.TotalChanged)
	assert.Equal(t, 1, roles.fetches, "kinds after a failure still run")
}

func TestRunAllStopsBetweenKindsOnCancel(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	people := &memoryStore[*model.Person]{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := s.RunAll(ctx, GenericRunner(s, model.KindPerson, people.fetch, people.update))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Kinds)
	assert.Equal(t, 0, people.fetches)
}

func TestFindOrphanContributions(t *testing.T) {
	t.Parallel()

	contributions := []*model.Contribution{
		{ID: 1, PersonID: 10, ProductionID: 100},
		{ID: 2, PersonID: 11, ProductionID: 100},
		{ID: 3, PersonID: 10, ProductionID: 101},
		{ID: 4, PersonID: 12, ProductionID: 102},
	}
	people := []*model.Person{{ID: 10}}
	productions := []*model.Production{{ID: 100}}

	orphans := FindOrphanContributions(contributions, people, productions)
	require.Len(t, orphans, 3)
	assert.Equal(t, Orphan{Contribution: contributions[1], MissingPerson: true}, orphans[0])
	assert.Equal(t, Orphan{Contribution: contributions[2], MissingProduction: true}, orphans[1])
	assert.True(t, orphans[2].MissingPerson && orphans[2].MissingProduction)

	assert.Empty(t, FindOrphanContributions(nil, people, productions))
}

func TestRunOrphanRemoval(t *testing.T) {
	t.Parallel()

	contributions := &memoryStore[*model.Contribution]{records: []*model.Contribution{
		{ID: 1, PersonID: 10, ProductionID: 100},
		{ID: 2, PersonID: 99, ProductionID: 100},
	}}
	people := &memoryStore[*model.Person]{records: []*model.Person{{ID: 10}}}
	productions := &memoryStore[*model.Production]{records: []*model.Production{{ID: 100}}}

	var removedIDs []int64
	remove := func(_ context.Context, orphans []*model.Contribution) (int64, error) {
		for _, c := range orphans {
			removedIDs = append(removedIDs, c.ID)
		}
		return int64(len(orphans)), nil
	}

	audit := &auditRecorder{}
	s := newTestSession(t, WithAudit(audit.record))
	result, err := RunOrphanRemoval(context.Background(), s, contributions.fetch, people.fetch, productions.fetch, remove)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Examined)
	assert.Equal(t, int64(1), result.Removed)
	assert.Equal(t, []int64{2}, removedIDs)
	require.Len(t, audit.operations, 1)
	assert.Equal(t, "missing_person", audit.operations[0].CleaningReason)

	dry := newTestSession(t, WithDryRun(true))
	removedIDs = nil
	result, err = RunOrphanRemoval(context.Background(), dry, contributions.fetch, people.fetch, productions.fetch, remove)
	require.NoError(t, err)
	assert.Len(t, result.Orphans, 1)
	assert.Equal(t, int64(0), result.Removed)
	assert.Empty(t, removedIDs)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	store := &memoryStore[*model.Production]{records: []*model.Production{
		{ID: 1, Title: "Medea"},
		{ID: 2, Title: "<b>Antigone</b>"},
	}}
	s := newTestSession(t)
	ctx := context.Background()

	dirty := &memoryStore[*model.Production]{records: []*model.Production{{ID: 2, Title: "<b>Antigone</b>"}}}
	report, err := Verify(ctx, s, model.KindProduction, dirty.fetch)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, []int64{2}, report.DirtyKeys)

	_, err = RunGeneric(ctx, s, model.KindProduction, store.fetch, store.update)
	require.NoError(t, err)

	report, err = Verify(ctx, s, model.KindProduction, store.fetch)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 2, report.Examined)
}
