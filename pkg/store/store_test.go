package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/theatrical-curation/pkg/cleaner"
	"github.com/David-Botos/theatrical-curation/pkg/config"
	"github.com/David-Botos/theatrical-curation/pkg/connector"
	"github.com/David-Botos/theatrical-curation/pkg/model"
	"github.com/David-Botos/theatrical-curation/pkg/resolver"
	"github.com/David-Botos/theatrical-curation/pkg/session"
)

var datasetSchema = []string{
	`CREATE TABLE persons (
		id INTEGER PRIMARY KEY,
		fullname TEXT NOT NULL,
		description TEXT,
		bio TEXT,
		hair_color TEXT,
		eye_color TEXT,
		height TEXT,
		weight TEXT
	)`,
	`CREATE TABLE productions (
		id INTEGER PRIMARY KEY,
		organizer_id INTEGER,
		title TEXT NOT NULL,
		description TEXT,
		producer TEXT,
		duration TEXT
	)`,
	`CREATE TABLE roles (id INTEGER PRIMARY KEY, value TEXT NOT NULL)`,
	`CREATE TABLE contributions (
		id INTEGER PRIMARY KEY,
		person_id INTEGER NOT NULL,
		production_id INTEGER NOT NULL,
		role_id INTEGER NOT NULL,
		sub_role TEXT
	)`,
}

var datasetRows = []string{
	`INSERT INTO persons (id, fullname, bio) VALUES
		(1, 'Maria&nbsp;&nbsp;Callas', '<p>Soprano</p>'),
		(2, 'Dimitris Horn', NULL)`,
	`INSERT INTO productions (id, organizer_id, title) VALUES (10, NULL, 'Medea')`,
	`INSERT INTO roles (id, value) VALUES
		(1, 'Actor'), (2, 'Actor'), (3, 'Actor'), (4, 'actor'), (5, 'Actror'), (6, 'Director')`,
	`INSERT INTO contributions (id, person_id, production_id, role_id, sub_role) VALUES
		(100, 1, 10, 1, 'Lead'),
		(101, 2, 10, 6, NULL),
		(102, 3, 10, 1, NULL),
		(103, 1, 11, 1, NULL)`,
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	conn, err := connector.NewSQLiteConnector(ctx, &config.SQLiteConfig{Path: ":memory:", BusyTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	for _, stmt := range append(datasetSchema, datasetRows...) {
		_, err := conn.DB().ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	s, err := New(conn, zaptest.NewLogger(t), 2)
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(ctx))
	return s
}

func TestNewRejectsMissingArguments(t *testing.T) {
	_, err := New(nil, zap.NewNop(), 10)
	require.Error(t, err)

	conn, err := connector.NewSQLiteConnector(context.Background(), &config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()

	_, err = New(conn, nil, 10)
	require.Error(t, err)

	s, err := New(conn, zap.NewNop(), 0)
	require.NoError(t, err)
	assert.Equal(t, defaultBatchSize, s.batchSize)
	assert.Equal(t, connector.DialectSQLite, s.Dialect())
}

func TestFetchAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	persons, err := FetchAll[*model.Person](ctx, s, model.KindPerson)
	require.NoError(t, err)
	require.Len(t, persons, 2)

	assert.Equal(t, int64(1), persons[0].ID)
	assert.Equal(t, "Maria&nbsp;&nbsp;Callas", persons[0].Fullname)
	assert.Equal(t, sql.NullString{String: "<p>Soprano</p>", Valid: true}, persons[0].Bio)
	assert.False(t, persons[1].Bio.Valid)

	productions, err := FetchAll[*model.Production](ctx, s, model.KindProduction)
	require.NoError(t, err)
	require.Len(t, productions, 1)
	assert.False(t, productions[0].OrganizerID.Valid)

	_, err = FetchAll[*model.Person](ctx, s, model.KindRole)
	require.ErrorIs(t, err, model.ErrUnknownKind)
}

func TestFetchAllMissingTable(t *testing.T) {
	s := newTestStore(t)

	_, err := FetchAll[*model.Venue](context.Background(), s, model.KindVenue)
	require.Error(t, err)

	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "fetch", storeErr.Op)
	assert.Equal(t, model.KindVenue, storeErr.Kind)
	assert.Equal(t, ErrorCategorySchema, storeErr.Category)
}

func TestBulkUpdateWritesCuratableColumns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	roles, err := FetchAll[*model.Role](ctx, s, model.KindRole)
	require.NoError(t, err)

	roles[3].Value = "Actor"
	roles[4].Value = "Actor"
	roles[5].Value = "Director"
	ghost := &model.Role{ID: 99, Value: "Ghost"}

	updated, err := BulkUpdate(ctx, s, []*model.Role{roles[3], roles[4], roles[5], ghost})
	require.NoError(t, err)
	assert.Len(t, updated, 4)

	again, err := FetchAll[*model.Role](ctx, s, model.KindRole)
	require.NoError(t, err)
	require.Len(t, again, 6)
	for _, role := range again[:5] {
		assert.Equal(t, "Actor", role.Value)
	}

	empty, err := BulkUpdate[*model.Role](ctx, s, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBulkUpdateKeepsNulls(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	persons, err := FetchAll[*model.Person](ctx, s, model.KindPerson)
	require.NoError(t, err)

	persons[1].Fullname = "Dimitris Horn Jr"
	_, err = BulkUpdate(ctx, s, persons[1:])
	require.NoError(t, err)

	var bio sql.NullString
	require.NoError(t, s.db.GetContext(ctx, &bio, "SELECT bio FROM persons WHERE id = 2"))
	assert.False(t, bio.Valid)
}

func TestDeleteContributions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	contributions, err := FetchAll[*model.Contribution](ctx, s, model.KindContribution)
	require.NoError(t, err)
	require.Len(t, contributions, 4)

	removed, err := s.DeleteContributions(ctx, contributions[1:])
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	left, err := FetchAll[*model.Contribution](ctx, s, model.KindContribution)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, int64(100), left[0].ID)
	assert.Equal(t, "Lead", left[0].SubRole.String)

	removed, err = s.DeleteContributions(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRecordCleaningOperations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ops := []model.CleaningOperation{
		{
			RunID:             "run-1",
			Kind:              model.KindPerson,
			TableName:         "persons",
			ColumnName:        "bio",
			OriginalValue:     "<p>Soprano</p>",
			NewValue:          "Soprano",
			RecordKey:         1,
			CleaningOperation: model.OperationSanitize,
			CleaningReason:    "markup",
			CleanedAt:         at,
		},
		{
			RunID:             "run-1",
			Kind:              model.KindContribution,
			TableName:         "contributions",
			ColumnName:        "person_id",
			RecordKey:         102,
			CleaningOperation: model.OperationOrphan,
			CleaningReason:    "missing_person",
			CleanedAt:         at,
		},
	}

	require.NoError(t, s.RecordCleaningOperations(ctx, ops))
	require.NoError(t, s.RecordCleaningOperations(ctx, nil))

	logged, err := s.LoggedOperations(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, logged, 2)

	for i := range ops {
		assert.True(t, ops[i].CleanedAt.Equal(logged[i].CleanedAt))
		logged[i].CleanedAt = ops[i].CleanedAt
	}
	assert.Equal(t, ops, logged)

	none, err := s.LoggedOperations(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEnsureSchemaIsRepeatable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureSchema(context.Background()))
}

func TestAuditTableDDL(t *testing.T) {
	assert.Contains(t, auditTableDDL(connector.DialectPostgres), "id SERIAL PRIMARY KEY")
	assert.Contains(t, auditTableDDL(connector.DialectSQLite), "id INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, auditTableDDL(connector.DialectSnowflake), "id INTEGER AUTOINCREMENT PRIMARY KEY")
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, ErrorCategoryUnknown},
		{context.DeadlineExceeded, ErrorCategoryTimeout},
		{errors.New("no such table: venues"), ErrorCategorySchema},
		{errors.New(`relation "venues" does not exist`), ErrorCategorySchema},
		{errors.New("dial tcp: connection refused"), ErrorCategoryConnection},
		{errors.New("UNIQUE constraint failed: roles.id"), ErrorCategoryConstraint},
		{errors.New("Insufficient privileges to operate on table"), ErrorCategoryPermission},
		{errors.New("something odd"), ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CategorizeError(tt.err), "%v", tt.err)
	}
}

func TestSessionAgainstStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	logger := zaptest.NewLogger(t)

	c, err := cleaner.NewDataCleaner(logger)
	require.NoError(t, err)
	r, err := resolver.New(logger, resolver.DefaultOptions())
	require.NoError(t, err)

	sess, err := session.New(logger, c, r,
		session.WithRunID("run-e2e"),
		session.WithAudit(s.RecordCleaningOperations))
	require.NoError(t, err)

	persons, err := session.RunGeneric(ctx, sess, model.KindPerson,
		Fetcher[*model.Person](s), Updater[*model.Person](s))
	require.NoError(t, err)
	assert.Equal(t, 1, persons.ChangedCount())

	roles, err := session.RunRoleConsolidation(ctx, sess,
		Fetcher[*model.Role](s), Updater[*model.Role](s))
	require.NoError(t, err)
	assert.Equal(t, 2, roles.ChangedCount())
	assert.Equal(t, map[string]string{"Actror": "Actor", "actor": "Actor"}, roles.Dictionary.Map())

	orphans, err := session.RunOrphanRemoval(ctx, sess,
		Fetcher[*model.Contribution](s), Fetcher[*model.Person](s), Fetcher[*model.Production](s),
		s.DeleteContributions)
	require.NoError(t, err)
	assert.Equal(t, int64(2), orphans.Removed)

	report, err := session.Verify(ctx, sess, model.KindPerson, Fetcher[*model.Person](s))
	require.NoError(t, err)
	assert.True(t, report.Clean())

	logged, err := s.LoggedOperations(ctx, "run-e2e")
	require.NoError(t, err)
	// fullname and bio of person 1, two roles, two orphans
	assert.Len(t, logged, 6)
}
