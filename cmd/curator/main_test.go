package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/theatrical-curation/pkg/model"
)

func seedDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "theatrical.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE persons (
			id INTEGER PRIMARY KEY, fullname TEXT NOT NULL, description TEXT, bio TEXT,
			hair_color TEXT, eye_color TEXT, height TEXT, weight TEXT
		)`,
		`CREATE TABLE roles (id INTEGER PRIMARY KEY, value TEXT NOT NULL)`,
		`INSERT INTO persons (id, fullname, bio) VALUES (1, 'Maria&nbsp;&nbsp;Callas', '<p>Soprano</p>'), (2, 'Dimitris Horn', NULL)`,
		`INSERT INTO roles (id, value) VALUES (1, 'Actor'), (2, 'Actor'), (3, 'Actor'), (4, 'actor'), (5, 'Actror'), (6, 'Director')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func runCurator(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func useSQLite(t *testing.T) string {
	path := seedDatabase(t)
	t.Setenv("CURATION_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func TestCurateCommand(t *testing.T) {
	useSQLite(t)

	out, err := runCurator(t, "curate", "--kind", "person", "--verify", "--format", "json")
	require.NoError(t, err)

	var decoded struct {
		Summary struct {
			TotalExamined int `json:"totalExamined"`
			TotalChanged  int `json:"totalChanged"`
		} `json:"summary"`
		Verification []struct {
			StillDirty int `json:"stillDirty"`
		} `json:"verification"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 2, decoded.Summary.TotalExamined)
	assert.Equal(t, 1, decoded.Summary.TotalChanged)
	require.Len(t, decoded.Verification, 1)
	assert.Zero(t, decoded.Verification[0].StillDirty)
}

func TestCurateCommandReportsMissingTables(t *testing.T) {
	useSQLite(t)

	_, err := runCurator(t, "curate", "--kind", "venue", "--format", "json")
	require.Error(t, err)
}

func TestRolesCommandDryRun(t *testing.T) {
	useSQLite(t)
	dictionaryPath := filepath.Join(t.TempDir(), "roles.yaml")

	_, err := runCurator(t, "roles", "--dry-run", "--dictionary-out", dictionaryPath)
	require.NoError(t, err)

	data, err := os.ReadFile(dictionaryPath)
	require.NoError(t, err)
	assert.Equal(t, "Actror: Actor\nactor: Actor\n", string(data))
}

func TestUnsupportedFormat(t *testing.T) {
	useSQLite(t)

	_, err := runCurator(t, "init-schema", "--format", "xml")
	require.Error(t, err)
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds(nil)
	require.NoError(t, err)
	assert.Equal(t, model.AllKinds(), kinds)

	kinds, err = parseKinds([]string{"Person", "venue", "person"})
	require.NoError(t, err)
	assert.Equal(t, []model.Kind{model.KindPerson, model.KindVenue}, kinds)

	_, err = parseKinds([]string{"theatre"})
	require.ErrorIs(t, err, model.ErrUnknownKind)
}
