package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pypeep/internal/config"
	"github.com/roach88/pypeep/internal/store"
)

// scriptedRunner answers "pip install" and "pip freeze" invocations.
type scriptedRunner struct {
	installed  []string
	freeze     string
	installErr error
	freezeErr  error
}

func (r *scriptedRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	switch strings.Join(args[:2], " ") {
	case "pip install":
		r.installed = append(r.installed, args[2])
		return nil, r.installErr
	case "pip freeze":
		return []byte(r.freeze), r.freezeErr
	}
	return nil, errors.New("unexpected command")
}

// isolate runs the test in an empty directory with no pypeep environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.EnvDatabase, "")
	t.Setenv(config.EnvInstaller, "")
	return dir
}

func executeRecord(t *testing.T, format string, runner *scriptedRunner, args ...string) (string, error) {
	t.Helper()
	opts := &RecordOptions{RootOptions: &RootOptions{Format: format}, Runner: runner}
	cmd := newRecordCommand(opts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRecord_EndToEnd(t *testing.T) {
	dir := isolate(t)
	dbPath := filepath.Join(dir, "pypeep.db")
	runner := &scriptedRunner{freeze: "alpha==1.2.3\nbeta==0.9\n\n"}

	out, err := executeRecord(t, "text", runner, "--package", "demo", "--db", dbPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"demo"}, runner.installed)
	assert.Contains(t, out, "1  alpha  1.2.3")
	assert.Contains(t, out, "2  beta   0.9")
	assert.Contains(t, out, "Recorded 2 requirements for demo.")

	st, err := store.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer st.Close()

	state, err := st.ProjectRequirements(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, state, 2)
	assert.Equal(t, "1.2.3", state[0].CurrentVersion)
	assert.Equal(t, "0.9", state[1].CurrentVersion)
}

func TestRecord_SkipInstall(t *testing.T) {
	dir := isolate(t)
	runner := &scriptedRunner{freeze: "alpha==1.0\n"}

	_, err := executeRecord(t, "text", runner,
		"--package", "demo", "--db", filepath.Join(dir, "x.db"), "--skip-install")
	require.NoError(t, err)
	assert.Empty(t, runner.installed)
}

func TestRecord_JSONOutput(t *testing.T) {
	dir := isolate(t)
	runner := &scriptedRunner{freeze: "alpha==1.2.3\n"}

	out, err := executeRecord(t, "json", runner, "--package", "demo", "--db", filepath.Join(dir, "x.db"))
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		RunID  string       `json:"run_id"`
		Data   RecordResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "demo", resp.Data.Project)
	assert.Equal(t, 1, resp.Data.Merged)
	require.Len(t, resp.Data.Requirements, 1)
	assert.Equal(t, "alpha", resp.Data.Requirements[0].Name)
}

func TestRecord_MissingPackageFlag(t *testing.T) {
	isolate(t)

	_, err := executeRecord(t, "text", &scriptedRunner{}, "--db", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "package")
}

func TestRecord_MissingDatabase(t *testing.T) {
	isolate(t)

	_, err := executeRecord(t, "text", &scriptedRunner{}, "--package", "demo")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRecord_DatabaseFromEnvironment(t *testing.T) {
	dir := isolate(t)
	dbPath := filepath.Join(dir, "env.db")
	t.Setenv(config.EnvDatabase, dbPath)

	_, err := executeRecord(t, "text", &scriptedRunner{freeze: "a==1\n"}, "--package", "demo")
	require.NoError(t, err)

	st, err := store.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer st.Close()
	projects, err := st.Projects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, projects)
}

func TestRecord_InstallFailure(t *testing.T) {
	dir := isolate(t)
	runner := &scriptedRunner{installErr: errors.New("exit status 1")}

	_, err := executeRecord(t, "text", runner, "--package", "nope", "--db", filepath.Join(dir, "x.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to install nope")
}

func TestRecord_MalformedListing(t *testing.T) {
	dir := isolate(t)
	dbPath := filepath.Join(dir, "x.db")
	runner := &scriptedRunner{freeze: "alpha==1.0\n-e git+https://example.com/x.git\n"}

	out, err := executeRecord(t, "json", runner, "--package", "demo", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParse, resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)

	// Nothing is written when the listing is rejected.
	st, err := store.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer st.Close()
	projects, err := st.Projects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestRecord_UnreachableStore(t *testing.T) {
	isolate(t)

	_, err := executeRecord(t, "text", &scriptedRunner{freeze: "a==1\n"},
		"--package", "demo", "--db", "/nonexistent/dir/x.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, store.IsConnectionError(err))
}

func TestRecord_RerunUpdatesVersions(t *testing.T) {
	dir := isolate(t)
	dbPath := filepath.Join(dir, "x.db")

	_, err := executeRecord(t, "text", &scriptedRunner{freeze: "foo==1.0\n"}, "--package", "p", "--db", dbPath)
	require.NoError(t, err)
	_, err = executeRecord(t, "text", &scriptedRunner{freeze: "foo==2.0\n"}, "--package", "p", "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer st.Close()
	state, err := st.ProjectRequirements(context.Background(), "p")
	require.NoError(t, err)
	require.Len(t, state, 1)
	assert.Equal(t, "2.0", state[0].CurrentVersion)
}

func TestRecord_ShowPrintsStoredState(t *testing.T) {
	dir := isolate(t)
	dbPath := filepath.Join(dir, "x.db")

	_, err := executeRecord(t, "text", &scriptedRunner{freeze: "alpha==1.0\nbeta==0.9\n"}, "--package", "demo", "--db", dbPath)
	require.NoError(t, err)
	out, err := executeRecord(t, "text", &scriptedRunner{freeze: "alpha==2.0\n"},
		"--package", "demo", "--db", dbPath, "--show")
	require.NoError(t, err)

	st, err := store.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer st.Close()
	state, err := st.ProjectRequirements(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, state, 2)

	assert.Contains(t, out, "Stored state of demo:")
	assert.Contains(t, out, "REQUIREMENT  VERSION  UPDATED")
	// beta was not in the latest listing and keeps its old version.
	assert.Contains(t, out, "alpha        2.0      "+state[0].UpdatedAt.UTC().Format(StateTimeFormat))
	assert.Contains(t, out, "beta         0.9      "+state[1].UpdatedAt.UTC().Format(StateTimeFormat))
}

func TestRecord_ShowJSON(t *testing.T) {
	dir := isolate(t)
	runner := &scriptedRunner{freeze: "alpha==1.2.3\n"}

	out, err := executeRecord(t, "json", runner, "--package", "demo", "--db", filepath.Join(dir, "x.db"), "--show")
	require.NoError(t, err)

	var resp struct {
		Data RecordResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.State, 1)
	assert.Equal(t, "alpha", resp.Data.State[0].Requirement)
	assert.Equal(t, "1.2.3", resp.Data.State[0].CurrentVersion)
	assert.False(t, resp.Data.State[0].UpdatedAt.IsZero())
}

func TestRecord_WithoutShowOmitsState(t *testing.T) {
	dir := isolate(t)

	out, err := executeRecord(t, "text", &scriptedRunner{freeze: "alpha==1.0\n"},
		"--package", "demo", "--db", filepath.Join(dir, "x.db"))
	require.NoError(t, err)
	assert.NotContains(t, out, "Stored state")
}
