package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func doc(name string) string {
	return filepath.Join("testdata", "docs", name)
}

func TestCompile_Golden(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantExit int
	}{
		{"compile_get_text", []string{"compile", doc("get.yaml")}, ExitSuccess},
		{"compile_get_json", []string{"compile", doc("get.yaml"), "--format", "json"}, ExitSuccess},
		{"compile_update_explain_text", []string{"compile", doc("update.yaml"), "--explain", "--numbers", "int"}, ExitSuccess},
		{"compile_bad_between_text", []string{"compile", doc("bad_between.yaml")}, ExitFailure},
		{"compile_bad_between_json", []string{"compile", doc("bad_between.yaml"), "--format", "json"}, ExitFailure},
		{"compile_empty_update_text", []string{"compile", doc("empty_update.yaml")}, ExitFailure},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, tt.args...)
			if tt.wantExit == ExitSuccess {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantExit, GetExitCode(err))
			}
			g.Assert(t, tt.name, []byte(out))
		})
	}
}

func TestCompile_MissingDocument(t *testing.T) {
	out, _, err := runCLI(t, "compile", "/nonexistent/request.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
	assert.Contains(t, out, "document not found")
}

func TestCompile_InvalidNumbers(t *testing.T) {
	out, _, err := runCLI(t, "compile", doc("get.yaml"), "--numbers", "roman")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "invalid numbers")
}

func TestCompile_InvalidFormat(t *testing.T) {
	_, _, err := runCLI(t, "compile", doc("get.yaml"), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestCompile_ExplainJSON(t *testing.T) {
	out, _, err := runCLI(t, "compile", doc("update.yaml"), "--explain", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "update", resp.Data.Compiled.Operation)
	assert.Equal(t, map[string]string{
		"UpdateExpression":    "SET hits = hits + 1, meta.updated_by = 'cli' REMOVE stale ADD tags {'hot'}",
		"ConditionExpression": "NOT (attribute_exists(locked))",
	}, resp.Data.Explain)
	assert.Nil(t, resp.Data.Saved)
}

func TestCompile_Save(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalogue.db")

	out, _, err := runCLI(t, "compile", doc("get.yaml"), "--save", db, "--format", "json")
	require.NoError(t, err)

	var first struct {
		Data CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	require.NotNil(t, first.Data.Saved)
	assert.True(t, first.Data.Saved.Inserted)
	assert.NotEmpty(t, first.Data.Saved.ID)

	out, _, err = runCLI(t, "compile", doc("get.yaml"), "--save", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Already stored as "+first.Data.Saved.ID)
}

func TestCompile_VerboseLogsToStderr(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalogue.db")
	out, errOut, err := runCLI(t, "compile", doc("update.yaml"), "--verbose", "--format", "json", "--save", db)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout must stay valid JSON")
	assert.Contains(t, errOut, "Loaded update request from")
	assert.Contains(t, errOut, "request compiled")
	assert.Contains(t, errOut, "compilation stored")
}

func TestCompile_QuietWithoutVerbose(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalogue.db")
	_, errOut, err := runCLI(t, "compile", doc("update.yaml"), "--save", db)
	require.NoError(t, err)
	assert.Empty(t, errOut)
}

func TestCompile_VerboseDoesNotTouchDefaultLogger(t *testing.T) {
	before := slog.Default()
	_, _, err := runCLI(t, "compile", doc("get.yaml"), "--verbose")
	require.NoError(t, err)
	assert.Same(t, before, slog.Default())
}
