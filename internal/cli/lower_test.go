package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLower(t *testing.T, stdout string) LowerOutput {
	t.Helper()
	var resp struct {
		Status string      `json:"status"`
		Data   LowerOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestLower_Text(t *testing.T) {
	stdout, _, err := execute(t, "lower", "testdata/doubler.yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "# doubler (testdata/doubler.yaml)")
	assert.Contains(t, stdout, "#   Lambda : func(int) int")
	assert.Contains(t, stdout, "nodes=5 variables=1")
	assert.Contains(t, stdout, "func(x int) int { (x + x) }")
}

func TestLower_JSONKeepsArgumentOrder(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "lower", "-j", "2",
		"testdata/greeter.cue", "testdata/doubler.yaml", "testdata/greeter.cue")
	require.NoError(t, err)

	out := decodeLower(t, stdout)
	require.Len(t, out.Documents, 3)
	assert.Equal(t, "greeter", out.Documents[0].Name)
	assert.Equal(t, "doubler", out.Documents[1].Name)
	assert.Equal(t, "greeter", out.Documents[2].Name)

	for _, d := range out.Documents {
		assert.Len(t, d.Hash, 64)
		assert.Empty(t, d.RecordID)
	}
	assert.Equal(t, out.Documents[0].Hash, out.Documents[2].Hash)
	assert.NotEqual(t, out.Documents[0].Hash, out.Documents[1].Hash)
	assert.Equal(t, "func(*testutil.Person) string", out.Documents[0].ResultType)
}

func TestLower_Failures(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantExit int
		wantCode string
	}{
		{"missing file", "testdata/missing.yaml", ExitCommandError, ErrCodeNotFound},
		{"invalid document", "testdata/broken.yaml", ExitFailure, ErrCodeInvalidDocument},
		{"variable out of scope", "testdata/unscoped.yaml", ExitFailure, ErrCodeScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, "--format", "json", "lower", tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestLower_VerboseFollowsArgumentOrder(t *testing.T) {
	_, stderr, err := execute(t, "-v", "lower", "-j", "4",
		"testdata/greeter.cue", "testdata/doubler.yaml")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "lowered testdata/greeter.cue ("))
	assert.Equal(t, "lowered testdata/doubler.yaml (5 nodes)", lines[1])
}

func TestLower_RequiresArguments(t *testing.T) {
	_, _, err := execute(t, "lower")
	assert.Error(t, err)
}

func TestLower_RecordsAndHistoryLists(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lexc.db")

	stdout, _, err := execute(t, "--format", "json", "lower", "--db", db,
		"testdata/doubler.yaml", "testdata/greeter.cue")
	require.NoError(t, err)
	out := decodeLower(t, stdout)
	require.Len(t, out.Documents, 2)
	assert.Equal(t, int64(1), out.Documents[0].Seq)
	assert.Equal(t, int64(2), out.Documents[1].Seq)
	assert.NotEmpty(t, out.Documents[0].RecordID)

	stdout, _, err = execute(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)
	var resp struct {
		Data HistoryOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Entries, 2)
	assert.Equal(t, "doubler", resp.Data.Entries[0].Name)
	assert.Equal(t, out.Documents[0].RecordID, resp.Data.Entries[0].ID)
	assert.Equal(t, 5, resp.Data.Entries[0].Nodes)

	stdout, _, err = execute(t, "history", "--db", db, "--hash", out.Documents[1].Hash)
	require.NoError(t, err)
	assert.Contains(t, stdout, "greeter")
	assert.NotContains(t, stdout, "doubler")
	assert.Contains(t, stdout, "SEQ")
}
