package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_Text(t *testing.T) {
	stdout, _, err := execute(t, "inspect", "testdata/doubler.yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "# doubler (testdata/doubler.yaml): 5 nodes")
	assert.Contains(t, stdout, "Lambda : func(int) int")
	assert.Contains(t, stdout, "  Parameter x : int")
}

func TestInspect_JSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "inspect", "testdata/greeter.cue")
	require.NoError(t, err)

	var resp struct {
		Data InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "greeter", resp.Data.Name)
	assert.Equal(t, map[string]string{"err": "error", "p": "*testutil.Person"}, resp.Data.Variables)
	assert.Contains(t, resp.Data.Dump, "MethodCall *testutil.Person.Greet : string")
}

func TestInspect_InvalidDocument(t *testing.T) {
	_, _, err := execute(t, "inspect", "testdata/broken.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestShape(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"action", []string{"shape"}, "Action0 func()\n"},
		{"func", []string{"shape", "int", "string", "--returns", "bool"}, "Func2 func(int, string) bool\n"},
		{"composite types", []string{"shape", "[]int", "-r", "*int"}, "Func1 func([]int) *int\n"},
		{"ceiling", []string{"shape", "int", "int", "int", "int", "int", "int", "int"}, "Action7 func(int, int, int, int, int, int, int)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestShape_Errors(t *testing.T) {
	_, _, err := execute(t, "shape", "int", "int", "int", "int", "int", "int", "int", "int", "-r", "int")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	stdout, _, err := execute(t, "shape", "Widget")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E204]")
}

func TestHistory_RequiresStore(t *testing.T) {
	stdout, _, err := execute(t, "--config", writeConfig(t, ""), "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "no store")
}

func TestHistory_Empty(t *testing.T) {
	stdout, _, err := execute(t, "history", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Equal(t, "no materializations recorded\n", stdout)
}

// writeConfig writes a lexc.toml with the given body and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
