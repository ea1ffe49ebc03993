package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
format = "json"
db = "lexc.db"
log_level = "debug"
parallelism = 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{Format: "json", DB: "lexc.db", LogLevel: "debug", Parallelism: 4}, cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "colour = \"red\"\n", "unknown keys [colour]"},
		{"bad syntax", "format = \n", "parsing"},
		{"negative parallelism", "parallelism = -1\n", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFindConfig_WalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("format = \"json\"\n"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, cfg, err := FindConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ConfigFileName), path)
	assert.Equal(t, "json", cfg.Format)
}

func TestFindConfig_StopsAtGitBoundary(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("format = \"json\"\n"), 0o644))
	repo := filepath.Join(root, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

	path, cfg, err := FindConfig(repo)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Nil(t, cfg)
}

func TestConfig_AppliesBeneathFlags(t *testing.T) {
	db := filepath.Join(t.TempDir(), "from-config.db")
	cfgPath := writeConfig(t, "format = \"json\"\ndb = \""+filepath.ToSlash(db)+"\"\n")

	stdout, _, err := execute(t, "--config", cfgPath, "lower", "testdata/doubler.yaml")
	require.NoError(t, err)
	out := decodeLower(t, stdout)
	require.Len(t, out.Documents, 1)
	assert.NotEmpty(t, out.Documents[0].RecordID, "db from config records the result")

	stdout, _, err = execute(t, "--config", cfgPath, "--format", "text", "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "doubler")
	assert.False(t, json.Valid([]byte(stdout)), "--format wins over the config")
}

func TestConfig_InvalidFileFailsCommand(t *testing.T) {
	_, stderr, err := execute(t, "--config", writeConfig(t, "colour = 1\n"), "shape")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "unknown keys")
}
