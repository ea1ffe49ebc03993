package cli

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weichx/FastExpressionCompiler/internal/expr"
	"github.com/weichx/FastExpressionCompiler/internal/irdoc"
	"github.com/weichx/FastExpressionCompiler/internal/light"
)

func TestFailDocument_Classification(t *testing.T) {
	arity := &light.Error{Code: light.ErrCodeUnsupportedArity, Message: "too wide"}
	tests := []struct {
		name     string
		err      error
		wantExit int
		wantCode string
	}{
		{"missing file", errors.Wrap(fs.ErrNotExist, "open a.yaml"), ExitCommandError, ErrCodeNotFound},
		{"arity", errors.Wrap(arity, "a.yaml"), ExitFailure, ErrCodeArity},
		{"arity inside document error", &irdoc.Error{Path: "root.lambda", Message: "too wide", Err: arity}, ExitFailure, ErrCodeArity},
		{"scope", errors.Wrap(&expr.ScopeError{Name: "x", Type: "int"}, "a.yaml"), ExitFailure, ErrCodeScope},
		{"document", &irdoc.Error{Path: "root", Message: "root is required"}, ExitFailure, ErrCodeInvalidDocument},
		{"anything else", errors.New("no lowering rule"), ExitFailure, ErrCodeLowering},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := failDocument(formatter, tt.err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.True(t, errors.Is(err, tt.err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.err.Error(), resp.Error.Message)
		})
	}
}

func TestLowerResult_String(t *testing.T) {
	r := LowerResult{
		Name:       "doubler",
		Source:     "doubler.yaml",
		RootKind:   "Lambda",
		ResultType: "func(int) int",
		Hash:       "abc123",
		Nodes:      5,
		Variables:  1,
		Canonical:  "func(x int) int { (x + x) }",
	}
	assert.Equal(t, "# doubler (doubler.yaml)\n"+
		"#   Lambda : func(int) int\n"+
		"#   nodes=5 variables=1 hash=abc123\n"+
		"func(x int) int { (x + x) }", r.String())

	r.RecordID, r.Seq = "mat-0001", 3
	assert.Contains(t, r.String(), "#   recorded id=mat-0001 seq=3\n")
}

func TestLowerOutput_TextSeparatesDocuments(t *testing.T) {
	out := LowerOutput{Documents: []LowerResult{
		{Name: "a", Source: "a.yaml", Canonical: "1"},
		{Name: "b", Source: "b.yaml", Canonical: "2"},
	}}

	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, formatter.Success(out))

	assert.Equal(t, out.Documents[0].String()+"\n\n"+out.Documents[1].String()+"\n", buf.String())
}

func TestLowerOutput_JSONOmitsStoredForm(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, formatter.Success(LowerOutput{Documents: []LowerResult{{
		Name:          "doubler",
		Hash:          "abc123",
		CanonicalJSON: `{"kind":"Lambda"}`,
	}}}))

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Documents []map[string]any `json:"documents"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Documents, 1)

	doc := resp.Data.Documents[0]
	assert.Equal(t, "doubler", doc["name"])
	assert.Equal(t, "abc123", doc["hash"])
	assert.NotContains(t, doc, "CanonicalJSON")
	assert.NotContains(t, doc, "record_id")
	assert.NotContains(t, doc, "seq")
}

func TestOutputFormatter_TextErrorDetailsOnlyWhenVerbose(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: verbose}

		require.NoError(t, formatter.Error(ErrCodeInvalidDocument, "root is required", "broken.yaml"))
		assert.Contains(t, buf.String(), "Error [E201]: root is required\n")
		if verbose {
			assert.Contains(t, buf.String(), "Details: broken.yaml\n")
		} else {
			assert.NotContains(t, buf.String(), "Details:")
		}
	}
}

func TestLower_JSONFailureEnvelope(t *testing.T) {
	stdout, stderr, err := execute(t, "--format", "json", "lower", "testdata/broken.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Empty(t, stderr)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidDocument, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "root.add")
	assert.Contains(t, resp.Error.Message, "expected 2 operands, got 1")
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("lowered %d", 3)
	assert.Empty(t, out.String())
	assert.Equal(t, "lowered 3\n", errOut.String())
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	cause := errors.New("boom")
	err := formatter.Fail(ExitCommandError, ErrCodeStore, cause)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Error [E301]: boom\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.Wrap(WrapExitError(ExitFailure, "x", nil), "outer")))
}
