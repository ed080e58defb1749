package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instanceYAML = `category: work
events:
  - [A, "09:00", "10:00"]
  - [B, "09:30", "10:30"]
  - [C, "11:00", "12:00"]
priorities: [C]
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSolveCommand(t *testing.T) {
	inst := writeFile(t, t.TempDir(), "inst.yaml", instanceYAML)

	out, err := execute(t, "solve", "--instance", inst, "--format", "json", "--verify")
	require.NoError(t, err)
	var doc struct {
		Total   int      `json:"total"`
		Skipped []string `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 180, doc.Total)
	assert.Equal(t, []string{"A"}, doc.Skipped)

	out, err = execute(t, "solve", "--instance", inst, "--format", "csv", "--verify=false")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"))

	_, err = execute(t, "solve", "--instance", inst, "--format", "xml", "--verify=false")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	inst := writeFile(t, dir, "inst.yaml", instanceYAML)
	cand := writeFile(t, dir, "cand.txt", `<think>skip A</think>
<schedule>
<event><name>B</name><start>09:30</start><end>10:30</end></event>
<event><name>C</name><start>11:00</start><end>12:00</end></event>
</schedule>`)

	out, err := execute(t, "validate", "--instance", inst, "--candidate", cand, "--policy", "strict")
	require.NoError(t, err)
	var v struct {
		Valid  bool    `json:"valid"`
		Reason string  `json:"reason"`
		Score  float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.True(t, v.Valid)
	assert.Equal(t, "valid", v.Reason)
	assert.Equal(t, 100.0, v.Score)

	_, err = execute(t, "validate", "--instance", inst, "--candidate", cand, "--policy", "lenient")
	assert.Error(t, err)
}

func TestSlotsCommand(t *testing.T) {
	inst := writeFile(t, t.TempDir(), "inst.yaml", instanceYAML)

	out, err := execute(t, "slots", "--instance", inst, "--duration", "30", "--from", "08:00", "--to", "13:00", "--gap", "0", "--conflicts", "")
	require.NoError(t, err)
	assert.Equal(t, "08:00 - 09:00 (60 min)\n10:30 - 11:00 (30 min)\n12:00 - 13:00 (60 min)\n", out)

	out, err = execute(t, "slots", "--instance", inst, "--conflicts", "09:45-10:15")
	require.NoError(t, err)
	assert.Equal(t, "A (09:00 - 10:00)\nB (09:30 - 10:30)\n", out)

	for _, bad := range []string{"12:00-09:00", "10:00-10:00", "10:00"} {
		_, err = execute(t, "slots", "--instance", inst, "--conflicts", bad)
		assert.Error(t, err, bad)
	}
}

func TestGenerateAndEvaluateCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", `corpus:
  rows: 20
  test_size: 5
  store:
    type: sqlite
    conf:
      path: `+filepath.Join(dir, "corpus.db")+`
evaluation:
  completer:
    type: oracle
metrics:
  sinks:
    - type: sqlite
      conf:
        path: `+filepath.Join(dir, "kpi.db")+`
`)

	out, err := execute(t, "-c", cfg, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "train 15, test 5")

	out, err = execute(t, "-c", cfg, "evaluate", "--json", "--limit", "3")
	require.NoError(t, err)
	var rep struct {
		Policy string `json:"policy"`
		Total  int    `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "strict", rep.Policy)
	assert.Equal(t, 3, rep.Total)
}

func TestHistoryCommandAfterEvaluate(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "kpi.db")
	cfg := writeFile(t, dir, "config.json", `{
  "corpus": {"rows": 8, "test_size": 4, "store": {"type": "jsonl", "conf": {"path": "`+filepath.ToSlash(filepath.Join(dir, "corpus"))+`"}}},
  "evaluation": {"completer": {"type": "static", "conf": {"text": "nothing"}}},
  "metrics": {"sinks": [{"type": "sqlite", "conf": {"path": "`+filepath.ToSlash(db)+`"}}]}
}`)
	_, err := execute(t, "-c", cfg, "generate")
	require.NoError(t, err)
	_, err = execute(t, "-c", cfg, "evaluate", "--json", "--limit", "0")
	require.NoError(t, err)

	out, err := execute(t, "history", "--db", db, "--runs", "5", "--days", "1", "--policy", "strict")
	require.NoError(t, err)
	assert.Contains(t, out, "format_invalid")
	assert.Regexp(t, `1\s+\S+\s+strict\s+4\s+0`, out)
}
