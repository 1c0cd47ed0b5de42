package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeWorkflow(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateCommand(t *testing.T) {
	path := writeWorkflow(t, `
name: ok
steps:
  - name: a
    command: ["true"]
  - name: b
    command: ["true"]
    depends_on: [a]
`)

	_, err := execute(t, "--quiet", "validate", path)
	assert.NoError(t, err)
}

func TestValidateCommandRejectsCycle(t *testing.T) {
	path := writeWorkflow(t, `
name: cyclic
steps:
  - name: a
    command: ["true"]
    depends_on: [b]
  - name: b
    command: ["true"]
    depends_on: [a]
`)

	_, err := execute(t, "--quiet", "validate", path)
	assert.Error(t, err)
}

func TestGraphCommandDOT(t *testing.T) {
	path := writeWorkflow(t, `
name: g
steps:
  - name: a
    command: ["true"]
  - name: b
    command: ["true"]
    depends_on: [a]
`)

	out, err := execute(t, "--quiet", "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph tasks")
	assert.Contains(t, out, `"a" -> "b"`)
}

func TestRunCommandFailsOnCancelledTask(t *testing.T) {
	path := writeWorkflow(t, `
name: failing
steps:
  - name: broken
    command: ["false"]
`)

	_, err := execute(t, "--quiet", "run", path)
	assert.Error(t, err)
}
