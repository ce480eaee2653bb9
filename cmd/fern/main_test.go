package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
sites:
  - id: 1
    handle: en
    primary: true
  - id: 2
    handle: de
sections:
  news: 7
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CATALOG_PATH", writeFile(t, dir, "catalog.yaml", testCatalog))
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "news.yaml", "kind: entry\nsection: [news]\nlimit: 5\n")

	out, err := runCommand(t, "compile", "-f", doc, "--site", "1", "--format", "json")
	require.NoError(t, err)

	var got compiled
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, strings.HasPrefix(got.SQL, "SELECT "))
	assert.Contains(t, got.SQL, "AS subquery")
	assert.Contains(t, got.CacheTags, "element::entry")
	assert.Empty(t, got.Aborted)
}

func TestCompileCommandModes(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "entries.yaml", "kind: entry\n")

	out, err := runCommand(t, "compile", "-f", doc, "--mode", "count")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "SELECT COUNT(*) AS count"))

	_, err = runCommand(t, "compile", "-f", doc, "--mode", "bogus")
	assert.ErrorContains(t, err, "invalid mode")
}

func TestCompileCommandReportsAborts(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "missing.yaml", "kind: entry\nsection: [archive]\n")

	out, err := runCommand(t, "compile", "-f", doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "-- aborted: "))
}

func TestRootCommandValidatesFormat(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "entries.yaml", "kind: entry\n")

	_, err := runCommand(t, "compile", "-f", doc, "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestCompileCommandRejectsBadDocuments(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "bad.yaml", "kind: tag\n")

	_, err := runCommand(t, "compile", "-f", doc)
	assert.ErrorContains(t, err, "invalid criteria document")
}
