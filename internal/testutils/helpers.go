// Package testutils holds fixtures shared by tests across packages.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo initializes a Loam repository in a fresh temp dir and returns
// its absolute path with the repository.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteFiles writes name -> content pairs below dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// ScenarioDeckJSON is a two-slide deck: one Question whose option tallies
// "Yes" and jumps to the Ended slide.
const ScenarioDeckJSON = `{
  "title": "Scenario",
  "slides": [
    {"id": "Q1", "kind": "Question", "title": "Ready?", "options": [
      {"optionLabel": "Yes", "optionValue": "yes", "afterSubmitActions": [
        {"type": "Tally", "answer": "Yes"},
        {"type": "Slide", "slideId": "END"}
      ]}
    ]},
    {"id": "END", "kind": "Ended", "title": "Thanks"}
  ]
}`
