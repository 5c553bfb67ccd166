package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/liveslides"
	"github.com/aretw0/liveslides/internal/testutils"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDeck(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "liveslides version "+liveslides.Version+"\n", out)
}

func TestValidateCommand(t *testing.T) {
	valid := writeDeck(t, "ok.json", testutils.ScenarioDeckJSON)
	dangling := writeDeck(t, "dangling.yaml", `
title: Dangling
slides:
  - id: Q1
    kind: Question
    title: Ready?
    options:
      - optionLabel: "Yes"
        afterSubmitActions:
          - type: Slide
            slideId: NOWHERE
`)
	invalid := writeDeck(t, "bad.json", `{"title":"","slides":[]}`)

	out, err := execute(t, "validate", valid, dangling)
	require.NoError(t, err)
	assert.Contains(t, out, valid+": valid")
	assert.Contains(t, out, dangling+": warning:")

	out, err = execute(t, "validate", valid, invalid)
	assert.EqualError(t, err, "1 of 2 presentations invalid")
	assert.Contains(t, out, invalid+":")
}

func TestGraphCommand(t *testing.T) {
	path := writeDeck(t, "AB23.json", testutils.ScenarioDeckJSON)

	out, err := execute(t, "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "Q1")
	assert.Contains(t, out, "END")
}

func TestImportCommand(t *testing.T) {
	path := writeDeck(t, "deck.json", testutils.ScenarioDeckJSON)

	out, err := execute(t, "import", path, "--code", "ab23")
	require.NoError(t, err)
	assert.Equal(t, path+" -> AB23\n", out)
}
