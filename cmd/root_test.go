// File: cmd/root_test.go
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand_HasSubcommands(t *testing.T) {
	root := NewRootCommand()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["type"])
	assert.True(t, names["version"])

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestReadInput_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o644))

	got, err := readInput([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "file contents", got)
}

func TestReadInput_MissingFile(t *testing.T) {
	_, err := readInput([]string{filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, err)
}
