package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "catalog.db"))
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--authors", "3", "--books", "4", "--instances", "6", "--seed", "7"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "Sample data generated")
	assert.Contains(t, out.String(), "languages:      8")
	assert.Contains(t, out.String(), "authors:        3")
	assert.Contains(t, out.String(), "books:          4")
	assert.Contains(t, out.String(), "book instances: 6")
}

func TestSeedCommandBadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "oracle")

	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestSeedCommandRejectsNegativeCounts(t *testing.T) {
	for _, flag := range []string{"--genres", "--authors", "--books", "--instances"} {
		t.Run(flag, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetArgs([]string{flag, "-3"})
			err := cmd.ExecuteContext(context.Background())
			assert.ErrorContains(t, err, "must not be negative")
		})
	}
}
