package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	p := New(Config{DataDir: "/var/lib/txledger"})
	assert.Equal(t, "/var/lib/txledger", p.GetDataDir())
	assert.Equal(t, filepath.Join("/var/lib/txledger", "history.db"), p.GetDatabasePath())

	p = New(Config{DataDir: "/data", DatabasePath: "/elsewhere/runs.db"})
	assert.Equal(t, "/elsewhere/runs.db", p.GetDatabasePath())
}

func TestResolveInput(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(file, []byte("type,client,tx,amount\n"), 0o644))

	p := New(Config{DataDir: dir})

	abs, err := p.ResolveInput(file)
	require.NoError(t, err)
	assert.Equal(t, file, abs)

	_, err = p.ResolveInput(dir)
	assert.ErrorContains(t, err, "is a directory")

	_, err = p.ResolveInput(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestEnsureParentDir(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{DataDir: dir})

	target := filepath.Join(dir, "a", "b", "out.csv")
	require.NoError(t, p.EnsureParentDir(target))
	assert.True(t, p.FileExists(filepath.Join(dir, "a", "b")))
	assert.False(t, p.FileExists(target))
}
