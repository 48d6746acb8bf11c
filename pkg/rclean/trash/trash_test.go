package trash

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "a.pyc")
	require.NoError(t, os.WriteFile(tmpFile, []byte("bytecode"), 0644))

	require.NoError(t, Move(tmpFile))

	_, err := os.Lstat(tmpFile)
	assert.True(t, os.IsNotExist(err))
}

func TestMove_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "__pycache__")
	require.NoError(t, os.Mkdir(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.pyc"), []byte("x"), 0644))

	require.NoError(t, Move(dir))

	_, err := os.Lstat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestMove_Symlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.log")
	require.NoError(t, os.WriteFile(target, []byte("log"), 0644))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	require.NoError(t, Move(link))

	// The link itself is gone; the target must survive.
	_, err := os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(target)
	assert.NoError(t, err)
}

func TestMove_Nonexistent(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.log")
	assert.Error(t, Move(missing))
}

func TestMoveLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("Linux-specific test")
	}

	tmpFile := filepath.Join(t.TempDir(), "linux.log")
	require.NoError(t, os.WriteFile(tmpFile, []byte("log"), 0644))

	require.NoError(t, moveLinux(tmpFile))

	_, err := os.Lstat(tmpFile)
	assert.True(t, os.IsNotExist(err))
}

func TestRemovePermanently(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, os.Mkdir(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("js"), 0644))

	require.NoError(t, removePermanently(dir))

	_, err := os.Lstat(dir)
	assert.True(t, os.IsNotExist(err))
}
