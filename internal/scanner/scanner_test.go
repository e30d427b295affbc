package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreach/pyreach/pkg/config"
)

func writeFile(t *testing.T, root, name string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("pass\n"), 0o644))
	return path
}

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "a.py")
	c := writeFile(t, root, "sub/c.pyi")
	writeFile(t, root, "notes.txt")
	writeFile(t, root, "__pycache__/cached.py")
	writeFile(t, root, "test_a.py")
	writeFile(t, root, ".venv/lib/site.py")

	s := New(config.DefaultConfig())
	files, err := s.ScanDir(root)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{a, c}, files)
}

func TestScanDirWithoutExclusions(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "a.py")
	b := writeFile(t, root, "test_b.py")

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = nil
	cfg.Exclude.Dirs = nil
	cfg.Exclude.Gitignore = false

	files, err := New(cfg).ScanDir(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)
}

func TestScanDirCustomPattern(t *testing.T) {
	root := t.TempDir()
	keep := writeFile(t, root, "keep.py")
	writeFile(t, root, "generated_pb2.py")

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = []string{"*_pb2.py"}

	files, err := New(cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)
}

func TestScanPaths(t *testing.T) {
	root := t.TempDir()
	direct := writeFile(t, root, "direct.py")
	nested := writeFile(t, root, "pkg/mod.py")
	text := writeFile(t, root, "readme.txt")

	s := New(config.DefaultConfig())

	files, err := s.ScanPaths([]string{direct, filepath.Join(root, "pkg"), text})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{direct, nested}, files)

	_, err = s.ScanPaths([]string{filepath.Join(root, "missing")})
	require.Error(t, err)
}

func TestNilConfigUsesDefaults(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "a.py")
	writeFile(t, root, "__pycache__/b.py")

	files, err := New(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)
}

func TestFindGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, findGitRoot(nested))
	assert.Equal(t, "", findGitRoot(t.TempDir()))
}

func TestIsWithinRoot(t *testing.T) {
	assert.True(t, isWithinRoot("/tmp/proj/sub/file.py", "/tmp/proj"))
	assert.True(t, isWithinRoot("/tmp/proj", "/tmp/proj"))
	assert.False(t, isWithinRoot("/tmp/other/file.py", "/tmp/proj"))
	assert.False(t, isWithinRoot("/tmp/projx/file.py", "/tmp/proj"))
}
