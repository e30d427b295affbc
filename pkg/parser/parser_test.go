package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPythonFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"mod.py", true},
		{"mod.pyw", true},
		{"mod.pyi", true},
		{"MOD.PY", true},
		{"mod.txt", false},
		{"mod", false},
		{"py", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPythonFile(tt.path), tt.path)
	}
}

func TestIsStubFile(t *testing.T) {
	assert.True(t, IsStubFile("mod.pyi"))
	assert.True(t, IsStubFile("MOD.PYI"))
	assert.False(t, IsStubFile("mod.py"))
	assert.False(t, IsStubFile("mod.pyw"))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.py")
	require.NoError(t, os.WriteFile(path, []byte("import os\n"), 0o644))

	p := New()
	defer p.Close()

	res, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.NotNil(t, res.Tree)

	_, err = p.ParseFile(filepath.Join(dir, "missing.py"))
	require.Error(t, err)

	notPython := filepath.Join(dir, "m.txt")
	require.NoError(t, os.WriteFile(notPython, []byte("hello"), 0o644))
	_, err = p.ParseFile(notPython)
	require.Error(t, err)
}

func TestGetNodeText(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("import os\n")
	res, err := p.Parse(source, "m.py")
	require.NoError(t, err)

	root := res.Tree.RootNode()
	assert.Equal(t, "import os\n", GetNodeText(root, source))
	assert.Equal(t, "", GetNodeText(nil, source))
	assert.Equal(t, "", GetNodeText(root, source[:2]))
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"win32"`, "win32"},
		{`'win32'`, "win32"},
		{`"""doc"""`, "doc"},
		{`'''doc'''`, "doc"},
		{`r"raw"`, "raw"},
		{`b'bytes'`, "bytes"},
		{`rb"both"`, "both"},
		{`F"fstring"`, "fstring"},
		{`""`, ""},
		{`plain`, "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, unquote(tt.in), tt.in)
	}
}
