package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"text", FormatText},
		{"", FormatText},
		{"bogus", FormatText},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseFormat(tt.in), tt.in)
	}
}

func testTable() *Table {
	return NewTable(
		"Modules",
		[]string{"Module", "Imports"},
		[][]string{
			{"app", "3"},
			{"lib", "1"},
		},
		[]string{"2 modules", "4"},
		nil,
	)
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testTable().RenderMarkdown(&buf))

	out := buf.String()
	assert.Contains(t, out, "## Modules")
	assert.Contains(t, out, "| Module | Imports |")
	assert.Contains(t, out, "| --- | --- |")
	assert.Contains(t, out, "| app | 3 |")
	assert.Contains(t, out, "| 2 modules | 4 |")
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testTable().RenderText(&buf, false))

	out := buf.String()
	assert.Contains(t, out, "Modules")
	assert.Contains(t, out, "=======")
	assert.Contains(t, out, "app")
	assert.Contains(t, out, "lib")
}

func TestTableRenderData(t *testing.T) {
	t.Run("wrapped data wins", func(t *testing.T) {
		table := NewTable("T", []string{"A"}, [][]string{{"x"}}, nil, []int{1, 2})
		assert.Equal(t, []int{1, 2}, table.RenderData())
	})

	t.Run("rows fall back to header maps", func(t *testing.T) {
		data := testTable().RenderData()
		rows, ok := data.([]map[string]string)
		require.True(t, ok)
		require.Len(t, rows, 2)
		assert.Equal(t, "app", rows[0]["Module"])
		assert.Equal(t, "3", rows[0]["Imports"])
	})
}

func TestFormatterJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatJSON, path, true)
	require.NoError(t, err)
	require.NoError(t, f.Output(testTable()))
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded, 2)
}

func TestFormatterNonRenderableFallsBackToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatText, path, false)
	require.NoError(t, err)
	require.NoError(t, f.Output(map[string]int{"count": 3}))
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 3}`, string(raw))
}

func TestFormatterFormat(t *testing.T) {
	f, err := NewFormatter(FormatMarkdown, "", false)
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f.Format())
	assert.NoError(t, f.Close())
}
