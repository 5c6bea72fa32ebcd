package tools

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/originlab/originpro/internal/origin"
	"github.com/originlab/originpro/internal/origin/origintest"
)

// addDataBook adds Book1 with three rows in a numeric, a text and a
// numeric column holding a missing value.
func addDataBook(host *origintest.Host) *origintest.Sheet {
	book := host.AddWorkbook("Book1", "Sheet1")
	sheet := book.Sheet(0)
	sheet.Columns[0] = []any{1.0, 2.0, 3.0}
	sheet.Formats[0] = origin.DFDouble
	sheet.Columns[1] = []any{"a", "b", "c"}
	sheet.Formats[1] = origin.DFText
	sheet.Columns[2] = []any{math.NaN(), 5.0, 6.0}
	sheet.Formats[2] = origin.DFDouble
	sheet.Rows, sheet.Cols = 3, 3
	return sheet
}

func TestHandleReadSheet(t *testing.T) {
	env, host := newTestEnv(t)
	addDataBook(host)

	result := callTool(t, env.handleReadSheet, map[string]any{"sheet": "[Book1]Sheet1"})
	require.False(t, result.IsError, resultText(t, result))
	text := resultText(t, result)
	assert.Contains(t, text, "shape: 3 rows x 3 columns\n")
	assert.Contains(t, text, "rows: 1:2\n")
	assert.Contains(t, text, "next page: 3:3\n")
	var rows [][]any
	jsonResult(t, result, &rows)
	assert.Equal(t, [][]any{{1.0, "a", nil}, {2.0, "b", 5.0}}, rows)

	result = callTool(t, env.handleReadSheet, map[string]any{"sheet": "[Book1]Sheet1", "rows": "3:3"})
	require.False(t, result.IsError, resultText(t, result))
	assert.NotContains(t, resultText(t, result), "next page")
	rows = nil
	jsonResult(t, result, &rows)
	assert.Equal(t, [][]any{{3.0, "c", 6.0}}, rows)

	result = callTool(t, env.handleReadSheet, map[string]any{"sheet": "[Book1]Sheet1", "rows": "2:2"})
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "next page: 3:3\n")

	assert.Equal(t, 0, env.Conn.Live())
}

func TestHandleReadSheet_InvalidRows(t *testing.T) {
	env, host := newTestEnv(t)
	addDataBook(host)

	for _, rows := range []string{"0:1", "2:1", "4:5", "first"} {
		t.Run(rows, func(t *testing.T) {
			result := callTool(t, env.handleReadSheet, map[string]any{"sheet": "[Book1]Sheet1", "rows": rows})
			assert.True(t, result.IsError)
		})
	}
}

func TestHandleReadSheet_Empty(t *testing.T) {
	env, host := newTestEnv(t)
	host.AddWorkbook("Book1", "Sheet1")
	host.Strs["%H"] = "Book1"

	result := callTool(t, env.handleReadSheet, map[string]any{})
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "[Book1]Sheet1 is empty")
}

func TestHandleReadSheet_MatrixIsRejected(t *testing.T) {
	env, host := newTestEnv(t)
	host.AddMatrixBook("MBook1", "MSheet1")

	result := callTool(t, env.handleReadSheet, map[string]any{"sheet": "MBook1"})
	assert.True(t, result.IsError)
}

func TestHandleExportSheetXlsx(t *testing.T) {
	env, host := newTestEnv(t)
	addDataBook(host)
	out := filepath.Join(t.TempDir(), "nested", "data.xlsx")

	result := callTool(t, env.handleExportSheetXlsx, map[string]any{
		"sheet":      "[Book1]Sheet1",
		"outputPath": out,
		"sheetName":  "Data",
	})
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "Exported 3 rows x 3 columns")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Data"}, f.GetSheetList())
	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "a"}, rows[0][:2])
	assert.Equal(t, []string{"2", "b", "5"}, rows[1])
	assert.Equal(t, []string{"3", "c", "6"}, rows[2])
}

func TestHandleExportSheetXlsx_RelativePath(t *testing.T) {
	env, host := newTestEnv(t)
	addDataBook(host)

	result := callTool(t, env.handleExportSheetXlsx, map[string]any{"outputPath": "data.xlsx"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "must be an absolute path")
}

func TestHandleImportFile(t *testing.T) {
	env, host := newTestEnv(t)
	host.AddWorkbook("Book1", "Sheet1")
	path := filepath.Join(t.TempDir(), "a.csv")

	result := callTool(t, env.handleImportFile, map[string]any{
		"fileAbsolutePath": path,
		"sheet":            "[Book1]Sheet1",
	})
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "success: true")
	cmds := host.Commands()
	assert.Contains(t, cmds, `wbook.dc.add("csv")`)
	assert.Contains(t, cmds, `wks.dc.source$="`+path+`"`)
	assert.Equal(t, "wbook.dc.Remove()", cmds[len(cmds)-1])
}

func TestHandleImportFile_NewBook(t *testing.T) {
	env, host := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "a.xlsx")

	result := callTool(t, env.handleImportFile, map[string]any{
		"fileAbsolutePath": path,
		"newBook":          true,
		"keepConnector":    true,
	})
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "into [Book1]Sheet1")
	cmds := host.Commands()
	assert.Contains(t, cmds, `wbook.dc.add("excel")`)
	assert.Equal(t, "wks.dc.import()", cmds[len(cmds)-1])
}

func TestHandleImportFile_Invalid(t *testing.T) {
	env, host := newTestEnv(t)
	host.AddWorkbook("Book1", "Sheet1")

	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "relative path", args: map[string]any{"fileAbsolutePath": "a.csv"}},
		{name: "unknown extension", args: map[string]any{"fileAbsolutePath": filepath.Join(t.TempDir(), "a.bin")}},
		{name: "missing path", args: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, env.handleImportFile, tt.args)
			assert.True(t, result.IsError)
		})
	}
	assert.Empty(t, host.Commands())
}
