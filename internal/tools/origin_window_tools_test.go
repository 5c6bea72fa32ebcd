package tools

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleImage_Load(t *testing.T) {
	env, host := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "cells.png")

	result := callTool(t, env.handleImage, map[string]any{"action": "load", "path": path})
	assert.True(t, result.IsError, "an empty image reports nothing loaded")
	assert.Contains(t, resultText(t, result), "no image loaded")
	assert.Contains(t, host.Commands(), `img.Load("`+path+`")`)

	im := host.AddImage("Cells")
	im.NumProps["Width"] = 640
	result = callTool(t, env.handleImage, map[string]any{"action": "load", "name": "Cells", "path": path})
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "into Cells")
	assert.Equal(t, 0, env.Conn.Live())
}

func TestHandleImage_Convert(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{action: "gray", want: "cvGray"},
		{action: "split", want: "cvSplit"},
		{action: "merge", want: "cvMerge"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			env, host := newTestEnv(t)
			host.AddImage("Image1")
			host.Strs["%H"] = "Image1"

			result := callTool(t, env.handleImage, map[string]any{"action": tt.action})
			require.False(t, result.IsError, resultText(t, result))
			cmds := host.Commands()
			assert.Equal(t, tt.want, cmds[len(cmds)-1])
		})
	}
}

func TestHandleImage_Info(t *testing.T) {
	env, host := newTestEnv(t)
	im := host.AddImage("Image1")
	im.NumProps["Width"] = 640
	im.NumProps["Height"] = 480
	im.NumProps["Channels"] = 3
	im.NumProps["Frames"] = 1
	im.NumProps["Media"] = 1

	result := callTool(t, env.handleImage, map[string]any{"action": "info", "name": "Image1"})
	require.False(t, result.IsError, resultText(t, result))
	var info imageInfo
	jsonResult(t, result, &info)
	assert.Equal(t, imageInfo{Name: "Image1", Width: 640, Height: 480, Channels: 3, Frames: 1, Media: "single"}, info)
}

func TestHandleImage_Invalid(t *testing.T) {
	env, host := newTestEnv(t)
	host.AddWorkbook("Book1", "Sheet1")

	for _, args := range []map[string]any{
		{"action": "rotate"},
		{"action": "load", "path": "cells.png"},
		{"action": "load"},
		{"action": "info", "name": "Book1"},
	} {
		result := callTool(t, env.handleImage, args)
		assert.True(t, result.IsError, args)
	}
}

func TestHandleImage_RelativePath(t *testing.T) {
	env, host := newTestEnv(t)

	result := callTool(t, env.handleImage, map[string]any{"action": "load", "path": "cells.png"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "path: must be an absolute path")
	assert.Empty(t, host.Commands())
}

func TestHandleNotes(t *testing.T) {
	env, host := newTestEnv(t)
	notes := host.AddNotes("Log")

	result := callTool(t, env.handleNotes, map[string]any{"action": "write", "name": "Log", "text": "first"})
	require.False(t, result.IsError, resultText(t, result))
	result = callTool(t, env.handleNotes, map[string]any{"action": "append", "name": "Log", "text": "second"})
	require.False(t, result.IsError)
	assert.Equal(t, "firstsecond\r\n", notes.TextVal)

	result = callTool(t, env.handleNotes, map[string]any{"action": "read", "name": "Log"})
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "firstsecond")
	assert.Equal(t, 0, env.Conn.Live())
}

func TestHandleNotes_Create(t *testing.T) {
	env, _ := newTestEnv(t)

	result := callTool(t, env.handleNotes, map[string]any{"action": "write", "name": "Summary", "text": "done", "create": true})
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "to Summary")

	result = callTool(t, env.handleNotes, map[string]any{"action": "read", "name": "Summary"})
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "done")
}

func TestHandleNotes_Files(t *testing.T) {
	env, host := newTestEnv(t)
	notes := host.AddNotes("Log")
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.html")

	result := callTool(t, env.handleNotes, map[string]any{"action": "load", "name": "Log", "path": in})
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "(code 0)")

	result = callTool(t, env.handleNotes, map[string]any{"action": "export_html", "name": "Log", "path": out})
	require.False(t, result.IsError, resultText(t, result))
	assert.Equal(t, []string{
		`load("` + in + `", 0)`,
		`exporthtml("` + out + `")`,
	}, notes.MethodArgs)
}

func TestHandleNotes_Invalid(t *testing.T) {
	env, host := newTestEnv(t)
	host.AddNotes("Log")

	for _, args := range []map[string]any{
		{"action": "erase", "name": "Log"},
		{"action": "load", "name": "Log", "path": "in.txt"},
		{"action": "export_html", "name": "Log"},
		{"action": "read", "name": "Missing"},
	} {
		result := callTool(t, env.handleNotes, args)
		assert.True(t, result.IsError, args)
	}
}
