package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleExecute(t *testing.T) {
	env, host := newTestEnv(t)
	host.AddWorkbook("Book1", "Sheet1")
	host.ExecResults["bad statement"] = false

	result := callTool(t, env.handleExecute, map[string]any{"labTalk": "type -b hi"})
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "success: true")
	assert.Contains(t, host.Commands(), "type -b hi")

	result = callTool(t, env.handleExecute, map[string]any{"labTalk": "bad statement", "object": "[Book1]Sheet1"})
	assert.Contains(t, resultText(t, result), "success: false")

	result = callTool(t, env.handleExecute, map[string]any{"labTalk": "x=1", "object": "Book9"})
	assert.True(t, result.IsError)

	result = callTool(t, env.handleExecute, map[string]any{})
	assert.True(t, result.IsError)
	assert.Equal(t, 0, env.Conn.Live())
}

func TestHandleGetProperty(t *testing.T) {
	env, host := newTestEnv(t)
	book := host.AddWorkbook("Book1", "Sheet1")
	book.NumProps["nlayers"] = 2.9
	book.Sheet(0).StrProps["name"] = "Sheet1"
	book.Sheet(0).NumProps["scale"] = 0.25

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "int is truncated", args: map[string]any{"object": "Book1", "property": "nlayers", "type": "int"}, want: "\n\n2\n"},
		{name: "float", args: map[string]any{"object": "[Book1]Sheet1", "property": "scale", "type": "float"}, want: "\n\n0.25\n"},
		{name: "string by default", args: map[string]any{"object": "[Book1]1", "property": "name"}, want: "\n\nSheet1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, env.handleGetProperty, tt.args)
			require.False(t, result.IsError, resultText(t, result))
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}

	result := callTool(t, env.handleGetProperty, map[string]any{"object": "Book1", "property": "x", "type": "bool"})
	assert.True(t, result.IsError)
}

func TestHandleSetProperty(t *testing.T) {
	env, host := newTestEnv(t)
	book := host.AddWorkbook("Book1", "Sheet1")

	result := callTool(t, env.handleSetProperty, map[string]any{"object": "Book1", "property": "lname", "value": "Raw"})
	require.False(t, result.IsError)
	assert.Equal(t, "Raw", book.StrProps["lname"])

	result = callTool(t, env.handleSetProperty, map[string]any{"object": "Book1", "property": "active", "value": "2", "type": "int"})
	require.False(t, result.IsError)
	assert.Equal(t, float64(2), book.NumProps["active"])

	result = callTool(t, env.handleSetProperty, map[string]any{"object": "Book1", "property": "active", "value": "two", "type": "int"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not an integer")
}

func TestHandleCallMethod(t *testing.T) {
	env, host := newTestEnv(t)
	book := host.AddWorkbook("Book1", "Sheet1")
	book.Methods["save"] = 1
	book.StrMeths["GetName"] = "Book1"

	result := callTool(t, env.handleCallMethod, map[string]any{"object": "Book1", "method": "save", "arg": `"C:\a.ogwu"`})
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "returned:\n\n1\n")
	assert.Equal(t, []string{`save("C:\a.ogwu")`}, book.MethodArgs)

	result = callTool(t, env.handleCallMethod, map[string]any{"object": "Book1", "method": "GetName", "type": "str"})
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Book1\n")
}

func TestHandleUserTree(t *testing.T) {
	env, host := newTestEnv(t)
	book := host.AddWorkbook("Book1", "Sheet1")

	result := callTool(t, env.handleSetUserTree, map[string]any{
		"object": "Book1",
		"tree":   "<OriginStorage><Batch>A7</Batch><Run><Count>3</Count></Run></OriginStorage>",
	})
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, book.StrProps["tree"], "<Batch>A7</Batch>")

	result = callTool(t, env.handleGetUserTree, map[string]any{"object": "Book1"})
	require.False(t, result.IsError)
	var props map[string]any
	jsonResult(t, result, &props)
	assert.Equal(t, "A7", props["Batch"])
	assert.Equal(t, float64(3), props["Run"].(map[string]any)["Count"])

	result = callTool(t, env.handleSetUserTree, map[string]any{"object": "Book1", "tree": "<a><b></a>"})
	assert.True(t, result.IsError)
}

func TestHandleListPages(t *testing.T) {
	env, host := newTestEnv(t)
	host.AddWorkbook("Book1", "Sheet1", "Sheet2")
	host.AddGraph("Graph1", 2)
	host.AddNotes("Notes1")

	result := callTool(t, env.handleListPages, map[string]any{})
	require.False(t, result.IsError)
	var pages []pageInfo
	jsonResult(t, result, &pages)
	require.Len(t, pages, 3)
	assert.Equal(t, pageInfo{Name: "Book1", Kind: "w", Layers: 2}, pages[0])
	assert.Equal(t, pageInfo{Name: "Graph1", Kind: "g", Layers: 2}, pages[1])

	result = callTool(t, env.handleListPages, map[string]any{"kind": "graph"})
	pages = nil
	jsonResult(t, result, &pages)
	require.Len(t, pages, 1)
	assert.Equal(t, "Graph1", pages[0].Name)

	result = callTool(t, env.handleListPages, map[string]any{"kind": "sheet"})
	assert.True(t, result.IsError)
	assert.Equal(t, 0, env.Conn.Live())
}
