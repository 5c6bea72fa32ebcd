package server

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/originlab/originpro/internal/origin"
	"github.com/originlab/originpro/internal/origin/origintest"
	"github.com/originlab/originpro/internal/tools"
)

func TestNew_RegistersTools(t *testing.T) {
	dialer := &origintest.DialRecorder{Host: origintest.NewHost()}
	conn := origin.NewConnection(dialer.Dial)
	s := New("test", tools.NewEnv(conn, nil, 100))

	response := s.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(response)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	var names []string
	for _, tool := range decoded.Result.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"origin_call_method",
		"origin_execute",
		"origin_export_sheet_xlsx",
		"origin_get_property",
		"origin_get_user_tree",
		"origin_image",
		"origin_import_file",
		"origin_linear_fit",
		"origin_list_pages",
		"origin_nlfit",
		"origin_notes",
		"origin_read_sheet",
		"origin_set_property",
		"origin_set_user_tree",
	}, names)

	assert.Equal(t, 0, dialer.Count(), "listing tools must not start Origin")
}
