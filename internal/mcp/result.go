package mcp

import (
	"fmt"
	"sort"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
)

func NewToolResultInvalidArgumentError(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Invalid argument: %s", message))
}

// NewToolResultZogIssueMap reports schema violations, one text item per
// issue, ordered by argument name.
func NewToolResultZogIssueMap(issues z.ZogIssueMap) *mcp.CallToolResult {
	keys := make([]string, 0, len(issues))
	for k := range issues {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var contents []mcp.Content
	for _, k := range keys {
		if k == "$first" {
			continue
		}
		for _, issue := range issues[k] {
			contents = append(contents, mcp.NewTextContent(fmt.Sprintf("Invalid argument: %s: %s", k, issue.Message)))
		}
	}
	if len(contents) == 0 {
		for _, issue := range issues["$first"] {
			contents = append(contents, mcp.NewTextContent(fmt.Sprintf("Invalid argument: %s", issue.Message)))
		}
	}
	return &mcp.CallToolResult{
		Content: contents,
		IsError: true,
	}
}
