package tools

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	imcp "github.com/originlab/originpro/internal/mcp"
	"github.com/originlab/originpro/internal/origin"
)

type OriginListPagesArguments struct {
	Kind string `zog:"kind"`
}

var originListPagesArgumentsSchema = z.Struct(z.Shape{
	"kind": z.String().Default("any"),
})

type pageInfo struct {
	Name     string `json:"name"`
	LongName string `json:"longName"`
	Kind     string `json:"kind"`
	Layers   int    `json:"layers"`
}

func AddOriginListPagesTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_list_pages",
		mcp.WithDescription("List the windows (workbooks, matrix books, graphs, images, notes) in the Origin project"),
		mcp.WithString("kind",
			mcp.Description("Page kind: \"any\" (default), \"w\", \"m\", \"g\", \"i\" or \"n\""),
		),
	), WithRecovery(env.handleListPages))
}

func (e *Env) handleListPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginListPagesArguments{}
	if issues := originListPagesArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	kind, err := origin.ParsePageKind(args.Kind)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("unknown page kind: %s", args.Kind)), nil
	}

	pages, err := origin.ListPages(ctx, e.Conn, kind)
	if err != nil {
		return e.result("origin_list_pages", err)
	}
	infos := make([]pageInfo, 0, len(pages))
	for _, p := range pages {
		info, err := describePage(p)
		p.Close()
		if err != nil {
			return e.result("origin_list_pages", err)
		}
		infos = append(infos, info)
	}

	block, err := jsonBlock(infos)
	if err != nil {
		return nil, err
	}
	result := "# Origin Pages\n"
	result += fmt.Sprintf("Found %d page(s):\n\n", len(infos))
	result += block
	return mcp.NewToolResultText(result), nil
}

func describePage(p *origin.Page) (pageInfo, error) {
	name, err := p.Name()
	if err != nil {
		return pageInfo{}, err
	}
	longName, err := p.LongName()
	if err != nil {
		return pageInfo{}, err
	}
	n, err := p.Len()
	if err != nil {
		return pageInfo{}, err
	}
	return pageInfo{Name: name, LongName: longName, Kind: p.Kind().String(), Layers: n}, nil
}
