package tools

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	imcp "github.com/originlab/originpro/internal/mcp"
	"github.com/originlab/originpro/internal/origin"
	"github.com/originlab/originpro/internal/tree"
)

type OriginGetUserTreeArguments struct {
	Object string `zog:"object"`
}

var originGetUserTreeArgumentsSchema = z.Struct(z.Shape{
	"object": z.String().Required(),
})

func AddOriginGetUserTreeTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_get_user_tree",
		mcp.WithDescription("Read the user-defined properties (user tree) of an Origin object as JSON"),
		mcp.WithString("object",
			mcp.Required(),
			mcp.Description("Object reference: a page (\"Book1\") or a layer (\"[Book1]Sheet1\")"),
		),
	), WithRecovery(env.handleGetUserTree))
}

func (e *Env) handleGetUserTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginGetUserTreeArguments{}
	if issues := originGetUserTreeArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}

	obj, err := origin.FindObject(ctx, e.Conn, args.Object)
	if err != nil {
		return e.result("origin_get_user_tree", err)
	}
	defer obj.Close()

	props, err := obj.UserProps()
	if err != nil {
		return e.result("origin_get_user_tree", err)
	}
	block, err := jsonBlock(props)
	if err != nil {
		return nil, err
	}

	result := "# User Tree\n"
	result += fmt.Sprintf("Found %d top-level item(s) on %s.\n\n", len(props), args.Object)
	result += block
	return mcp.NewToolResultText(result), nil
}

type OriginSetUserTreeArguments struct {
	Object string `zog:"object"`
	Tree   string `zog:"tree"`
}

var originSetUserTreeArgumentsSchema = z.Struct(z.Shape{
	"object": z.String().Required(),
	"tree":   z.String().Required(),
})

func AddOriginSetUserTreeTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_set_user_tree",
		mcp.WithDescription("Replace the user-defined properties (user tree) of an Origin object"),
		mcp.WithString("object",
			mcp.Required(),
			mcp.Description("Object reference: a page (\"Book1\") or a layer (\"[Book1]Sheet1\")"),
		),
		mcp.WithString("tree",
			mcp.Required(),
			mcp.Description("Tree as XML, e.g. <OriginStorage><Batch>A7</Batch></OriginStorage>"),
		),
	), WithRecovery(env.handleSetUserTree))
}

func (e *Env) handleSetUserTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginSetUserTreeArguments{}
	if issues := originSetUserTreeArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	root, err := tree.Parse(args.Tree)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}

	obj, err := origin.FindObject(ctx, e.Conn, args.Object)
	if err != nil {
		return e.result("origin_set_user_tree", err)
	}
	defer obj.Close()

	if err := obj.SetUserTree(root); err != nil {
		return e.result("origin_set_user_tree", err)
	}

	result := "# Notice\n"
	result += fmt.Sprintf("Set user tree of %s with %d top-level item(s).\n", args.Object, len(root.ChildElements()))
	return mcp.NewToolResultText(result), nil
}
