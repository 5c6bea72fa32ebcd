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

type OriginExecuteArguments struct {
	LabTalk string `zog:"labTalk"`
	Object  string `zog:"object"`
}

var originExecuteArgumentsSchema = z.Struct(z.Shape{
	"labTalk": z.String().Required(),
	"object":  z.String(),
})

func AddOriginExecuteTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_execute",
		mcp.WithDescription("Run LabTalk script in Origin, globally or in the scope of an object"),
		mcp.WithString("labTalk",
			mcp.Required(),
			mcp.Description("LabTalk statement(s) to run"),
		),
		mcp.WithString("object",
			mcp.Description("Object to run in, e.g. \"Book1\" or \"[Book1]Sheet1\". Runs globally if omitted"),
		),
	), WithRecovery(env.handleExecute))
}

func (e *Env) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginExecuteArguments{}
	if issues := originExecuteArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}

	var ok bool
	var err error
	if args.Object == "" {
		err = e.withHost(ctx, func(host origin.Host) error {
			ok, err = host.Execute(args.LabTalk)
			return err
		})
	} else {
		var obj *origin.Object
		obj, err = origin.FindObject(ctx, e.Conn, args.Object)
		if err == nil {
			defer obj.Close()
			ok, err = obj.Exec(args.LabTalk)
		}
	}
	if err != nil {
		return e.result("origin_execute", err)
	}

	result := "# Notice\n"
	result += fmt.Sprintf("success: %t\n", ok)
	if !ok {
		result += "Origin reported a failure running the script.\n"
	}
	return mcp.NewToolResultText(result), nil
}
