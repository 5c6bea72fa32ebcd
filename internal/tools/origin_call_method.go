package tools

import (
	"context"
	"fmt"
	"strconv"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	imcp "github.com/originlab/originpro/internal/mcp"
	"github.com/originlab/originpro/internal/origin"
)

type OriginCallMethodArguments struct {
	Object string `zog:"object"`
	Method string `zog:"method"`
	Arg    string `zog:"arg"`
	Type   string `zog:"type"`
}

var originCallMethodArgumentsSchema = z.Struct(z.Shape{
	"object": z.String().Required(),
	"method": z.String().Required(),
	"arg":    z.String(),
	"type":   z.String().Default("float"),
})

func AddOriginCallMethodTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_call_method",
		mcp.WithDescription("Call a LabTalk object method and return its result"),
		mcp.WithString("object",
			mcp.Required(),
			mcp.Description("Object reference: a page (\"Book1\") or a layer (\"[Book1]Sheet1\")"),
		),
		mcp.WithString("method",
			mcp.Required(),
			mcp.Description("Method name, e.g. \"load\""),
		),
		mcp.WithString("arg",
			mcp.Description("Argument list passed to the method as-is"),
		),
		mcp.WithString("type",
			mcp.Description("Return type: \"float\" (default), \"int\" or \"str\""),
		),
	), WithRecovery(env.handleCallMethod))
}

func (e *Env) handleCallMethod(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginCallMethodArguments{}
	if issues := originCallMethodArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if !validValueType(args.Type) {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("type must be str, int or float: %s", args.Type)), nil
	}

	obj, err := origin.FindObject(ctx, e.Conn, args.Object)
	if err != nil {
		return e.result("origin_call_method", err)
	}
	defer obj.Close()

	var value string
	switch args.Type {
	case "int":
		var n int
		n, err = obj.MethodInt(args.Method, args.Arg)
		value = strconv.Itoa(n)
	case "str":
		value, err = obj.MethodStr(args.Method, args.Arg)
	default:
		var f float64
		f, err = obj.MethodFloat(args.Method, args.Arg)
		value = strconv.FormatFloat(f, 'g', -1, 64)
	}
	if err != nil {
		return e.result("origin_call_method", err)
	}

	result := "# Notice\n"
	result += fmt.Sprintf("%s.%s(%s) returned:\n\n", args.Object, args.Method, args.Arg)
	result += value + "\n"
	return mcp.NewToolResultText(result), nil
}
