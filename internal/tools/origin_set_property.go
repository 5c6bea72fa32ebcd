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

type OriginSetPropertyArguments struct {
	Object   string `zog:"object"`
	Property string `zog:"property"`
	Value    string `zog:"value"`
	Type     string `zog:"type"`
}

var originSetPropertyArgumentsSchema = z.Struct(z.Shape{
	"object":   z.String().Required(),
	"property": z.String().Required(),
	"value":    z.String(),
	"type":     z.String().Default("str"),
})

func AddOriginSetPropertyTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_set_property",
		mcp.WithDescription("Set a LabTalk property of an Origin object"),
		mcp.WithString("object",
			mcp.Required(),
			mcp.Description("Object reference: a page (\"Book1\") or a layer (\"[Book1]Sheet1\", \"[Graph1]2\")"),
		),
		mcp.WithString("property",
			mcp.Required(),
			mcp.Description("Property name"),
		),
		mcp.WithString("value",
			mcp.Description("New value, parsed according to type"),
		),
		mcp.WithString("type",
			mcp.Description("Value type: \"str\" (default), \"int\" or \"float\""),
		),
	), WithRecovery(env.handleSetProperty))
}

func (e *Env) handleSetProperty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginSetPropertyArguments{}
	if issues := originSetPropertyArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if !validValueType(args.Type) {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("type must be str, int or float: %s", args.Type)), nil
	}

	var set func(*origin.Object) error
	switch args.Type {
	case "int":
		n, err := strconv.Atoi(args.Value)
		if err != nil {
			return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("value is not an integer: %s", args.Value)), nil
		}
		set = func(o *origin.Object) error { return o.SetInt(args.Property, n) }
	case "float":
		f, err := strconv.ParseFloat(args.Value, 64)
		if err != nil {
			return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("value is not a number: %s", args.Value)), nil
		}
		set = func(o *origin.Object) error { return o.SetFloat(args.Property, f) }
	default:
		set = func(o *origin.Object) error { return o.SetStr(args.Property, args.Value) }
	}

	obj, err := origin.FindObject(ctx, e.Conn, args.Object)
	if err != nil {
		return e.result("origin_set_property", err)
	}
	defer obj.Close()

	if err := set(obj); err != nil {
		return e.result("origin_set_property", err)
	}

	result := "# Notice\n"
	result += fmt.Sprintf("Set %s.%s to %s\n", args.Object, args.Property, args.Value)
	return mcp.NewToolResultText(result), nil
}
