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

type OriginGetPropertyArguments struct {
	Object   string `zog:"object"`
	Property string `zog:"property"`
	Type     string `zog:"type"`
}

var originGetPropertyArgumentsSchema = z.Struct(z.Shape{
	"object":   z.String().Required(),
	"property": z.String().Required(),
	"type":     z.String().Default("str"),
})

func AddOriginGetPropertyTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_get_property",
		mcp.WithDescription("Read a LabTalk property of an Origin object"),
		mcp.WithString("object",
			mcp.Required(),
			mcp.Description("Object reference: a page (\"Book1\") or a layer (\"[Book1]Sheet1\", \"[Graph1]2\")"),
		),
		mcp.WithString("property",
			mcp.Required(),
			mcp.Description("Property name, e.g. \"name\", \"nrows\", \"cmap.palette\""),
		),
		mcp.WithString("type",
			mcp.Description("Value type: \"str\" (default), \"int\" or \"float\""),
		),
	), WithRecovery(env.handleGetProperty))
}

func (e *Env) handleGetProperty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginGetPropertyArguments{}
	if issues := originGetPropertyArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if !validValueType(args.Type) {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("type must be str, int or float: %s", args.Type)), nil
	}

	obj, err := origin.FindObject(ctx, e.Conn, args.Object)
	if err != nil {
		return e.result("origin_get_property", err)
	}
	defer obj.Close()

	var value string
	switch args.Type {
	case "int":
		var n int
		n, err = obj.GetInt(args.Property)
		value = strconv.Itoa(n)
	case "float":
		var f float64
		f, err = obj.GetFloat(args.Property)
		value = strconv.FormatFloat(f, 'g', -1, 64)
	default:
		value, err = obj.GetStr(args.Property)
	}
	if err != nil {
		return e.result("origin_get_property", err)
	}

	result := "# Notice\n"
	result += fmt.Sprintf("%s.%s (%s)\n\n", args.Object, args.Property, args.Type)
	result += value + "\n"
	return mcp.NewToolResultText(result), nil
}

func validValueType(t string) bool {
	return t == "str" || t == "int" || t == "float"
}
