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

type OriginNotesArguments struct {
	Action string `zog:"action"`
	Name   string `zog:"name"`
	Text   string `zog:"text"`
	Path   string `zog:"path"`
	Create bool   `zog:"create"`
}

var originNotesArgumentsSchema = z.Struct(z.Shape{
	"action": z.String().Required(),
	"name":   z.String(),
	"text":   z.String(),
	"path":   z.String().Test(AbsolutePathTest()),
	"create": z.Bool().Default(false),
})

func AddOriginNotesTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_notes",
		mcp.WithDescription("Read and write Origin notes windows"),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("\"read\", \"write\" (replace the text), \"append\" (add a line), \"load\" a file or \"export_html\""),
		),
		mcp.WithString("name",
			mcp.Description("Notes window name. Uses the active window if omitted"),
		),
		mcp.WithString("text",
			mcp.Description("Text for \"write\" and \"append\""),
		),
		mcp.WithString("path",
			mcp.Description("Absolute file path for \"load\" and \"export_html\""),
		),
		mcp.WithBoolean("create",
			mcp.Description("Create a new notes window, named by name when given (default: false)"),
		),
	), WithRecovery(env.handleNotes))
}

func (e *Env) handleNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginNotesArguments{}
	if issues := originNotesArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	switch args.Action {
	case "load", "export_html":
		if args.Path == "" {
			return imcp.NewToolResultInvalidArgumentError("path is required for action " + args.Action), nil
		}
	case "read", "write", "append":
	default:
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("unknown action: %s", args.Action)), nil
	}

	var notes *origin.Notes
	var err error
	if args.Create {
		notes, err = origin.NewNotes(ctx, e.Conn, "")
		if err == nil && args.Name != "" {
			err = notes.SetName(args.Name)
		}
	} else {
		notes, err = origin.FindNotes(ctx, e.Conn, args.Name)
	}
	if err != nil {
		if notes != nil {
			notes.Close()
		}
		return e.result("origin_notes", err)
	}
	defer notes.Close()

	result := "# Notice\n"
	switch args.Action {
	case "read":
		text, err := notes.Text()
		if err != nil {
			return e.result("origin_notes", err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("# Notes %s\n\n%s\n", notes, text)), nil
	case "write":
		err = notes.SetText(args.Text)
		result += fmt.Sprintf("Wrote %d characters to %s\n", len(args.Text), notes)
	case "append":
		err = notes.Append(args.Text, true)
		result += fmt.Sprintf("Appended %d characters to %s\n", len(args.Text), notes)
	case "load":
		var code int
		code, err = notes.Load(args.Path, false)
		result += fmt.Sprintf("Loaded %s into %s (code %d)\n", args.Path, notes, code)
	case "export_html":
		var code int
		code, err = notes.ExportHTML(args.Path)
		result += fmt.Sprintf("Exported %s to %s (code %d)\n", notes, args.Path, code)
	}
	if err != nil {
		return e.result("origin_notes", err)
	}
	return mcp.NewToolResultText(result), nil
}
