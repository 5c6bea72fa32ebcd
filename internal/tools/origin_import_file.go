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

type OriginImportFileArguments struct {
	FileAbsolutePath string `zog:"fileAbsolutePath"`
	Sheet            string `zog:"sheet"`
	Connector        string `zog:"connector"`
	KeepConnector    bool   `zog:"keepConnector"`
	Select           string `zog:"select"`
	Sparklines       bool   `zog:"sparklines"`
	NewBook          bool   `zog:"newBook"`
}

var originImportFileArgumentsSchema = z.Struct(z.Shape{
	"fileAbsolutePath": z.String().Test(AbsolutePathTest()).Required(),
	"sheet":            z.String(),
	"connector":        z.String(),
	"keepConnector":    z.Bool().Default(false),
	"select":           z.String(),
	"sparklines":       z.Bool().Default(false),
	"newBook":          z.Bool().Default(false),
})

func AddOriginImportFileTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_import_file",
		mcp.WithDescription("Import a data file into an Origin worksheet through a data connector"),
		mcp.WithString("fileAbsolutePath",
			mcp.Required(),
			mcp.Description("Absolute path to the data file"),
		),
		mcp.WithString("sheet",
			mcp.Description("Target worksheet, e.g. \"[Book1]Sheet1\". Uses the active sheet if omitted"),
		),
		mcp.WithString("connector",
			mcp.Description("Data connector name, e.g. \"Import Filter\". Picked from the file extension (csv or excel) if omitted"),
		),
		mcp.WithBoolean("keepConnector",
			mcp.Description("Keep the data connector in the book after importing (default: false)"),
		),
		mcp.WithString("select",
			mcp.Description("Connector-specific selection inside the file, e.g. a sheet of an Excel file"),
		),
		mcp.WithBoolean("sparklines",
			mcp.Description("Follow the GUI sparklines setting instead of turning sparklines off (default: false)"),
		),
		mcp.WithBoolean("newBook",
			mcp.Description("Import into a new workbook instead of an existing sheet (default: false)"),
		),
	), WithRecovery(env.handleImportFile))
}

func (e *Env) handleImportFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginImportFileArguments{}
	if issues := originImportFileArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if args.Connector == "" {
		if _, err := origin.ConnectorForFile(args.FileAbsolutePath); err != nil {
			return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
		}
	}

	sheet, err := e.importTarget(ctx, args.Sheet, args.NewBook)
	if err != nil {
		return e.result("origin_import_file", err)
	}
	defer sheet.Close()

	ok, err := sheet.FromFile(args.FileAbsolutePath, origin.FileImport{
		Connector:  args.Connector,
		KeepDC:     args.KeepConnector,
		Select:     args.Select,
		Sparklines: args.Sparklines,
	})
	if err != nil {
		return e.result("origin_import_file", err)
	}
	rows, cols, err := sheet.Shape()
	if err != nil {
		return e.result("origin_import_file", err)
	}

	result := "# Notice\n"
	result += fmt.Sprintf("success: %t\n", ok)
	result += fmt.Sprintf("Imported %s into %s (%d rows x %d columns)\n", args.FileAbsolutePath, sheet.LTRange(true), rows, cols)
	return mcp.NewToolResultText(result), nil
}

func (e *Env) importTarget(ctx context.Context, ref string, newBook bool) (*origin.Sheet, error) {
	if !newBook {
		return origin.FindSheet(ctx, e.Conn, origin.KindWorkbook, ref)
	}
	book, err := origin.NewBook(ctx, e.Conn, origin.KindWorkbook, "", "")
	if err != nil {
		return nil, err
	}
	defer book.Close()
	return book.Sheet(ctx, 0)
}
