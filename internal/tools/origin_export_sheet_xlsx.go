package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xuri/excelize/v2"

	imcp "github.com/originlab/originpro/internal/mcp"
	"github.com/originlab/originpro/internal/origin"
)

type OriginExportSheetXlsxArguments struct {
	Sheet      string `zog:"sheet"`
	OutputPath string `zog:"outputPath"`
	SheetName  string `zog:"sheetName"`
}

var originExportSheetXlsxArgumentsSchema = z.Struct(z.Shape{
	"sheet":      z.String(),
	"outputPath": z.String().Test(AbsolutePathTest()).Required(),
	"sheetName":  z.String(),
})

func AddOriginExportSheetXlsxTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_export_sheet_xlsx",
		mcp.WithDescription("Export the values of an Origin worksheet to a new Excel file"),
		mcp.WithString("sheet",
			mcp.Description("Worksheet, e.g. \"[Book1]Sheet1\". Uses the active sheet if omitted"),
		),
		mcp.WithString("outputPath",
			mcp.Required(),
			mcp.Description("Absolute path for the output .xlsx file"),
		),
		mcp.WithString("sheetName",
			mcp.Description("Name of the sheet in the Excel file. Uses the Origin sheet name if omitted"),
		),
	), WithRecovery(env.handleExportSheetXlsx))
}

func (e *Env) handleExportSheetXlsx(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginExportSheetXlsxArguments{}
	if issues := originExportSheetXlsxArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	wks, err := origin.FindWorksheet(ctx, e.Conn, args.Sheet)
	if err != nil {
		return e.result("origin_export_sheet_xlsx", err)
	}
	defer wks.Close()

	sheetName := args.SheetName
	if sheetName == "" {
		if sheetName, err = wks.Name(); err != nil {
			return e.result("origin_export_sheet_xlsx", err)
		}
	}
	_, cols, err := wks.Shape()
	if err != nil {
		return e.result("origin_export_sheet_xlsx", err)
	}

	file := excelize.NewFile()
	defer file.Close()
	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}
	rowCount := 0
	for col := 0; col < cols; col++ {
		data, err := wks.ColumnData(col, 0, -1)
		if err != nil {
			return e.result("origin_export_sheet_xlsx", err)
		}
		values := cells(data)
		if len(values) > rowCount {
			rowCount = len(values)
		}
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := file.SetSheetCol(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write column %d: %w", col+1, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(args.OutputPath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := file.SaveAs(args.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to save Excel file: %w", err)
	}

	result := "# Notice\n"
	result += fmt.Sprintf("Exported %d rows x %d columns from %s to %s\n", rowCount, cols, wks.LTRange(true), args.OutputPath)
	return mcp.NewToolResultText(result), nil
}
