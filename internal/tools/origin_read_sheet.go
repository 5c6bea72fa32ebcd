package tools

import (
	"context"
	"fmt"
	"math"
	"reflect"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	imcp "github.com/originlab/originpro/internal/mcp"
	"github.com/originlab/originpro/internal/origin"
)

type OriginReadSheetArguments struct {
	Sheet string `zog:"sheet"`
	Rows  string `zog:"rows"`
}

var originReadSheetArgumentsSchema = z.Struct(z.Shape{
	"sheet": z.String(),
	"rows":  z.String(),
})

func AddOriginReadSheetTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_read_sheet",
		mcp.WithDescription("Read worksheet values page by page. Large sheets are split into pages of rows; the response names the next page"),
		mcp.WithString("sheet",
			mcp.Description("Worksheet, e.g. \"[Book1]Sheet1\" or \"[Book1]2\". Uses the active sheet if omitted"),
		),
		mcp.WithString("rows",
			mcp.Description("1-based row page as \"first:last\", taken from a previous response. Reads the first page if omitted"),
		),
	), WithRecovery(env.handleReadSheet))
}

func (e *Env) handleReadSheet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginReadSheetArguments{}
	if issues := originReadSheetArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}

	wks, err := origin.FindWorksheet(ctx, e.Conn, args.Sheet)
	if err != nil {
		return e.result("origin_read_sheet", err)
	}
	defer wks.Close()

	rows, cols, err := wks.Shape()
	if err != nil {
		return e.result("origin_read_sheet", err)
	}
	pages := origin.RowPages(rows, cols, e.PageSize)
	if len(pages) == 0 {
		result := "# Notice\n"
		result += fmt.Sprintf("%s is empty\n", wks.LTRange(true))
		return mcp.NewToolResultText(result), nil
	}

	page := pages[0]
	if args.Rows != "" {
		if page, err = origin.ParseRowPage(args.Rows); err != nil {
			return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
		}
		if page.Last >= rows {
			return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("rows %s is outside of %d rows", page, rows)), nil
		}
	}

	table := make([][]any, page.Last-page.First+1)
	for i := range table {
		table[i] = make([]any, cols)
	}
	for col := 0; col < cols; col++ {
		data, err := wks.ColumnData(col, page.First, page.Last)
		if err != nil {
			return e.result("origin_read_sheet", err)
		}
		fillColumn(table, col, data)
	}

	block, err := jsonBlock(table)
	if err != nil {
		return nil, err
	}
	result := "# Sheet Data\n"
	result += fmt.Sprintf("sheet: %s\n", wks.LTRange(true))
	result += fmt.Sprintf("shape: %d rows x %d columns\n", rows, cols)
	result += fmt.Sprintf("rows: %s\n", page)
	if next, ok := origin.NextPage(pages, page); ok {
		result += fmt.Sprintf("next page: %s\n", next)
	} else if page.Last < rows-1 {
		for _, p := range origin.RemainingPages(pages, []origin.RowPage{page}) {
			if p.First > page.Last {
				result += fmt.Sprintf("next page: %s\n", p)
				break
			}
		}
	}
	result += "\n" + block
	return mcp.NewToolResultText(result), nil
}

// fillColumn copies a typed column slice into column col of table.
func fillColumn(table [][]any, col int, data any) {
	for i, cell := range cells(data) {
		if i >= len(table) {
			break
		}
		table[i][col] = cell
	}
}

// cells flattens a typed column slice. Missing numeric values become nil.
func cells(data any) []any {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, v.Len())
	for i := range out {
		cell := v.Index(i).Interface()
		switch f := cell.(type) {
		case float64:
			if math.IsNaN(f) || math.IsInf(f, 0) {
				cell = nil
			}
		case float32:
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				cell = nil
			}
		}
		out[i] = cell
	}
	return out
}
