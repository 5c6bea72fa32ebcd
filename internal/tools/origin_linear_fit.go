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

type OriginLinearFitArguments struct {
	Sheet        string `zog:"sheet"`
	X            string `zog:"x"`
	Y            string `zog:"y"`
	YErr         string `zog:"yErr"`
	FixSlope     string `zog:"fixSlope"`
	FixIntercept string `zog:"fixIntercept"`
	Report       bool   `zog:"report"`
	Bands        string `zog:"bands"`
}

var originLinearFitArgumentsSchema = z.Struct(z.Shape{
	"sheet":        z.String(),
	"x":            z.String().Default("A"),
	"y":            z.String().Default("B"),
	"yErr":         z.String(),
	"fixSlope":     z.String(),
	"fixIntercept": z.String(),
	"report":       z.Bool().Default(false),
	"bands":        z.String().Default("none"),
})

var linearFitBands = map[string]int{
	"none":       0,
	"confidence": origin.BandConfidence,
	"prediction": origin.BandPrediction,
	"both":       origin.BandConfidence | origin.BandPrediction,
}

func AddOriginLinearFitTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_linear_fit",
		mcp.WithDescription("Run a linear regression in Origin on two worksheet columns"),
		mcp.WithString("sheet",
			mcp.Description("Worksheet holding the data, e.g. \"[Book1]Sheet1\". Uses the active sheet if omitted"),
		),
		mcp.WithString("x",
			mcp.Description("X column short name or 1-based index (default: A)"),
		),
		mcp.WithString("y",
			mcp.Description("Y column short name or 1-based index (default: B)"),
		),
		mcp.WithString("yErr",
			mcp.Description("Optional Y error column used as weights"),
		),
		mcp.WithString("fixSlope",
			mcp.Description("Fix the slope at this value"),
		),
		mcp.WithString("fixIntercept",
			mcp.Description("Fix the intercept at this value"),
		),
		mcp.WithBoolean("report",
			mcp.Description("Generate a report sheet instead of returning the result tree (default: false)"),
		),
		mcp.WithString("bands",
			mcp.Description("Bands drawn in the report graph: \"none\" (default), \"confidence\", \"prediction\" or \"both\""),
		),
	), WithRecovery(env.handleLinearFit))
}

func (e *Env) handleLinearFit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginLinearFitArguments{}
	if issues := originLinearFitArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	bands, ok := linearFitBands[args.Bands]
	if !ok {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("unknown bands: %s", args.Bands)), nil
	}
	slope, err := optionalFloat("fixSlope", args.FixSlope)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}
	intercept, err := optionalFloat("fixIntercept", args.FixIntercept)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}

	wks, err := origin.FindWorksheet(ctx, e.Conn, args.Sheet)
	if err != nil {
		return e.result("origin_linear_fit", err)
	}
	defer wks.Close()

	lr, err := origin.NewLinearFit(ctx, e.Conn)
	if err != nil {
		return e.result("origin_linear_fit", err)
	}
	defer lr.Close()

	if err := lr.SetData(wks, args.X, args.Y, args.YErr); err != nil {
		return e.result("origin_linear_fit", err)
	}
	if slope != nil {
		if err := lr.FixSlope(*slope); err != nil {
			return e.result("origin_linear_fit", err)
		}
	}
	if intercept != nil {
		if err := lr.FixIntercept(*intercept); err != nil {
			return e.result("origin_linear_fit", err)
		}
	}

	result := "# Fit Result\n"
	result += fmt.Sprintf("data: %s\n", wks.XYRange(args.X, args.Y, args.YErr, ""))
	if args.Report {
		report, curves, err := lr.Report(bands)
		if err != nil {
			return e.result("origin_linear_fit", err)
		}
		result += fmt.Sprintf("report: %s\n", report)
		result += fmt.Sprintf("curves: %s\n", curves)
		return mcp.NewToolResultText(result), nil
	}

	values, err := lr.Result()
	if err != nil {
		return e.result("origin_linear_fit", err)
	}
	block, err := jsonBlock(values)
	if err != nil {
		return nil, err
	}
	result += "\n" + block
	return mcp.NewToolResultText(result), nil
}

func optionalFloat(name, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s is not a number: %q", name, s)
	}
	return &f, nil
}
