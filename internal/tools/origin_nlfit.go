package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	imcp "github.com/originlab/originpro/internal/mcp"
	"github.com/originlab/originpro/internal/origin"
)

type OriginNLFitArguments struct {
	Function   string   `zog:"function"`
	Method     string   `zog:"method"`
	Sheet      string   `zog:"sheet"`
	X          string   `zog:"x"`
	Y          string   `zog:"y"`
	YErr       string   `zog:"yErr"`
	XErr       string   `zog:"xErr"`
	Z          string   `zog:"z"`
	Range      string   `zog:"range"`
	Params     []string `zog:"params"`
	Fix        []string `zog:"fix"`
	Iterations int      `zog:"iterations"`
	Report     bool     `zog:"report"`
}

var originNLFitArgumentsSchema = z.Struct(z.Shape{
	"function":   z.String().Required(),
	"method":     z.String().Default(string(origin.MethodAuto)),
	"sheet":      z.String(),
	"x":          z.String().Default("A"),
	"y":          z.String().Default("B"),
	"yErr":       z.String(),
	"xErr":       z.String(),
	"z":          z.String(),
	"range":      z.String(),
	"params":     z.Slice(z.String()),
	"fix":        z.Slice(z.String()),
	"iterations": z.Int().GTE(0).Default(0),
	"report":     z.Bool().Default(false),
})

func AddOriginNLFitTool(server *server.MCPServer, env *Env) {
	server.AddTool(mcp.NewTool("origin_nlfit",
		mcp.WithDescription("Run a non-linear curve fit in Origin with a built-in or user-defined fitting function"),
		mcp.WithString("function",
			mcp.Required(),
			mcp.Description("Fitting function name, e.g. \"Gauss\", \"ExpDec1\""),
		),
		mcp.WithString("method",
			mcp.Description("Iteration method: \"auto\" (default), \"lm\" or \"odr\""),
		),
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
			mcp.Description("Optional Y error column"),
		),
		mcp.WithString("xErr",
			mcp.Description("Optional X error column"),
		),
		mcp.WithString("z",
			mcp.Description("Z column for surface fitting; replaces yErr"),
		),
		mcp.WithString("range",
			mcp.Description("Data as a LabTalk range string, e.g. \"[Book1]1!(1,2)\". Overrides sheet and columns"),
		),
		mcp.WithArray("params",
			mcp.Description("Initial parameter values as \"name=value\""),
			mcp.Items(map[string]any{
				"type": "string",
			}),
		),
		mcp.WithArray("fix",
			mcp.Description("Parameters fixed at a value, as \"name=value\""),
			mcp.Items(map[string]any{
				"type": "string",
			}),
		),
		mcp.WithNumber("iterations",
			mcp.Description("Maximum number of iterations; 0 iterates until convergence (default: 0)"),
		),
		mcp.WithBoolean("report",
			mcp.Description("Generate a report sheet instead of returning the result tree (default: false)"),
		),
	), WithRecovery(env.handleNLFit))
}

func (e *Env) handleNLFit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := OriginNLFitArguments{}
	if issues := originNLFitArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	params, err := parseAssignments(args.Params)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}
	fixed, err := parseAssignments(args.Fix)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}

	fit, err := origin.NewNLFit(ctx, e.Conn, args.Function, origin.FitMethod(args.Method))
	if err != nil {
		return e.result("origin_nlfit", err)
	}
	defer fit.Close()

	var dataOK bool
	if args.Range != "" {
		dataOK, err = fit.SetRange(args.Range)
	} else {
		dataOK, err = e.setNLFitData(ctx, fit, args)
	}
	if err != nil {
		return e.result("origin_nlfit", err)
	}
	if !dataOK {
		return imcp.NewToolResultInvalidArgumentError("Origin rejected the fit data"), nil
	}

	for _, p := range params {
		if err := fit.SetParam(p.name, p.value); err != nil {
			return e.result("origin_nlfit", err)
		}
	}
	for _, p := range fixed {
		if err := fit.FixParamAt(p.name, p.value); err != nil {
			return e.result("origin_nlfit", err)
		}
	}

	converged, err := fit.Fit(args.Iterations)
	if err != nil {
		return e.result("origin_nlfit", err)
	}
	e.Logger.Debug("nlfit finished",
		zap.String("function", fit.Function()),
		zap.Bool("odr", fit.ODR()),
		zap.Bool("converged", converged))

	result := "# Fit Result\n"
	result += fmt.Sprintf("function: %s\n", fit.Function())
	result += fmt.Sprintf("success: %t\n", converged)
	if args.Report {
		report, curves, err := fit.Report(false)
		if err != nil {
			return e.result("origin_nlfit", err)
		}
		result += fmt.Sprintf("report: %s\n", report)
		result += fmt.Sprintf("curves: %s\n", curves)
		return mcp.NewToolResultText(result), nil
	}

	values, err := fit.Result()
	if err != nil {
		return e.result("origin_nlfit", err)
	}
	block, err := jsonBlock(values)
	if err != nil {
		return nil, err
	}
	result += "\n" + block
	return mcp.NewToolResultText(result), nil
}

func (e *Env) setNLFitData(ctx context.Context, fit *origin.NLFit, args OriginNLFitArguments) (bool, error) {
	if args.Z != "" {
		sheet, err := origin.FindSheet(ctx, e.Conn, origin.KindAny, args.Sheet)
		if err != nil {
			return false, err
		}
		defer sheet.Close()
		if sheet.IsMatrix() {
			return fit.SetMatrixData(sheet, args.Z)
		}
	}
	wks, err := origin.FindWorksheet(ctx, e.Conn, args.Sheet)
	if err != nil {
		return false, err
	}
	defer wks.Close()
	return fit.SetData(wks, args.X, args.Y, origin.DataOptions{YErr: args.YErr, XErr: args.XErr, Z: args.Z})
}

type assignment struct {
	name  string
	value float64
}

// parseAssignments parses "name=value" pairs keeping their order.
func parseAssignments(items []string) ([]assignment, error) {
	out := make([]assignment, 0, len(items))
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value: %q", item)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("value of %s is not a number: %q", name, value)
		}
		out = append(out, assignment{name: name, value: f})
	}
	return out, nil
}
