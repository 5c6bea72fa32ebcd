package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zconst"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	imcp "github.com/originlab/originpro/internal/mcp"
	"github.com/originlab/originpro/internal/origin"
)

// Env is shared by every Origin tool handler.
type Env struct {
	Conn   *origin.Connection
	Logger *zap.Logger
	// PageSize is the number of cells per page returned by origin_read_sheet.
	PageSize int
}

// NewEnv returns an Env; a nil logger discards output.
func NewEnv(conn *origin.Connection, logger *zap.Logger, pageSize int) *Env {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Env{Conn: conn, Logger: logger, PageSize: pageSize}
}

// callerErrors are the failures caused by the tool arguments rather than by
// Origin or the connection.
var callerErrors = []error{
	origin.ErrInvalidHandle,
	origin.ErrInvalidFunction,
	origin.ErrInvalidMethod,
	origin.ErrInvalidArgument,
	origin.ErrUnsupportedType,
	origin.ErrNotFound,
	origin.ErrAlreadyEnded,
}

// result turns err into an invalid-argument result when the caller caused
// it, and passes anything else through as a tool failure.
func (e *Env) result(tool string, err error) (*mcp.CallToolResult, error) {
	for _, target := range callerErrors {
		if errors.Is(err, target) {
			return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
		}
	}
	e.Logger.Warn("Origin call failed", zap.String("tool", tool), zap.Error(err))
	return nil, err
}

// withHost runs fn under a temporary connection reference.
func (e *Env) withHost(ctx context.Context, fn func(origin.Host) error) error {
	host, err := e.Conn.Acquire(ctx)
	if err != nil {
		return err
	}
	defer e.Conn.Release()
	return fn(host)
}

// AbsolutePathTest rejects paths that are not absolute.
func AbsolutePathTest() z.Test[*string] {
	return z.TestFunc(zconst.IssueCodeCustom, func(val *string, ctx z.Ctx) bool {
		return filepath.IsAbs(*val)
	}, z.Message("must be an absolute path"))
}

func jsonBlock(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return "```json\n" + string(data) + "\n```\n", nil
}
