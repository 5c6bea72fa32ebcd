package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/originlab/originpro/internal/tools"
)

type OriginServer struct {
	server *server.MCPServer
	env    *tools.Env
}

func New(version string, env *tools.Env) *OriginServer {
	s := &OriginServer{env: env}
	s.server = server.NewMCPServer(
		"origin-mcp-server",
		version,
	)
	// Scripting and object access
	tools.AddOriginExecuteTool(s.server, env)
	tools.AddOriginGetPropertyTool(s.server, env)
	tools.AddOriginSetPropertyTool(s.server, env)
	tools.AddOriginCallMethodTool(s.server, env)
	tools.AddOriginGetUserTreeTool(s.server, env)
	tools.AddOriginSetUserTreeTool(s.server, env)
	tools.AddOriginListPagesTool(s.server, env)
	// Worksheet data
	tools.AddOriginImportFileTool(s.server, env)
	tools.AddOriginReadSheetTool(s.server, env)
	tools.AddOriginExportSheetXlsxTool(s.server, env)
	// Analysis
	tools.AddOriginNLFitTool(s.server, env)
	tools.AddOriginLinearFitTool(s.server, env)
	// Images and notes
	tools.AddOriginImageTool(s.server, env)
	tools.AddOriginNotesTool(s.server, env)
	return s
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *OriginServer) MCPServer() *server.MCPServer {
	return s.server
}

func (s *OriginServer) Start() error {
	return server.ServeStdio(s.server)
}
