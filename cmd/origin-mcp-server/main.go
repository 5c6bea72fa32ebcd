package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/originlab/originpro/internal/config"
	"github.com/originlab/originpro/internal/logging"
	"github.com/originlab/originpro/internal/origin"
	"github.com/originlab/originpro/internal/server"
	"github.com/originlab/originpro/internal/tools"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "origin-mcp-server",
	Short: "MCP server driving Origin through its automation interface",
	Long: `origin-mcp-server exposes an Origin instance to MCP clients over stdio.

Settings come from the optional --config YAML file and ORIGIN_MCP_*
environment variables. Origin is only started or attached on the first
tool call.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.AddCommand(versionCmd)
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	conn := origin.NewConnection(origin.DialOLE,
		origin.WithLogger(logger),
		origin.WithMode(origin.Mode(cfg.Mode)),
		origin.WithProgID(cfg.ProgID),
		origin.WithReadyTimeout(cfg.ReadyTimeout),
	)
	defer conn.MarkExiting()

	logger.Info("starting origin-mcp-server",
		zap.String("version", version),
		zap.String("mode", cfg.Mode),
		zap.Int("pageSize", cfg.PageSize))

	s := server.New(version, tools.NewEnv(conn, logger, cfg.PageSize))
	if err := s.Start(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
