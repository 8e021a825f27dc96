package main

import (
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deepxiv/deepxiv-go/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the paper tools over MCP on stdin/stdout",
	Long: `serve exposes search_papers, get_paper, get_section, and get_preview as
MCP tools over stdio, for hosts such as Claude Desktop. All diagnostics go
to stderr; stdout carries only the protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newReader(cmd)
		if err != nil {
			return err
		}

		logger.Info("Starting MCP server", zap.String("version", version))
		return mcpserver.ServeStdio(mcpserver.New(r, version))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
