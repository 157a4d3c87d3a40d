package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/modguard/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the moderation queue as tools so agents can flag content, review items and read the audit trail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		a.startNotifications(ctx)

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "modguard MCP server started on stdio (store=%s)\n", a.cfg.StorePath())

		return mcpserver.NewServer(a.svc, a.cfg.DefaultAdmin).Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
