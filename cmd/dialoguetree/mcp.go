package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/dialoguetree/internal/cli"
	"github.com/aretw0/dialoguetree/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes dialogue assets as MCP tools, so AI agents can compile, inspect and edit
dialogue trees.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		backend, err := a.backend(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		srv := mcp.NewServer(a.sessions(backend),
			mcp.WithLogger(a.logger),
			mcp.WithCompileOptions(a.builderOptions()...),
		)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			a.logger.Info("Starting dialoguetree MCP server (stdio)", "store", backend.Kind)
			return srv.ServeStdio()
		case "sse":
			a.logger.Info("Starting dialoguetree MCP server (SSE)", "addr", addr, "store", backend.Kind)
			err := srv.ServeSSE(ctx, addr, "http://localhost"+addr)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
}
