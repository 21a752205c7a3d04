package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/sprite-avatar-mcp/internal/config"
	"github.com/ironsheep/sprite-avatar-mcp/internal/server"
	"github.com/ironsheep/sprite-avatar-mcp/internal/version"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Print(version.String(server.ServerName))
			return
		case "--help", "-h", "help":
			fmt.Println("sprite-avatar-mcp - MCP server that turns 2x2 sprite sheets into avatar frames")
			fmt.Println()
			fmt.Println("Usage: sprite-avatar-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  AVATAR_MCP_LOG_LEVEL=debug           Log level (trace, debug, info, warn, error)")
			fmt.Println("  AVATAR_MCP_STORE_DIR=/path           Save exported frames here (default: in memory)")
			fmt.Println("  AVATAR_MCP_FONT=/path/font.ttf       Caption font (default: Go Regular)")
			fmt.Println("  AVATAR_MCP_OUTLINE_COLOR=#ffffff     Caption outline colour")
			fmt.Println("  AVATAR_MCP_FILL_COLOR=#000000        Caption fill colour")
			fmt.Println("  AVATAR_MCP_MAX_SOURCE_BYTES=4194304  Largest accepted sprite sheet")
			fmt.Println("  AVATAR_MCP_FETCH_TIMEOUT=10s         Timeout for http(s) sources")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Log to stderr (stdout is for MCP protocol)
	logger := cfg.NewLogger(server.ServerName, os.Stderr)
	logger.Debug("starting", "version", version.Version, "built", version.BuildTime, "commit", version.GitCommit)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
