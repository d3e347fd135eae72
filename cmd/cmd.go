// Package cmd provides the CLI commands for the banking assistant.
//
// Commands:
//   - serve: HTTP API server with WebSocket chat and the web UI
//   - dashboard: terminal monitoring dashboard polling a running server
//
// Signal handling and graceful shutdown are implemented for all
// commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the teller CLI.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "dashboard":
		return runDashboard()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Teller - conversational banking assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  teller serve [addr]     Start the API server (default: 0.0.0.0:8000)")
	fmt.Println("  teller dashboard [url]  Monitoring dashboard (default: http://127.0.0.1:8000)")
	fmt.Println("  teller --version        Show version information")
	fmt.Println("  teller --help           Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required: Gemini API key")
	fmt.Println("  SESSION_TYPE       Optional: memory, sqlite, or redis (default: memory)")
	fmt.Println("  API_PORT           Optional: listen port (default: 8000)")
	fmt.Println("  DEBUG              Optional: Enable debug logging")
}
