package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ironsheep/boundary-mcp/internal/config"
	"github.com/ironsheep/boundary-mcp/internal/logger"
	"github.com/ironsheep/boundary-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var configPath string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--version" || arg == "-v" || arg == "version":
			fmt.Printf("boundary-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case arg == "--help" || arg == "-h" || arg == "help":
			printHelp()
			return
		case arg == "--config" || arg == "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a file path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		default:
			fmt.Fprintf(os.Stderr, "unknown option: %s\n", arg)
			os.Exit(2)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Validate already accepted the level name.
	level, _ := logger.ParseLevel(cfg.LogLevel)

	// Log to stderr; stdout is for MCP protocol
	log := logger.NewConsoleLogger(os.Stderr, level)
	log.Debug("main", "starting", logger.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
		"config":     configPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Version = Version
	srv := server.New(cfg, log)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("main", fmt.Errorf("server error: %w", err), nil)
		stop()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("boundary-mcp - MCP server for tile boundary extraction")
	fmt.Println()
	fmt.Println("Usage: boundary-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c FILE    Load YAML configuration from FILE")
	fmt.Println("  --version, -v        Print version information")
	fmt.Println("  --help, -h           Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (override the configuration file):")
	fmt.Printf("  %s=N         Tile edge in pixels (default 4)\n", config.EnvTileSize)
	fmt.Printf("  %s=F        Activation threshold (default 30)\n", config.EnvThreshold)
	fmt.Printf("  %s=N        Minimum interior chain length (default 3)\n", config.EnvMinLength)
	fmt.Printf("  %s=N           Feature reduction workers (default GOMAXPROCS)\n", config.EnvWorkers)
	fmt.Printf("  %s=LEVEL     debug, info, warn, error or off\n", config.EnvLogLevel)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
