package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/lexandro/codecontext-mcp/config"
	"github.com/lexandro/codecontext-mcp/register"
	"github.com/lexandro/codecontext-mcp/render"
	"github.com/lexandro/codecontext-mcp/selection"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "codecontext-mcp",
		Usage:  "MCP server that selects the project files relevant to a coding request",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (optional)",
				Sources: cli.EnvVars("CODECONTEXT_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "Project root directory (default: current working directory)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Extra ignore pattern (repeatable)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug|info|warn|error",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path, or \"stderr\" (default: codecontext-mcp.log in the root directory)",
			},
			&cli.StringFlag{
				Name:  "transport",
				Usage: "MCP transport: stdio|http",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve MCP tools (default)",
				Action: serve,
			},
			{
				Name:   "select",
				Usage:  "Select and print the context for one request",
				Action: selectOnce,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "The request to select files for",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "budget",
						Usage: "Token budget of the printed block (default from config)",
					},
				},
			},
			{
				Name:      "register",
				Usage:     "Register this server in an MCP client configuration",
				ArgsUsage: "[-- server args...]",
				Action:    registerServer,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scope",
						Usage: "project (<dir>/.mcp.json) or user (~/.claude.json)",
						Value: register.ScopeProject,
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Project directory for the project scope",
						Value: ".",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Server name (default derived from the binary name)",
					},
				},
			},
		},
	}
}

// loadConfig builds the configuration from defaults, the optional config file and flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if err := config.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if root := cmd.String("root"); root != "" {
		cfg.Workspace.Root = root
	} else if cfg.Workspace.Root == "" || cfg.Workspace.Root == "." {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		cfg.Workspace.Root = wd
	}
	root, err := filepath.Abs(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	cfg.Workspace.Root = root

	cfg.Workspace.Excludes = append(cfg.Workspace.Excludes, cmd.StringSlice("exclude")...)
	if level := cmd.String("log-level"); level != "" {
		cfg.App.LogLevel = parseLevel(level)
	}
	if logFile := cmd.String("log-file"); logFile != "" {
		cfg.App.LogFile = logFile
	}
	if transport := cmd.String("transport"); transport != "" {
		cfg.App.Transport = transport
	}
	if cfg.App.LogFile == "" {
		cfg.App.LogFile = filepath.Join(root, "codecontext-mcp.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Logs go to a file or stderr, never to stdout: stdout carries the stdio transport.
	logger, closeLog := setupLogger(cfg.App.LogLevel, cfg.App.LogFile)
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting codecontext-mcp",
		"root", cfg.Workspace.Root,
		"transport", cfg.App.Transport,
		"maxFileSize", cfg.Workspace.MaxFileSizeBytes,
		"provider", cfg.Ranker.Provider,
	)

	app, err := newApplication(WithConfig(cfg), WithLogger(logger))
	if err != nil {
		return err
	}
	defer app.close()

	return app.run(ctx)
}

// selectOnce runs one selection against the root and prints the rendered block to stdout.
func selectOnce(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Workspace.Watch = false

	logger, closeLog := setupLogger(cfg.App.LogLevel, cfg.App.LogFile)
	defer closeLog()

	app, err := newApplication(WithConfig(cfg), WithLogger(logger))
	if err != nil {
		return err
	}
	defer app.close()

	if _, err := app.load(ctx); err != nil {
		return err
	}

	result, err := app.pipeline.Select(ctx, selection.Request{
		Query: cmd.String("query"),
		Files: app.workspace.Snapshot(),
	})
	if err != nil {
		return fmt.Errorf("selection failed (%s): %w", selection.Classify(err), err)
	}

	options := app.renderOptions()
	if budget := int(cmd.Int("budget")); budget > 0 {
		options.Budget = budget
	}
	rendered := render.Render(result.Files, options)

	fmt.Fprintf(os.Stderr, "selected %d files, rendered %d (~%d tokens)\n",
		len(result.Paths), len(rendered.Included), rendered.Tokens)
	_, err = fmt.Fprint(os.Stdout, rendered.Text)
	return err
}

// registerServer writes the launch entry for this binary. Arguments after "--" are
// forwarded to the server.
func registerServer(ctx context.Context, cmd *cli.Command) error {
	configPath, err := register.Register(register.Options{
		Scope:      cmd.String("scope"),
		Directory:  cmd.String("dir"),
		ServerName: cmd.String("name"),
		ServerArgs: cmd.Args().Slice(),
	})
	if err != nil {
		return fmt.Errorf("register failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Registered in %s\n", configPath)
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger creates an slog.Logger writing to stderr or a file. The returned
// function closes the file.
func setupLogger(level slog.Level, logFile string) (*slog.Logger, func()) {
	writer := os.Stderr
	closeFn := func() {}
	if logFile != "" && logFile != "stderr" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
		} else {
			writer = f
			closeFn = func() { f.Close() }
		}
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closeFn
}
