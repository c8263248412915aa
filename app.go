package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/codecontext-mcp/cache"
	"github.com/lexandro/codecontext-mcp/config"
	"github.com/lexandro/codecontext-mcp/ignore"
	"github.com/lexandro/codecontext-mcp/project"
	"github.com/lexandro/codecontext-mcp/ranker"
	"github.com/lexandro/codecontext-mcp/relevance"
	"github.com/lexandro/codecontext-mcp/render"
	"github.com/lexandro/codecontext-mcp/selection"
	"github.com/lexandro/codecontext-mcp/server"
	"github.com/lexandro/codecontext-mcp/tools"
	"github.com/lexandro/codecontext-mcp/watcher"
	"github.com/lexandro/codecontext-mcp/workspace"
)

const shutdownTimeout = 10 * time.Second

// Option is a functional option for configuring the application.
type Option func(*application)

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithRanker replaces the configured model provider.
func WithRanker(r ranker.Ranker) Option {
	return func(a *application) {
		a.ranker = r
	}
}

type application struct {
	config    *config.Config
	logger    *slog.Logger
	ranker    ranker.Ranker
	startTime time.Time

	workspace  *workspace.Workspace
	selections *cache.Cache[project.Collection]
	indexes    *cache.Cache[*relevance.Index]
	index      *relevance.CachedIndex
	pipeline   *selection.Pipeline

	ready atomic.Bool
}

// newApplication wires the workspace, caches, relevance index and selection pipeline.
// Nothing is loaded from disk yet.
func newApplication(opts ...Option) (*application, error) {
	a := &application{startTime: time.Now()}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, errors.New("config is required")
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	cfg := a.config

	rootDir, err := filepath.Abs(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", cfg.Workspace.Root, err)
	}

	ignoreMatcher := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:          rootDir,
		CustomPatterns:   cfg.Workspace.Excludes,
		MaxFileSizeBytes: cfg.Workspace.MaxFileSizeBytes,
	})
	a.workspace, err = workspace.New(workspace.Options{
		RootDir: rootDir,
		Ignore:  ignoreMatcher,
		Logger:  a.logger.With("component", "workspace"),
	})
	if err != nil {
		return nil, fmt.Errorf("init workspace: %w", err)
	}

	cacheOptions := cache.Options{
		MaxEntries:    cfg.Cache.MaxEntries,
		DefaultTTL:    cfg.Cache.DefaultTTL,
		SweepInterval: cfg.Cache.SweepInterval,
	}
	cacheOptions.Logger = a.logger.With("component", "selection-cache")
	a.selections = cache.New[project.Collection](cacheOptions)
	cacheOptions.Logger = a.logger.With("component", "index-cache")
	a.indexes = cache.New[*relevance.Index](cacheOptions)

	a.index = relevance.NewCachedIndex(relevance.CachedIndexOptions{
		Store:  a.indexes,
		TTL:    cfg.Index.TTL,
		Logger: a.logger.With("component", "relevance"),
	})

	if a.ranker == nil {
		a.ranker = newRanker(cfg.Ranker, a.logger)
	}
	a.pipeline = selection.New(selection.Options{
		Cache:            a.selections,
		Index:            a.index,
		Ranker:           a.ranker,
		TTL:              cfg.Selection.TTL,
		CandidateCeiling: cfg.Selection.CandidateCeiling,
		RecentTurnWindow: cfg.Selection.RecentTurnWindow,
		MaxIncluded:      cfg.Selection.MaxIncluded,
		HashMode:         project.HashMode(cfg.Selection.HashMode),
		Logger:           a.logger.With("component", "selection"),
	})

	return a, nil
}

// newRanker creates the configured provider. A provider that cannot be created is
// replaced by one that always fails, so the tools that need no model keep working.
func newRanker(cfg config.RankerConfig, logger *slog.Logger) ranker.Ranker {
	options := cfg.Options()
	options.System = selection.SystemPrompt
	r, err := ranker.New(options)
	if err != nil {
		logger.Warn("ranker unavailable, context selection will fail", "provider", cfg.Provider, "error", err)
		return ranker.Func(func(ctx context.Context, prompt string) (string, error) {
			return "", fmt.Errorf("ranker not configured: %w", err)
		})
	}
	logger.Info("ranker configured", "provider", cfg.Provider, "model", cfg.Model)
	return r
}

func (a *application) renderOptions() render.Options {
	return render.Options{
		Budget:         a.config.Render.Budget,
		PerFileCeiling: a.config.Render.PerFileCeiling,
	}
}

// load performs the initial workspace load and marks the application ready.
func (a *application) load(ctx context.Context) (workspace.LoadResult, error) {
	result, err := a.workspace.Load(ctx)
	if err != nil {
		return result, fmt.Errorf("loading workspace: %w", err)
	}
	a.ready.Store(true)
	a.logger.Info("initial load complete",
		"files", result.Files,
		"totalSize", result.Bytes,
		"skipped", result.Skipped,
		"duration", result.Duration,
	)
	return result, nil
}

// reindex reloads the workspace from scratch and drops every derived result.
func (a *application) reindex(ctx context.Context) (workspace.LoadResult, error) {
	a.ready.Store(false)
	defer a.ready.Store(true)

	result, err := a.workspace.Reload(ctx)
	if err != nil {
		return result, fmt.Errorf("reloading workspace: %w", err)
	}
	a.invalidate()
	return result, nil
}

// invalidate drops cached selections and every built relevance index. A same-size edit
// keeps the collection hash, so cached indexes must go too.
func (a *application) invalidate() {
	removed := a.pipeline.InvalidateCache()
	indexes := a.index.Purge()
	a.logger.Debug("invalidated derived state", "selections", removed, "indexes", indexes)
}

func (a *application) handlers() server.Handlers {
	return server.Handlers{
		Select: &tools.SelectHandler{
			Workspace:      a.workspace,
			Pipeline:       a.pipeline,
			RenderDefaults: a.renderOptions(),
			Logger:         a.logger,
		},
		Render: &tools.RenderHandler{Workspace: a.workspace, Defaults: a.renderOptions(), Logger: a.logger},
		Rank: &tools.RankHandler{
			Workspace: a.workspace,
			Index:     a.index,
			HashMode:  project.HashMode(a.config.Selection.HashMode),
			Logger:    a.logger,
		},
		Search: &tools.SearchHandler{Workspace: a.workspace, Logger: a.logger},
		Files:  &tools.FilesHandler{Files: a.workspace.Files, Logger: a.logger},
		Read:   &tools.ReadHandler{Content: a.workspace.Content, Logger: a.logger},
		Status: &tools.StatusHandler{
			Workspace:      a.workspace,
			Pipeline:       a.pipeline,
			SelectionCache: a.selections,
			IndexCache:     a.indexes,
			Index:          a.index,
			StartTime:      a.startTime,
			Logger:         a.logger,
		},
		Reindex: &tools.ReindexHandler{DoReindex: a.reindex, Logger: a.logger},
	}
}

// run loads the workspace, starts live updates and serves MCP until ctx is done or
// the stdio client disconnects.
func (a *application) run(ctx context.Context) error {
	cfg := a.config

	if _, err := a.load(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Workspace.Watch {
		fileWatcher, err := watcher.New(watcher.Options{
			RootDir: a.workspace.Root(),
			Ignore:  a.workspace.Ignore(),
			Logger:  a.logger.With("component", "watcher"),
		})
		if err != nil {
			a.logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
		} else {
			defer fileWatcher.Close()
			g.Go(func() error {
				fileWatcher.Run(gCtx)
				return nil
			})
			g.Go(func() error {
				a.consumeChanges(gCtx, fileWatcher.Changes())
				return nil
			})
		}
	}

	if interval := cfg.Workspace.SyncInterval(); interval > 0 {
		g.Go(func() error {
			a.workspace.RunPeriodicReconcile(gCtx, interval, func(result workspace.ReconcileResult) {
				a.applied(result.Changed)
			})
			return nil
		})
	}

	mcpServer := server.Setup(a.handlers())

	switch cfg.App.Transport {
	case config.TransportHTTP:
		a.serveHTTP(g, gCtx, cancel, mcpServer)
	default:
		g.Go(func() error {
			defer cancel()
			a.logger.Info("MCP server starting on stdio")
			if err := mcpServer.Run(gCtx, &mcp.StdioTransport{}); err != nil && gCtx.Err() == nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.Error("application error", "error", err)
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

func (a *application) serveHTTP(g *errgroup.Group, gCtx context.Context, cancel context.CancelFunc, mcpServer *mcp.Server) {
	address := a.config.App.HTTP.Address()
	httpServer := &http.Server{
		Addr:    address,
		Handler: server.NewHTTPHandler(mcpServer, a.ready.Load),
	}

	g.Go(func() error {
		defer cancel()
		a.logger.Info("MCP server starting on HTTP", "address", address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})
}

// close releases the workspace and stops the cache sweepers.
func (a *application) close() {
	a.selections.Close()
	a.indexes.Close()
	if err := a.workspace.Close(); err != nil {
		a.logger.Warn("closing workspace failed", "error", err)
	}
}
