package selection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lexandro/codecontext-mcp/cache"
	"github.com/lexandro/codecontext-mcp/project"
	"github.com/lexandro/codecontext-mcp/ranker"
	"github.com/lexandro/codecontext-mcp/relevance"
)

const (
	DefaultTTL              = 3 * time.Minute
	DefaultCandidateCeiling = 20
	DefaultRecentTurnWindow = 3
	DefaultMaxIncluded      = 5
)

// KeyPrefix namespaces selection results in the shared cache.
const KeyPrefix = "selection/"

// Narrowing names how the candidate set was produced.
type Narrowing string

const (
	NarrowNone      Narrowing = "none"
	NarrowIndex     Narrowing = "index"
	NarrowHeuristic Narrowing = "heuristic"
)

// IndexSource returns a relevance index built for a collection hash.
// *relevance.CachedIndex implements it.
type IndexSource interface {
	GetIndex(ctx context.Context, files project.Collection, fileHash string) (*relevance.Index, error)
}

// Options configures a Pipeline.
type Options struct {
	Cache  *cache.Cache[project.Collection] // selection results; nil disables caching
	Index  IndexSource                      // nil narrows with the heuristic only
	Ranker ranker.Ranker                    // required

	TTL              time.Duration
	CandidateCeiling int
	RecentTurnWindow int
	MaxIncluded      int // communicated to the model, not enforced
	HashMode         project.HashMode
	Logger           *slog.Logger
}

// Request is the input of one selection.
type Request struct {
	// Query is the user request. Empty means the latest user turn is used.
	Query string
	Turns []project.Turn
	Files project.Collection
	// Buffer holds paths already in context. They are kept unless excluded.
	Buffer []string
	// RecentlyChanged adds paths to those found in turn metadata.
	RecentlyChanged []string
}

// Result is the outcome of a successful selection.
type Result struct {
	Files      project.Collection
	Paths      []string
	CacheHit   bool
	Candidates []string
	Narrowing  Narrowing
	Key        string
}

// Counters are cumulative pipeline statistics.
type Counters struct {
	Selections     int64
	CacheHits      int64
	RankCalls      int64
	Fallbacks      int64
	InvalidAnswers int64
	Failures       int64
}

// Pipeline selects the subset of a file collection relevant to a user request.
// It is safe for concurrent use; all state lives in the injected caches.
type Pipeline struct {
	options Options
	logger  *slog.Logger

	selections     atomic.Int64
	cacheHits      atomic.Int64
	rankCalls      atomic.Int64
	fallbacks      atomic.Int64
	invalidAnswers atomic.Int64
	failures       atomic.Int64
}

// New creates a pipeline, applying defaults for zero options.
func New(options Options) *Pipeline {
	if options.TTL <= 0 {
		options.TTL = DefaultTTL
	}
	if options.CandidateCeiling <= 0 {
		options.CandidateCeiling = DefaultCandidateCeiling
	}
	if options.RecentTurnWindow <= 0 {
		options.RecentTurnWindow = DefaultRecentTurnWindow
	}
	if options.MaxIncluded <= 0 {
		options.MaxIncluded = DefaultMaxIncluded
	}
	if options.HashMode == "" {
		options.HashMode = project.HashBySize
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{options: options, logger: logger}
}

// CacheKey returns the selection cache key for a query hash and a collection hash.
func CacheKey(queryHash, fileHash string) string {
	return KeyPrefix + queryHash + "/" + fileHash
}

// Select runs hash, cache lookup, narrowing, ranking, validation and cache write.
// Ranking failures, invalid answers and empty selections are returned as errors
// wrapping ErrRankingCall, ErrRankingResponseInvalid and ErrEmptySelection.
func (p *Pipeline) Select(ctx context.Context, req Request) (*Result, error) {
	p.selections.Add(1)
	logger := p.logger.With("op", uuid.NewString())

	result, err := p.run(ctx, logger, req)
	if err != nil {
		p.failures.Add(1)
		logger.Warn("selection failed", "class", Classify(err), "error", err)
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, req Request) (*Result, error) {
	query := req.Query
	if query == "" {
		query = project.LatestUserQuery(req.Turns)
	}
	files := req.Files
	if files == nil {
		files = project.Collection{}
	}

	fileHash := files.HashWith(p.options.HashMode)
	key := CacheKey(project.HashQuery(query), fileHash)

	if p.options.Cache != nil {
		if cached, ok := p.options.Cache.Get(key); ok {
			p.cacheHits.Add(1)
			logger.Debug("selection cache hit", "key", key, "files", len(cached))
			return &Result{Files: maps.Clone(cached), Paths: sortedPaths(cached), CacheHit: true, Key: key}, nil
		}
		logger.Debug("selection cache miss", "key", key)
	}

	allPaths := files.FilePaths()
	if len(allPaths) == 0 {
		return nil, fmt.Errorf("%w: collection has no files", ErrEmptySelection)
	}

	recent := append(project.RecentlyChangedPaths(req.Turns, p.options.RecentTurnWindow), normalizeAll(req.RecentlyChanged)...)
	buffer := existingPaths(files, req.Buffer)

	candidates, narrowing := p.narrow(ctx, logger, files, fileHash, allPaths, query, recent)
	candidates = appendMissing(candidates, buffer)
	logger.Debug("narrowed candidates", "narrowing", narrowing, "candidates", len(candidates), "total", len(allPaths))

	prompt := buildPrompt(promptInput{
		query:       query,
		candidates:  candidates,
		files:       files,
		buffer:      buffer,
		maxIncluded: p.options.MaxIncluded,
	})

	p.rankCalls.Add(1)
	start := time.Now()
	response, err := p.options.Ranker.Rank(ctx, prompt)
	logger.Debug("ranking call finished", "elapsed", time.Since(start), "error", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRankingCall, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrRankingCall, ctxErr)
	}

	selected, err := applyDirectives(response, candidates, buffer)
	if err != nil {
		p.invalidAnswers.Add(1)
		return nil, err
	}
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}

	subset := files.Subset(selected)
	if p.options.Cache != nil {
		p.options.Cache.SetWithTTL(key, subset, p.options.TTL)
		logger.Debug("selection cached", "key", key, "ttl", p.options.TTL)
	}
	logger.Info("selection complete", "files", len(subset), "narrowing", narrowing)

	return &Result{
		Files:      maps.Clone(subset),
		Paths:      sortedPaths(subset),
		Candidates: candidates,
		Narrowing:  narrowing,
		Key:        key,
	}, nil
}

// narrow bounds the candidate set. The index is tried first; any index failure or an
// empty index result falls back to the static heuristic.
func (p *Pipeline) narrow(ctx context.Context, logger *slog.Logger, files project.Collection, fileHash string,
	allPaths []string, query string, recent []string) ([]string, Narrowing) {
	ceiling := p.options.CandidateCeiling
	if len(allPaths) <= ceiling {
		return allPaths, NarrowNone
	}

	if p.options.Index != nil {
		idx, err := p.options.Index.GetIndex(ctx, files, fileHash)
		if err == nil {
			if top := idx.TopN(query, ceiling, recent); len(top) > 0 {
				return top, NarrowIndex
			}
			logger.Debug("index returned no scored candidates")
		} else {
			logger.Warn("index unavailable, using heuristic", "error", err)
		}
	}

	p.fallbacks.Add(1)
	return HeuristicCandidates(allPaths, ceiling), NarrowHeuristic
}

// applyDirectives validates the ranking response against the candidate set and returns
// the selected paths: the buffer minus excludes plus includes, in directive order.
func applyDirectives(response string, candidates []string, buffer []string) ([]string, error) {
	directives, err := ParseDirectives(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRankingResponseInvalid, err)
	}

	allowed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		allowed[c] = true
	}

	selected := make(map[string]bool, len(buffer))
	for _, b := range buffer {
		selected[b] = true
	}
	for _, d := range directives {
		if !allowed[d.Path] {
			return nil, fmt.Errorf("%w: path %q is not a candidate", ErrRankingResponseInvalid, d.Path)
		}
		switch d.Action {
		case ActionInclude:
			selected[d.Path] = true
		case ActionExclude:
			delete(selected, d.Path)
		}
	}

	paths := make([]string, 0, len(selected))
	for p := range selected {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Counters returns a snapshot of the pipeline statistics.
func (p *Pipeline) Counters() Counters {
	return Counters{
		Selections:     p.selections.Load(),
		CacheHits:      p.cacheHits.Load(),
		RankCalls:      p.rankCalls.Load(),
		Fallbacks:      p.fallbacks.Load(),
		InvalidAnswers: p.invalidAnswers.Load(),
		Failures:       p.failures.Load(),
	}
}

// InvalidateCache drops every cached selection and returns how many were removed.
func (p *Pipeline) InvalidateCache() int {
	if p.options.Cache == nil {
		return 0
	}
	removed, err := p.options.Cache.DeletePattern(KeyPrefix + "**")
	if err != nil {
		// pattern is constant; fall back to a prefix scan
		return p.options.Cache.DeletePrefix(KeyPrefix)
	}
	return removed
}

func existingPaths(files project.Collection, paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range normalizeAll(paths) {
		if files.Has(p) && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func appendMissing(candidates []string, extra []string) []string {
	present := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		present[c] = true
	}
	out := append([]string(nil), candidates...)
	for _, e := range extra {
		if !present[e] {
			present[e] = true
			out = append(out, e)
		}
	}
	return out
}

func normalizeAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if n := project.NormalizePath(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func sortedPaths(files project.Collection) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// IsRetryable reports whether a failed selection may succeed if the turn is retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRankingCall) || errors.Is(err, ErrRankingResponseInvalid)
}
