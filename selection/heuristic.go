package selection

import (
	"sort"

	"github.com/lexandro/codecontext-mcp/language"
)

// heuristicRank holds the static signals used when the relevance index is unavailable.
type heuristicRank struct {
	path      string
	source    bool
	sourceDir bool
	test      bool
}

// HeuristicCandidates orders paths by source extension, then by location under a
// conventional source directory, then non-test before test, then by path; it returns the first n.
func HeuristicCandidates(paths []string, n int) []string {
	ranks := make([]heuristicRank, len(paths))
	for i, p := range paths {
		ranks[i] = heuristicRank{
			path:      p,
			source:    language.IsSourceFile(p),
			sourceDir: language.InSourceDir(p),
			test:      language.IsTestPath(p),
		}
	}

	sort.Slice(ranks, func(i, j int) bool {
		a, b := ranks[i], ranks[j]
		if a.source != b.source {
			return a.source
		}
		if a.sourceDir != b.sourceDir {
			return a.sourceDir
		}
		if a.test != b.test {
			return !a.test
		}
		return a.path < b.path
	})

	if n >= 0 && len(ranks) > n {
		ranks = ranks[:n]
	}
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.path
	}
	return out
}
