package selection

import (
	"context"
	"errors"

	"github.com/lexandro/codecontext-mcp/relevance"
)

// Failure classes surfaced to callers. Cache misses and index failures are recovered
// inside the pipeline and never returned.
var (
	// ErrRankingCall means the model call itself failed, timed out or was canceled.
	ErrRankingCall = errors.New("ranking call failed")
	// ErrRankingResponseInvalid means the model answered, but not in the expected shape
	// or with paths outside the candidate set.
	ErrRankingResponseInvalid = errors.New("ranking response invalid")
	// ErrEmptySelection means validation succeeded but no file was selected.
	ErrEmptySelection = errors.New("empty selection")
)

// Classify returns a short stable name for the failure class of err.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrRankingResponseInvalid):
		return "ranking_response_invalid"
	case errors.Is(err, ErrRankingCall):
		return "ranking_call_failure"
	case errors.Is(err, ErrEmptySelection):
		return "empty_selection"
	case errors.Is(err, relevance.ErrIndexBuild):
		return "index_build_failure"
	default:
		return "internal"
	}
}
