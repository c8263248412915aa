package project

import "strings"

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior conversation turn. ChangedPaths is the structured metadata
// listing files the turn created or edited.
type Turn struct {
	Role         Role
	Text         string
	ChangedPaths []string
}

// LatestUserQuery returns the text of the last user turn, or "" if there is none.
func LatestUserQuery(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser && strings.TrimSpace(turns[i].Text) != "" {
			return turns[i].Text
		}
	}
	return ""
}

// RecentlyChangedPaths collects the changed paths of the last window turns,
// most recent first, without duplicates.
func RecentlyChangedPaths(turns []Turn, window int) []string {
	if window <= 0 {
		return nil
	}
	start := len(turns) - window
	if start < 0 {
		start = 0
	}
	seen := make(map[string]bool)
	var out []string
	for i := len(turns) - 1; i >= start; i-- {
		for _, p := range turns[i].ChangedPaths {
			p = NormalizePath(p)
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
