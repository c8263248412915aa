package language

import "strings"

// sourceDirs are conventional top-level or nested directories holding application code.
var sourceDirs = []string{"src", "lib", "app", "pkg", "internal", "cmd", "components", "server", "api"}

// InSourceDir reports whether any directory segment of p is a conventional source directory.
func InSourceDir(p string) bool {
	segments := strings.Split(strings.ToLower(p), "/")
	for _, seg := range segments[:len(segments)-1] {
		for _, dir := range sourceDirs {
			if seg == dir {
				return true
			}
		}
	}
	return false
}

// IsTestPath reports whether p looks like a test file or lives in a test directory.
func IsTestPath(p string) bool {
	lower := strings.ToLower(p)
	for _, marker := range []string{"_test.", ".test.", ".spec.", "/test/", "/tests/", "__tests__/", "/testdata/"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	base := lower[strings.LastIndex(lower, "/")+1:]
	return strings.HasPrefix(base, "test_") ||
		strings.HasPrefix(lower, "test/") ||
		strings.HasPrefix(lower, "tests/") ||
		strings.HasPrefix(lower, "testdata/")
}
