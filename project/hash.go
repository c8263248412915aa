package project

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashMode selects how much of a collection feeds its hash.
type HashMode string

const (
	// HashBySize hashes (path, kind, size). A same-length edit does not change the hash.
	HashBySize HashMode = "size"
	// HashByContent hashes (path, kind, content).
	HashByContent HashMode = "content"
)

// Hash returns a deterministic hash of the collection's (path, kind, size) tuples.
func (c Collection) Hash() string {
	return c.HashWith(HashBySize)
}

// HashWith hashes the collection using the given mode.
func (c Collection) HashWith(mode HashMode) string {
	paths := make([]string, 0, len(c))
	for p := range c {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	d := xxhash.New()
	var buf []byte
	for _, p := range paths {
		r := c[p]
		buf = buf[:0]
		buf = append(buf, p...)
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, int64(r.Kind), 10)
		buf = append(buf, 0)
		if mode == HashByContent {
			d.Write(buf)
			d.WriteString(r.Content)
			d.Write([]byte{'\n'})
			continue
		}
		buf = strconv.AppendInt(buf, int64(len(r.Content)), 10)
		buf = append(buf, '\n')
		d.Write(buf)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// HashQuery returns a deterministic hash of a query. Surrounding whitespace is ignored.
func HashQuery(query string) string {
	return strconv.FormatUint(xxhash.Sum64String(strings.TrimSpace(query)), 16)
}
