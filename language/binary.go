package language

import "unicode/utf8"

// sniffSize is how many leading bytes are inspected for binary detection.
const sniffSize = 512

// IsBinaryContent reports whether data looks binary: a NUL byte, or invalid UTF-8,
// within the first 512 bytes.
func IsBinaryContent(data []byte) bool {
	head := data
	if len(head) > sniffSize {
		head = head[:sniffSize]
	}
	for _, b := range head {
		if b == 0 {
			return true
		}
	}
	// A multi-byte rune may be cut at the sniff boundary; trim up to 3 trailing bytes.
	for i := 0; i < utf8.UTFMax-1 && len(head) > 0 && !utf8.Valid(head); i++ {
		if len(data) <= sniffSize {
			break
		}
		head = head[:len(head)-1]
	}
	return !utf8.Valid(head)
}
