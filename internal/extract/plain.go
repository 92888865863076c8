package extract

import (
	"bytes"
	"unicode/utf8"
)

// binarySniffLen bounds how much of the file the NUL-byte heuristic inspects.
const binarySniffLen = 8192

// extractPlain returns content as a string after rejecting binary and
// non-UTF-8 input. The caller records the rejection as a warning and skips
// the file; invalid bytes are never replaced or indexed.
func extractPlain(content []byte) (string, error) {
	sniff := content
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return "", ErrBinaryContent
	}
	if !utf8.Valid(content) {
		return "", ErrInvalidEncoding
	}
	return string(content), nil
}
