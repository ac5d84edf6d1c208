// Package hashing computes and checks the content digests the pipeline
// is built around.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// SumReader streams the reader through SHA-256 and returns the
// lowercase hex digest and the byte count.
func SumReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// SumBytes returns the lowercase hex SHA-256 of b.
func SumBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Normalize lowercases a hex digest for comparison.
func Normalize(digest string) string {
	return strings.ToLower(strings.TrimSpace(digest))
}

// Equal compares two hex digests case-insensitively. An empty expected
// digest matches anything: the client declared none.
func Equal(expected, actual string) bool {
	if expected == "" {
		return true
	}
	return Normalize(expected) == Normalize(actual)
}

// ValidHex reports whether s looks like a SHA-256 hex digest.
func ValidHex(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
