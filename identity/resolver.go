package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind distinguishes file identifiers from directory identifiers.
type Kind string

const (
	File      Kind = "f"
	Directory Kind = "d"
)

// RootID is the reserved identifier for the repository root directory.
const RootID ID = "d-000000000000"

// hashLen is the number of hex digits kept from the digest. 12 digits is a
// fixed-width truncation accepted as practically unique; collisions are an
// accepted risk, not handled.
const hashLen = 12

// ID is a 14-character identifier: kind tag, dash, 12 hex digits of the
// truncated SHA-256 of the normalized repo-relative path.
type ID string

// Identify derives the identifier for a repo-relative path. Pure and
// deterministic: the same (path, kind) always yields the same ID, and the
// same path yields the same hash suffix for both kinds. Safe for concurrent
// use.
func Identify(path string, kind Kind) ID {
	p := Normalize(path)
	if p == "" && kind == Directory {
		return RootID
	}
	sum := sha256.Sum256([]byte(p))
	return ID(string(kind) + "-" + hex.EncodeToString(sum[:])[:hashLen])
}

// Normalize converts a path to the canonical repo-relative form used for
// hashing and layout resolution: forward slashes, no leading slash, no
// leading "./", and "." collapsed to the empty root path.
func Normalize(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Kind returns the kind tag of the identifier.
func (id ID) Kind() Kind {
	if len(id) == 0 {
		return ""
	}
	return Kind(id[0])
}

// Hash returns the 12-hex-digit suffix of the identifier.
func (id ID) Hash() string {
	if len(id) < 3 {
		return ""
	}
	return string(id[2:])
}

// Validate checks the identifier shape: kind tag, dash, 12 lowercase hex
// digits.
func (id ID) Validate() error {
	if len(id) != 2+hashLen {
		return fmt.Errorf("identifier %q has length %d, want %d", id, len(id), 2+hashLen)
	}
	if id[0] != 'f' && id[0] != 'd' {
		return fmt.Errorf("identifier %q has unknown kind tag %q", id, id[0])
	}
	if id[1] != '-' {
		return fmt.Errorf("identifier %q is missing the kind separator", id)
	}
	for _, c := range id[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("identifier %q has a non-hex digit %q", id, c)
		}
	}
	return nil
}

func (id ID) String() string {
	return string(id)
}
