package bulletin

import (
	"path/filepath"
	"strings"
)

// ValidatePath rejects user supplied data paths that could escape the
// project root. It never touches the filesystem and must run before any
// access using the path.
func ValidatePath(p string) error {
	normalized := strings.ReplaceAll(p, `\`, "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return &PathTraversalError{Path: p}
		}
	}
	if isAbsolute(p, normalized) {
		return &AbsolutePathError{Path: p}
	}
	return nil
}

func isAbsolute(raw, normalized string) bool {
	if filepath.IsAbs(raw) || strings.HasPrefix(normalized, "/") {
		return true
	}
	// Drive letters are rejected on every platform so a data file written
	// on Windows cannot smuggle one past a Unix build.
	if len(normalized) >= 2 && normalized[1] == ':' {
		c := normalized[0]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return false
}
