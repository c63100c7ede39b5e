package platform

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizeRoot returns the absolute, cleaned form of a root directory path
// without a trailing separator (except for a filesystem root itself).
func NormalizeRoot(path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	normalized := filepath.Clean(abs)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized, nil
}

// Key returns the comparison key for a relative path: forward slashes,
// case folded. Two paths with the same key are the same entry.
func Key(relPath string) string {
	return strings.ToLower(filepath.ToSlash(relPath))
}

// SegmentCount returns the number of path segments in a relative path,
// independent of which separator style it uses.
func SegmentCount(relPath string) int {
	p := strings.Trim(filepath.ToSlash(relPath), "/")
	if p == "" || p == "." {
		return 0
	}
	return strings.Count(p, "/") + 1
}

// SamePath reports whether two normalized roots name the same directory,
// ignoring case
func SamePath(a, b string) bool {
	return strings.EqualFold(a, b)
}

// IsNested reports whether child lies strictly inside parent, ignoring case
func IsNested(parent, child string) bool {
	prefix := parent
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return len(child) > len(prefix) && strings.EqualFold(child[:len(prefix)], prefix)
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" {
		invalidChars := []string{"<", ">", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(path, char) && !IsUNCPath(path) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
