package sync

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Excluder decides which relative paths are invisible to the reconciler.
// Matching is case-insensitive, like path comparison.
//
// Patterns support:
//   - Simple glob patterns: *.tmp, *.log (matched against the base name)
//   - Directory patterns: .git/, node_modules/ (directories only)
//   - Path patterns: build/*, docs/**/draft-*.md (matched against the full path)
//   - Any depth: **/cache/**
type Excluder struct {
	patterns []excludePattern
}

type excludePattern struct {
	glob     string
	dirOnly  bool
	fullPath bool
}

// NewExcluder compiles a set of exclusion patterns
func NewExcluder(patterns []string) (*Excluder, error) {
	e := &Excluder{}
	for _, raw := range patterns {
		p := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "\\", "/"))
		if p == "" {
			continue
		}

		ep := excludePattern{}
		if strings.HasSuffix(p, "/") {
			ep.dirOnly = true
			p = strings.TrimSuffix(p, "/")
		}
		p = strings.TrimPrefix(p, "/")
		ep.fullPath = strings.Contains(p, "/")
		ep.glob = p

		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", raw)
		}
		e.patterns = append(e.patterns, ep)
	}
	return e, nil
}

// Match reports whether a relative path (forward slashes) is excluded.
// It has the shape of a storage.Filter.
func (e *Excluder) Match(relPath string, isDir bool) bool {
	if e == nil || len(e.patterns) == 0 {
		return false
	}

	p := strings.ToLower(relPath)
	base := path.Base(p)

	for _, ep := range e.patterns {
		if ep.dirOnly && !isDir {
			continue
		}

		target := base
		if ep.fullPath {
			target = p
		}

		if ok, _ := doublestar.Match(ep.glob, target); ok {
			return true
		}
	}

	return false
}

// MatchTree reports whether a file path, or any directory above it, is
// excluded. A scan never descends into an excluded directory, so this is
// what decides visibility for paths that did not come from a scan.
func (e *Excluder) MatchTree(relPath string) bool {
	if e.Empty() {
		return false
	}

	p := strings.Trim(relPath, "/")
	for i := 0; i < len(p); i++ {
		if p[i] == '/' && e.Match(p[:i], true) {
			return true
		}
	}
	return e.Match(p, false)
}

// Empty reports whether no pattern is configured
func (e *Excluder) Empty() bool {
	return e == nil || len(e.patterns) == 0
}
