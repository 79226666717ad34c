package fsmanager

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pattern is one compiled ignore rule: the glob to test against, whether it
// is a re-include (leading "!"), whether it only applies to directories
// (trailing "/"), and the depth (in path segments) of the .btignore file it
// came from, relative to the tracked root — used to break ties in favor of
// the most specific match.
type pattern struct {
	glob      string
	include   bool
	dirOnly   bool
	baseDepth int
}

// IgnoreSet merges global ignore patterns from configuration with every
// .btignore file found beneath a tracked root, compiled once and reused for
// the lifetime of a Walk.
type IgnoreSet struct {
	root     string
	patterns []pattern
}

// NewIgnoreSet compiles global patterns plus every .btignore file found
// under root into a single IgnoreSet.
func NewIgnoreSet(root string, globalPatterns []string) (*IgnoreSet, error) {
	set := &IgnoreSet{root: root}

	for _, g := range globalPatterns {
		set.patterns = append(set.patterns, compilePattern(g, 0))
	}

	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != ".btignore" {
			return nil
		}
		dir := filepath.Dir(p)
		rel, relErr := filepath.Rel(root, dir)
		if relErr != nil {
			rel = ""
		}
		depth := 0
		if rel != "." && rel != "" {
			depth = len(strings.Split(filepath.ToSlash(rel), "/"))
		}
		lines, err := readIgnoreFile(p)
		if err != nil {
			return err
		}
		for _, line := range lines {
			pat := compilePattern(line, depth)
			if rel != "." && rel != "" {
				pat.glob = filepath.ToSlash(rel) + "/" + pat.glob
			}
			set.patterns = append(set.patterns, pat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return set, nil
}

func readIgnoreFile(p string) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func compilePattern(raw string, depth int) pattern {
	p := pattern{baseDepth: depth}
	if strings.HasPrefix(raw, "!") {
		p.include = true
		raw = raw[1:]
	}
	if strings.HasSuffix(raw, "/") {
		p.dirOnly = true
		raw = strings.TrimSuffix(raw, "/")
	}
	if !strings.Contains(raw, "/") {
		raw = "**/" + raw
	}
	p.glob = raw
	return p
}

// Match reports whether relPath (slash-separated, relative to the tracked
// root) should be excluded from the backup. The matching pattern from the
// deepest .btignore wins; among matches at the same depth, the last listed
// pattern wins, whether it excludes or re-includes. Absent any match, the
// path is included.
func (s *IgnoreSet) Match(relPath string, isDir bool) bool {
	if s == nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	var (
		matched   bool
		excluding bool
		bestDepth = -1
	)

	for _, p := range s.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		ok, err := doublestar.Match(p.glob, relPath)
		if err != nil || !ok {
			// also try matching any ancestor directory component, so a
			// directory-level exclude hides everything beneath it
			ok = matchesAncestor(p.glob, relPath)
			if !ok {
				continue
			}
		}
		if p.baseDepth < bestDepth {
			continue
		}
		matched = true
		bestDepth = p.baseDepth
		excluding = !p.include
	}

	return matched && excluding
}

// matchesAncestor reports whether glob matches relPath or any path prefix of
// it, so that excluding a directory also excludes everything under it.
func matchesAncestor(glob, relPath string) bool {
	segments := strings.Split(relPath, "/")
	for i := range segments {
		prefix := path.Join(segments[:i+1]...)
		if ok, err := doublestar.Match(glob, prefix); err == nil && ok {
			return true
		}
	}
	return false
}
