package fsmanager

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walk yields every regular file under root, relative-path ordered by
// filepath.WalkDir's lexical traversal, skipping anything matched by
// ignores. ignores rules are compiled relative to base (the tracked
// directory root), not root (the walk's starting point), so the two must
// be passed separately whenever a walk starts below the tracked root —
// e.g. staging a single subdirectory still has to match ignore rules
// against paths relative to the tracked directory, the same base
// GetStatus matches against. Symbolic links are never followed: an entry
// whose type bit reports ModeSymlink is skipped outright, directory or
// not.
func Walk(root, base string, ignores *IgnoreSet) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(path, err) {
					return filepath.SkipAll
				}
				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			rel, relErr := filepath.Rel(base, path)
			if relErr != nil {
				rel = path
			}

			if ignores != nil && ignores.Match(rel, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}
			if !IsRegular(d) {
				return nil
			}

			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && err != filepath.SkipAll {
			yield(root, err)
		}
	}
}
