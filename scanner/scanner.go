// Package scanner walks a working tree into layout snapshot entries and
// reads run metadata from the repository's git state.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"
	git "github.com/go-git/go-git/v5"

	"github.com/flanksource/scanhub/identity"
	"github.com/flanksource/scanhub/models"
)

// Scanner produces layout entries for a directory tree.
type Scanner struct {
	excludes []string
}

// New creates a scanner. The ".git" directory is always skipped; excludes
// are doublestar globs over normalized repo-relative paths.
func New(excludes ...string) *Scanner {
	return &Scanner{excludes: excludes}
}

// Walk scans root and returns one entry per directory and file, the root
// directory entry first. Entry identifiers come from the identity resolver;
// parents are always emitted before their children.
func (s *Scanner) Walk(root string) ([]models.LayoutEntry, error) {
	entries := []models.LayoutEntry{{
		EntryID:      identity.RootID.String(),
		ParentID:     "",
		RelativePath: "",
	}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = identity.Normalize(rel)
		if rel == "" {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if s.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		kind := identity.File
		if d.IsDir() {
			kind = identity.Directory
		}
		entries = append(entries, models.LayoutEntry{
			EntryID:      identity.Identify(rel, kind).String(),
			ParentID:     identity.Identify(parentPath(rel), identity.Directory).String(),
			RelativePath: rel,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	logger.Debugf("scanned %s: %d layout entries", root, len(entries))
	return entries, nil
}

func parentPath(rel string) string {
	if idx := strings.LastIndex(rel, "/"); idx >= 0 {
		return rel[:idx]
	}
	return ""
}

func (s *Scanner) excluded(rel string) bool {
	for _, glob := range s.excludes {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
		// "vendor/**" should also skip the vendor directory itself.
		if strings.HasSuffix(glob, "/**") && rel == strings.TrimSuffix(glob, "/**") {
			return true
		}
	}
	return false
}

// GitMetadata is the branch and commit of a working tree's HEAD.
type GitMetadata struct {
	Branch string
	Commit string
}

// ReadGitMetadata reads HEAD from the repository at root. A missing or
// detached repository is not an error; the affected fields stay empty.
func ReadGitMetadata(root string) GitMetadata {
	repo, err := git.PlainOpen(root)
	if err != nil {
		logger.Debugf("no git repository at %s: %v", root, err)
		return GitMetadata{}
	}
	head, err := repo.Head()
	if err != nil {
		logger.Debugf("failed to read HEAD at %s: %v", root, err)
		return GitMetadata{}
	}
	meta := GitMetadata{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		meta.Branch = head.Name().Short()
	}
	return meta
}
