package task

import (
	"path/filepath"
	"strings"
)

// destPath rewrites src, a path somewhere under srcRoot, into the
// equivalent path under destRoot by preserving the portion of src
// relative to srcRoot, placed under a directory named after srcRoot's
// base name. If srcRoot is a single file rather than a directory,
// destPath returns destRoot itself as the literal target filename; it
// does not check whether destRoot is an existing directory.
func destPath(srcRoot, destRoot, src string, srcRootIsDir bool) string {
	if !srcRootIsDir {
		return destRoot
	}
	rel, err := filepath.Rel(srcRoot, src)
	if err != nil || rel == "." {
		return filepath.Join(destRoot, filepath.Base(srcRoot))
	}
	return filepath.Join(destRoot, filepath.Base(srcRoot), rel)
}

// IsWithin reports whether candidate is root itself or nested under it,
// guarding against a destination accidentally nested inside its own
// source tree.
func IsWithin(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..")
}
